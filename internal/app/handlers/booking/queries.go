package booking

import (
	"context"
	"strings"

	"agristore/internal/app/queries"
	"agristore/internal/app/uow"
	domainbooking "agristore/internal/domain/booking"
)

const (
	getBookingKey         = "booking.get"
	listRenterBookingsKey = "booking.list_by_renter"
)

type GetBookingQuery struct {
	BookingID string
	ActorID   string
	ActorRole string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*BookingView, error) {
	var view *BookingView
	err := h.inReadUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
		if err != nil {
			return err
		}
		if q.ActorRole != RoleAdmin && q.ActorID != b.RenterID && q.ActorID != string(b.OwnerID) {
			return ErrForbidden
		}
		v := viewOf(b)
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

type ListRenterBookingsQuery struct {
	RenterID string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) (BookingCollection, error) {
	renterID := strings.TrimSpace(q.RenterID)
	if renterID == "" {
		return BookingCollection{}, domainbooking.ErrRenterRequired
	}
	out := BookingCollection{Items: []BookingView{}}
	err := h.inReadUnit(ctx, func(ctx context.Context, unit uow.UnitOfWork) error {
		list, err := unit.Bookings().ListByRenter(ctx, renterID)
		if err != nil {
			return err
		}
		for _, b := range list {
			out.Items = append(out.Items, viewOf(b))
		}
		return nil
	})
	if err != nil {
		return BookingCollection{}, err
	}
	return out, nil
}

func (h *GetBookingHandler) inReadUnit(ctx context.Context, fn func(context.Context, uow.UnitOfWork) error) error {
	return readUnit(ctx, h.UoWFactory, fn)
}

func (h *ListRenterBookingsHandler) inReadUnit(ctx context.Context, fn func(context.Context, uow.UnitOfWork) error) error {
	return readUnit(ctx, h.UoWFactory, fn)
}

// readUnit runs fn in the ambient unit of work, or a short read-only one.
func readUnit(ctx context.Context, factory uow.UoWFactory, fn func(context.Context, uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	return fn(ctx, unit)
}

var _ queries.Handler[GetBookingQuery, *BookingView] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListRenterBookingsQuery, BookingCollection] = (*ListRenterBookingsHandler)(nil)
