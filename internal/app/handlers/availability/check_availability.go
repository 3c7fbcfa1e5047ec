package availability

import (
	"context"
	"time"

	"agristore/internal/app/queries"
	"agristore/internal/app/uow"
	domainavailability "agristore/internal/domain/availability"
	"agristore/internal/domain/shared/daterange"
	domainwarehouse "agristore/internal/domain/warehouse"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	WarehouseID string
	StartDate   time.Time
	EndDate     time.Time
	Quantity    float64
	Unit        string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type ConflictView struct {
	BookingID string    `json:"booking_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Quantity  float64   `json:"quantity"`
	Status    string    `json:"status"`
}

type CheckAvailabilityResult struct {
	Available         bool           `json:"available"`
	RemainingCapacity float64        `json:"remaining_capacity"`
	Conflicts         []ConflictView `json:"conflicts"`
	Reason            string         `json:"reason,omitempty"`
}

// CheckAvailabilityHandler answers whether a window/quantity request fits.
// The answer is advisory under races; the capacity decrement at payment
// confirmation is the authoritative guard.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (*CheckAvailabilityResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		defer func() { _ = unit.Rollback(ctx) }()
	}

	wh, err := unit.Warehouses().ByID(ctx, domainwarehouse.WarehouseID(q.WarehouseID))
	if err != nil {
		return nil, err
	}
	existing, err := unit.Bookings().ListByWarehouse(ctx, wh.ID)
	if err != nil {
		return nil, err
	}
	window, err := daterange.New(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	res, err := domainavailability.Check(wh, existing, window, q.Quantity, q.Unit)
	if err != nil {
		return nil, err
	}

	out := &CheckAvailabilityResult{
		Available:         res.Available,
		RemainingCapacity: res.RemainingCapacity,
		Conflicts:         make([]ConflictView, 0, len(res.Conflicts)),
		Reason:            res.Reason,
	}
	for _, c := range res.Conflicts {
		out.Conflicts = append(out.Conflicts, ConflictView{
			BookingID: string(c.BookingID),
			StartDate: c.Window.Start,
			EndDate:   c.Window.End,
			Quantity:  c.Quantity,
			Status:    string(c.Status),
		})
	}
	return out, nil
}

var _ queries.Handler[CheckAvailabilityQuery, *CheckAvailabilityResult] = (*CheckAvailabilityHandler)(nil)
