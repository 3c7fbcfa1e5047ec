package booking

import (
	"context"
	"log/slog"
	"time"

	"agristore/internal/app/commands"
	"agristore/internal/app/outbox"
	"agristore/internal/app/policies"
	"agristore/internal/app/uow"
	domainbooking "agristore/internal/domain/booking"
)

const reconcileBookingKey = "booking.reconcile"

// RoleAdmin grants reconcile access beyond the booking's own parties.
const RoleAdmin = "admin"

type ReconcileBookingCommand struct {
	BookingID string
	ActorID   string
	ActorRole string
}

func (c ReconcileBookingCommand) Key() string { return reconcileBookingKey }

type ReconcileBookingResult struct {
	BookingView
	Changed bool `json:"changed"`
}

// ReconcileBookingHandler repairs a booking's derived fields against the
// warehouse's current rate card. Calling it on an already-consistent booking
// returns the unchanged booking with no error.
type ReconcileBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ReconcileBookingHandler) Handle(ctx context.Context, cmd ReconcileBookingCommand) (*ReconcileBookingResult, error) {
	var result *ReconcileBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if !canReconcile(cmd, b) {
			return ErrForbidden
		}
		wh, err := unit.Warehouses().ByID(ctx, b.WarehouseID)
		if err != nil {
			return err
		}

		changed, err := b.Reconcile(wh.Rates, h.now())
		if err != nil {
			return err
		}
		if changed {
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
				return err
			}
			if h.Logger != nil {
				h.Logger.Info("booking reconciled", "booking_id", b.ID, "total", b.Pricing.Total)
			}
		}
		result = &ReconcileBookingResult{BookingView: viewOf(b), Changed: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func canReconcile(cmd ReconcileBookingCommand, b *domainbooking.Booking) bool {
	if cmd.ActorRole == RoleAdmin {
		return true
	}
	return cmd.ActorID == b.RenterID || cmd.ActorID == string(b.OwnerID)
}

func (h *ReconcileBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ReconcileBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ReconcileBookingCommand, *ReconcileBookingResult] = (*ReconcileBookingHandler)(nil)
