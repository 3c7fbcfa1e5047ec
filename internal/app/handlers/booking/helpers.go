package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agristore/internal/app/outbox"
	"agristore/internal/app/policies"
	"agristore/internal/app/uow"
	domainbooking "agristore/internal/domain/booking"
)

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	// ErrUnavailable is a conflict: the requested window/quantity does not
	// fit the warehouse's remaining capacity or duration bounds.
	ErrUnavailable = errors.New("booking: requested capacity unavailable")
	// ErrPaymentProvider marks a failed or timed-out payment-provider call.
	// The booking is left in its pre-call state.
	ErrPaymentProvider = errors.New("booking: payment provider call failed")
	// ErrForbidden is returned when the caller may not act on the booking.
	ErrForbidden = errors.New("booking: caller is not allowed to perform this operation")
)

// runInUnit executes fn inside the unit of work from context, or a locally
// managed one when the transaction middleware is absent (tests, scripts).
func runInUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	if err := fn(ctx, unit); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// drainEvents moves the aggregate's pending events into the outbox.
func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, b *domainbooking.Booking) error {
	evs := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, encoder, evs)
}

// notify sends a fire-and-forget notification. Delivery failures are logged
// and never fail the operation.
func notify(ctx context.Context, n policies.Notifier, log *slog.Logger, event string, payload any) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event, payload); err != nil && log != nil {
		log.Warn("notification delivery failed", "event", event, "error", err)
	}
}

// BookingView is the caller-facing snapshot returned by booking operations.
type BookingView struct {
	BookingID     string    `json:"booking_id"`
	WarehouseID   string    `json:"warehouse_id"`
	RenterID      string    `json:"renter_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	DurationUnits int       `json:"duration_units"`
	Quantity      float64   `json:"quantity"`
	Unit          string    `json:"unit"`
	TotalAmount   int64     `json:"total_amount"`
	PlatformFee   int64     `json:"platform_fee"`
	OwnerAmount   int64     `json:"owner_amount"`
	AmountDue     int64     `json:"amount_due"`
	Currency      string    `json:"currency"`
}

func viewOf(b *domainbooking.Booking) BookingView {
	return BookingView{
		BookingID:     string(b.ID),
		WarehouseID:   string(b.WarehouseID),
		RenterID:      b.RenterID,
		Status:        string(b.Status),
		PaymentStatus: string(b.Payment.Status),
		StartDate:     b.Window.Start,
		EndDate:       b.Window.End,
		DurationUnits: b.DurationUnits,
		Quantity:      b.Demand.Quantity,
		Unit:          b.Demand.Unit,
		TotalAmount:   b.Pricing.Total.Amount,
		PlatformFee:   b.Pricing.PlatformFee.Amount,
		OwnerAmount:   b.Pricing.OwnerAmount.Amount,
		AmountDue:     b.Payment.AmountDue.Amount,
		Currency:      b.Pricing.Total.Currency,
	}
}
