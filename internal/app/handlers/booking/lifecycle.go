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

const (
	activateBookingKey = "booking.activate"
	completeBookingKey = "booking.complete"
)

// ActivateBookingCommand marks an approved booking as in progress once its
// window has started. System/administrative transition.
type ActivateBookingCommand struct {
	BookingID string
}

func (c ActivateBookingCommand) Key() string { return activateBookingKey }

// CompleteBookingCommand finalizes an approved or active booking after its
// window ends. System/administrative transition, no refund implications.
type CompleteBookingCommand struct {
	BookingID string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type LifecycleResult struct {
	BookingView
}

type LifecycleHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *LifecycleHandler) HandleActivate(ctx context.Context, cmd ActivateBookingCommand) (*LifecycleResult, error) {
	return h.apply(ctx, cmd.BookingID, "activated", func(b *domainbooking.Booking, now time.Time) error {
		return b.Activate(now)
	})
}

func (h *LifecycleHandler) HandleComplete(ctx context.Context, cmd CompleteBookingCommand) (*LifecycleResult, error) {
	return h.apply(ctx, cmd.BookingID, "completed", func(b *domainbooking.Booking, now time.Time) error {
		return b.Complete(now)
	})
}

func (h *LifecycleHandler) apply(ctx context.Context, id string, event string, transition func(*domainbooking.Booking, time.Time) error) (*LifecycleResult, error) {
	var result *LifecycleResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
		if err != nil {
			return err
		}
		if err := transition(b, h.now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result = &LifecycleResult{BookingView: viewOf(b)}
		notify(ctx, h.Notifier, h.Logger, event, result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *LifecycleHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *LifecycleHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ActivateBookingCommand, *LifecycleResult] = commands.HandlerFunc[ActivateBookingCommand, *LifecycleResult]((&LifecycleHandler{}).HandleActivate)
var _ commands.Handler[CompleteBookingCommand, *LifecycleResult] = commands.HandlerFunc[CompleteBookingCommand, *LifecycleResult]((&LifecycleHandler{}).HandleComplete)
