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
	domainwarehouse "agristore/internal/domain/warehouse"
)

const approveBookingKey = "booking.approve"

type ApproveBookingCommand struct {
	BookingID string
	ActorID   string
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

type ApproveBookingResult struct {
	BookingView
}

// ApproveBookingHandler applies the owner's approval. Concurrent approve
// calls are serialized by the repository's version check: exactly one
// succeeds, the loser gets a conflict error.
type ApproveBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ApproveBookingHandler) Handle(ctx context.Context, cmd ApproveBookingCommand) (*ApproveBookingResult, error) {
	var result *ApproveBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.Approve(domainwarehouse.OwnerID(cmd.ActorID), h.now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result = &ApproveBookingResult{BookingView: viewOf(b)}
		notify(ctx, h.Notifier, h.Logger, "approved", result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ApproveBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ApproveBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ApproveBookingCommand, *ApproveBookingResult] = (*ApproveBookingHandler)(nil)
