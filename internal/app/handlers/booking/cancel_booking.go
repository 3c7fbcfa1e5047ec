package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agristore/internal/app/commands"
	"agristore/internal/app/middleware"
	"agristore/internal/app/outbox"
	"agristore/internal/app/policies"
	"agristore/internal/app/uow"
	domainbooking "agristore/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID       string
	ActorID         string
	IdempotencyKeyV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CancelBookingCommand) ResultPrototype() any { return &CancelBookingResult{} }

type CancelBookingResult struct {
	BookingView
	RefundAmount  int64  `json:"refund_amount"`
	RefundPercent int64  `json:"refund_percent"`
	RefundRef     string `json:"refund_ref,omitempty"`
}

// CancelBookingHandler performs the renter-initiated cancellation with the
// tiered refund schedule. The provider refund is issued before the
// transition is applied, so a timed-out gateway call leaves the booking in
// its pre-call state and the command can be retried idempotently.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentGateway
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Grace      time.Duration
	Now        func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	var result *CancelBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		now := h.now()

		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if cmd.ActorID != b.RenterID {
			return domainbooking.ErrNotRenter
		}
		preview, err := b.PreviewCancel(h.Grace, now)
		if err != nil {
			return err
		}

		result = &CancelBookingResult{}
		wasPaid := b.Payment.Status == domainbooking.PaymentPaid
		if wasPaid && preview.RefundAmount.IsPositive() {
			if h.Payments == nil {
				return ErrPaymentProvider
			}
			refundRef, refundErr := h.Payments.CreateRefund(ctx, b.Payment.ProviderPaymentRef, preview.RefundAmount, map[string]string{
				"booking_id": string(b.ID),
				"reason":     "cancelled-by-renter",
			})
			if refundErr != nil {
				return fmt.Errorf("%w: %w", ErrPaymentProvider, refundErr)
			}
			result.RefundRef = refundRef
		}

		rec, err := b.Cancel(cmd.ActorID, h.Grace, now)
		if err != nil {
			return err
		}
		if wasPaid && rec.RefundAmount.IsPositive() {
			if err := b.MarkRefunded(rec.RefundAmount, now); err != nil {
				return err
			}
		}
		if wasPaid {
			h.releaseCapacity(ctx, unit, b, now)
		}

		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result.BookingView = viewOf(b)
		result.RefundAmount = rec.RefundAmount.Amount
		result.RefundPercent = rec.RefundPercent
		notify(ctx, h.Notifier, h.Logger, "cancelled", result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *CancelBookingHandler) releaseCapacity(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) {
	wh, err := unit.Warehouses().ByID(ctx, b.WarehouseID)
	if err == nil {
		if err = wh.ReleaseCapacity(b.Demand.Quantity, b.Demand.Unit, now); err == nil {
			err = unit.Warehouses().Save(ctx, wh)
		}
	}
	if err != nil && h.Logger != nil {
		h.Logger.Warn("capacity release failed", "booking_id", b.ID, "warehouse_id", b.WarehouseID, "error", err)
	}
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CancelBookingCommand)(nil)
