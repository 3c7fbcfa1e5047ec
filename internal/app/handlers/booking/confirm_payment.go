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

const confirmPaymentKey = "booking.confirm_payment"

type ConfirmPaymentCommand struct {
	BookingID       string
	PaymentRef      string
	Signature       string
	IdempotencyKeyV string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ConfirmPaymentCommand) ResultPrototype() any { return &ConfirmPaymentResult{} }

type ConfirmPaymentResult struct {
	BookingView
	CapacityReserved bool `json:"capacity_reserved"`
}

// ConfirmPaymentHandler verifies the signed payment assertion with the
// gateway and advances the booking to AWAITING_APPROVAL. Verification is a
// required step: the transition only happens on explicit success. The
// warehouse capacity decrement is best-effort; a failure there is logged and
// reconciled operationally, it never rolls back a captured payment.
type ConfirmPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentGateway
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	var result *ConfirmPaymentResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		now := h.now()

		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if b.Status != domainbooking.StatusPending {
			return domainbooking.ErrInvalidState
		}

		if h.Payments == nil {
			return ErrPaymentProvider
		}
		ok, err := h.Payments.VerifyPayment(ctx, b.Payment.ProviderOrderRef, cmd.PaymentRef, cmd.Signature)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentProvider, err)
		}
		if !ok {
			return policies.ErrVerificationFailed
		}

		if err := b.ConfirmPayment(cmd.PaymentRef, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}

		result = &ConfirmPaymentResult{}
		result.CapacityReserved = h.reserveCapacity(ctx, unit, b, now)

		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result.BookingView = viewOf(b)
		notify(ctx, h.Notifier, h.Logger, "payment-verified", result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reserveCapacity applies the capacity-decrement side effect. Any failure is
// logged and swallowed: the availability read at quote time is advisory and
// this decrement is the safety boundary, but a missed decrement is an
// accepted eventual-consistency window, fixed by reconciliation tooling.
func (h *ConfirmPaymentHandler) reserveCapacity(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) bool {
	wh, err := unit.Warehouses().ByID(ctx, b.WarehouseID)
	if err != nil {
		h.warn("capacity decrement skipped: warehouse load failed", b, err)
		return false
	}
	if err := wh.ReserveCapacity(b.Demand.Quantity, b.Demand.Unit, now); err != nil {
		h.warn("capacity decrement failed", b, err)
		return false
	}
	if err := unit.Warehouses().Save(ctx, wh); err != nil {
		h.warn("capacity decrement not persisted", b, err)
		return false
	}
	return true
}

func (h *ConfirmPaymentHandler) warn(msg string, b *domainbooking.Booking, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "booking_id", b.ID, "warehouse_id", b.WarehouseID, "error", err)
	}
}

func (h *ConfirmPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ConfirmPaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*ConfirmPaymentCommand)(nil)
