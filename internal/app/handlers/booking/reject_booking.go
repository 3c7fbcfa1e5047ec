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

const rejectBookingKey = "booking.reject"

type RejectBookingCommand struct {
	BookingID string
	ActorID   string
	Reason    string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type RejectBookingResult struct {
	BookingView
	RefundRef   string `json:"refund_ref,omitempty"`
	RefundError string `json:"refund_error,omitempty"`
}

// RejectBookingHandler applies the owner's rejection and issues a
// refund-in-full for a captured payment. Reject is final: a failed refund
// leg is logged and surfaced in the result for operational retry, but the
// booking still transitions to REJECTED.
type RejectBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentGateway
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*RejectBookingResult, error) {
	var result *RejectBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		now := h.now()

		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		wasPaid := b.Payment.Status == domainbooking.PaymentPaid
		if err := b.Reject(domainwarehouse.OwnerID(cmd.ActorID), cmd.Reason, now); err != nil {
			return err
		}

		result = &RejectBookingResult{}
		if wasPaid && h.Payments != nil {
			refundRef, refundErr := h.Payments.CreateRefund(ctx, b.Payment.ProviderPaymentRef, b.Pricing.Total, map[string]string{
				"booking_id": string(b.ID),
				"reason":     "rejected-by-owner",
			})
			if refundErr != nil {
				if h.Logger != nil {
					h.Logger.Error("refund on reject failed, needs operational retry", "booking_id", b.ID, "error", refundErr)
				}
				result.RefundError = refundErr.Error()
			} else {
				result.RefundRef = refundRef
				if err := b.MarkRefunded(b.Pricing.Total, now); err != nil {
					return err
				}
			}
			h.releaseCapacity(ctx, unit, b, now)
		}

		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result.BookingView = viewOf(b)
		notify(ctx, h.Notifier, h.Logger, "rejected", result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// releaseCapacity returns the capacity held since payment confirmation.
// Best-effort, mirroring the confirm-time decrement.
func (h *RejectBookingHandler) releaseCapacity(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) {
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

func (h *RejectBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RejectBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RejectBookingCommand, *RejectBookingResult] = (*RejectBookingHandler)(nil)
