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
	"agristore/internal/domain/availability"
	domainbooking "agristore/internal/domain/booking"
	"agristore/internal/domain/pricing"
	domainrange "agristore/internal/domain/shared/daterange"
	domainwarehouse "agristore/internal/domain/warehouse"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID       string
	RenterID        string
	WarehouseID     string
	StartDate       time.Time
	EndDate         time.Time
	Quantity        float64
	Unit            string
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingView
	OrderRef   string `json:"order_ref,omitempty"`
	OrderError string `json:"order_error,omitempty"`
}

// CreateBookingHandler validates availability, computes the quote and
// persists a new PENDING booking. Requesting a payment-provider order
// reference is best-effort: failure to obtain one is surfaced in the result
// but does not abort creation, the booking stays payable later.
type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentGateway
	Notifier   policies.Notifier
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	var result *CreateBookingResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		now := h.now()

		window, err := domainrange.New(cmd.StartDate, cmd.EndDate)
		if err != nil {
			return err
		}

		wh, err := unit.Warehouses().ByID(ctx, domainwarehouse.WarehouseID(cmd.WarehouseID))
		if err != nil {
			return err
		}
		existing, err := unit.Bookings().ListByWarehouse(ctx, wh.ID)
		if err != nil {
			return err
		}
		check, err := availability.Check(wh, existing, window, cmd.Quantity, cmd.Unit)
		if err != nil {
			return err
		}
		if !check.Available {
			return fmt.Errorf("%w: %s", ErrUnavailable, check.Reason)
		}

		quote, err := pricing.Compute(wh.Rates, window, cmd.Quantity)
		if err != nil {
			return err
		}

		unitOfMeasure := cmd.Unit
		if unitOfMeasure == "" {
			unitOfMeasure = wh.Capacity.Unit
		}
		b, err := domainbooking.New(domainbooking.CreateParams{
			ID:          domainbooking.NewID(now),
			RenterID:    cmd.RenterID,
			WarehouseID: wh.ID,
			OwnerID:     wh.Owner,
			Window:      window,
			Demand:      domainbooking.Demand{Quantity: cmd.Quantity, Unit: unitOfMeasure},
			Quote:       quote,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		result = &CreateBookingResult{}
		if h.Payments != nil {
			orderRef, orderErr := h.Payments.CreateOrder(ctx, quote.Total, string(b.ID))
			if orderErr != nil {
				if h.Logger != nil {
					h.Logger.Warn("payment order creation failed, booking stays payable", "booking_id", b.ID, "error", orderErr)
				}
				result.OrderError = orderErr.Error()
			} else {
				b.AttachOrderRef(orderRef, now)
				result.OrderRef = orderRef
			}
		}

		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, h.encoder(), b); err != nil {
			return err
		}
		result.BookingView = viewOf(b)
		notify(ctx, h.Notifier, h.Logger, "booking-created", result.BookingView)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
