package booking

import (
	"errors"
	"fmt"
	"time"

	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

// ErrUnrepairable marks a data-integrity failure: the booking's pricing is
// broken and the warehouse rate card cannot produce a replacement quote.
// Operators must fix the warehouse, not the booking.
var ErrUnrepairable = errors.New("booking: cannot reconcile against an invalid rate card")

// Reconcile repairs derived fields from their authoritative inputs: the
// stored window, quantity and the warehouse's current rate card. It only
// fills missing or zero pricing, never re-prices an established quote, and
// never moves status or payment status. Running it twice changes nothing the
// second time.
func (b *Booking) Reconcile(rates warehouse.RateCard, now time.Time) (bool, error) {
	changed := false

	units, err := b.Window.Units(rates.RateUnit)
	if err == nil && units != b.DurationUnits {
		b.DurationUnits = units
		changed = true
	}

	if b.Pricing.Total.Amount <= 0 {
		quote, err := pricing.ForUnits(rates, b.DurationUnits, b.Demand.Quantity)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrUnrepairable, err)
		}
		b.Pricing = quote
		changed = true
	}

	due := b.expectedAmountDue()
	if b.Payment.AmountDue != due {
		b.Payment.AmountDue = due
		changed = true
	}

	if changed {
		b.UpdatedAt = now.UTC()
		b.Record(BookingReconciled{BookingID: b.ID, WarehouseID: b.WarehouseID, Total: b.Pricing.Total, At: b.UpdatedAt})
	}
	return changed, nil
}

func (b *Booking) expectedAmountDue() money.Money {
	switch b.Payment.Status {
	case PaymentPaid:
		return money.Money{Amount: 0, Currency: b.Pricing.Total.Currency}
	case PaymentPartiallyRefunded:
		if b.Cancellation != nil {
			remainder, err := b.Pricing.Total.Sub(b.Cancellation.RefundAmount)
			if err == nil {
				return remainder
			}
		}
		return b.Payment.AmountDue
	default:
		return b.Pricing.Total
	}
}
