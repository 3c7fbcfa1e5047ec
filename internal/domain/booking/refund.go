package booking

import (
	"errors"
	"math"
	"time"

	"agristore/internal/domain/shared/money"
)

var ErrNotCancellable = errors.New("booking: not cancellable")

// DefaultCancelGrace is the minimum lead time before the window starts for a
// renter-initiated cancellation.
const DefaultCancelGrace = 24 * time.Hour

// RefundPercentFor returns the tiered refund percentage for a cancellation
// the given number of days before the window starts: full refund beyond 30
// days, 80% within 30, 50% within 7, nothing once the window has started.
func RefundPercentFor(daysBeforeStart int) int64 {
	switch {
	case daysBeforeStart > 30:
		return 100
	case daysBeforeStart > 7:
		return 80
	case daysBeforeStart > 0:
		return 50
	default:
		return 0
	}
}

// PreviewCancel computes cancellation eligibility and the refund that would
// be issued, without mutating the booking. The refund is rounded half up to
// the nearest whole currency unit.
func (b *Booking) PreviewCancel(grace time.Duration, now time.Time) (Cancellation, error) {
	switch b.Status {
	case StatusPending, StatusAwaitingApproval, StatusApproved:
	default:
		return Cancellation{}, ErrNotCancellable
	}
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	now = now.UTC()
	if !now.Before(b.Window.Start.Add(-grace)) {
		return Cancellation{}, ErrNotCancellable
	}

	days := int(math.Floor(b.Window.Start.Sub(now).Hours() / 24))
	percent := RefundPercentFor(days)
	refund := money.Money{Amount: 0, Currency: b.Pricing.Total.Currency}
	if b.Payment.Status == PaymentPaid && percent > 0 {
		refund = roundToCurrencyUnit(b.Pricing.Total.Percent(percent))
	}
	return Cancellation{
		CancelledAt:     now,
		DaysBeforeStart: days,
		RefundPercent:   percent,
		RefundAmount:    refund,
	}, nil
}

// roundToCurrencyUnit rounds a minor-unit amount to the nearest whole
// currency unit (100 minor units), the granularity refunds are issued in.
func roundToCurrencyUnit(m money.Money) money.Money {
	const minorPerUnit = 100
	units := (m.Amount + minorPerUnit/2) / minorPerUnit
	return money.Money{Amount: units * minorPerUnit, Currency: m.Currency}
}
