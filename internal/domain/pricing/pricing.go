package pricing

import (
	"errors"
	"math"

	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

var (
	ErrInvalidWindow   = errors.New("pricing: booking window end must be after start")
	ErrInvalidQuantity = errors.New("pricing: quantity must be positive")
	ErrInvalidRateCard = errors.New("pricing: rate card cannot produce a quote")
	ErrSumMismatch     = errors.New("pricing: total does not equal owner amount plus platform fee")
)

// Quote is the monetary breakdown for a storage reservation. The invariant
// Total == OwnerAmount + PlatformFee holds exactly: the fee is rounded half
// up and the owner amount is derived by subtraction, never by a second
// multiplication.
type Quote struct {
	BaseRate      money.Money
	RateUnit      daterange.UnitKind
	DurationUnits int
	Quantity      float64
	Total         money.Money
	PlatformFee   money.Money
	OwnerAmount   money.Money
}

// Validate re-checks the sum invariant on a stored quote.
func (q Quote) Validate() error {
	if !q.Total.IsPositive() {
		return ErrInvalidRateCard
	}
	sum, err := q.OwnerAmount.Add(q.PlatformFee)
	if err != nil {
		return err
	}
	if sum != q.Total {
		return ErrSumMismatch
	}
	return nil
}

// Compute produces a quote from the rate card, window and quantity. Zero or
// missing inputs are errors, never silent zero totals.
func Compute(rates warehouse.RateCard, window daterange.DateRange, quantity float64) (Quote, error) {
	if err := window.Validate(); err != nil {
		return Quote{}, ErrInvalidWindow
	}
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return Quote{}, ErrInvalidQuantity
	}
	if err := rates.Validate(); err != nil {
		return Quote{}, ErrInvalidRateCard
	}
	units, err := window.Units(rates.RateUnit)
	if err != nil {
		return Quote{}, ErrInvalidRateCard
	}
	return ForUnits(rates, units, quantity)
}

// ForUnits prices a quote from an already-derived duration. The
// reconciliation service uses this path with the stored duration so a repair
// reproduces the original billing math.
func ForUnits(rates warehouse.RateCard, durationUnits int, quantity float64) (Quote, error) {
	if durationUnits < 1 {
		return Quote{}, ErrInvalidWindow
	}
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return Quote{}, ErrInvalidQuantity
	}
	if err := rates.Validate(); err != nil {
		return Quote{}, ErrInvalidRateCard
	}

	raw := float64(rates.BaseRate.Amount) * float64(durationUnits) * quantity
	total := money.Money{Amount: int64(math.Round(raw)), Currency: rates.BaseRate.Currency}
	if !total.IsPositive() {
		return Quote{}, ErrInvalidRateCard
	}
	fee := total.BasisPoints(rates.FeeRateBps)
	owner, err := total.Sub(fee)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		BaseRate:      rates.BaseRate,
		RateUnit:      rates.RateUnit,
		DurationUnits: durationUnits,
		Quantity:      quantity,
		Total:         total,
		PlatformFee:   fee,
		OwnerAmount:   owner,
	}, nil
}
