package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

func rates(base int64, unit daterange.UnitKind, bps int64) warehouse.RateCard {
	return warehouse.RateCard{
		BaseRate:   money.Must(base, "INR"),
		RateUnit:   unit,
		FeeRateBps: bps,
	}
}

func window(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	require.NoError(t, err)
	return dr
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDailyStorage(t *testing.T) {
	// 50 INR per day per ton, 4 days, 100 tons, 5% platform cut.
	quote, err := pricing.Compute(rates(5000, daterange.UnitDay, 500), window(t, day(1), day(5)), 100)
	require.NoError(t, err)

	assert.Equal(t, 4, quote.DurationUnits)
	assert.Equal(t, int64(2000000), quote.Total.Amount)
	assert.Equal(t, int64(100000), quote.PlatformFee.Amount)
	assert.Equal(t, int64(1900000), quote.OwnerAmount.Amount)
	assert.NoError(t, quote.Validate())
}

func TestComputePartialUnitBillsWholeUnit(t *testing.T) {
	// 4 days + 1 hour bills 5 days.
	quote, err := pricing.Compute(rates(5000, daterange.UnitDay, 500), window(t, day(1), day(5).Add(time.Hour)), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, quote.DurationUnits)
	assert.Equal(t, int64(250000), quote.Total.Amount)
}

func TestComputeSumInvariantAcrossFeeRates(t *testing.T) {
	// Amounts chosen so the fee rounds; the owner amount must always absorb
	// the rounding so the parts reconstruct the total exactly.
	for _, bps := range []int64{1, 33, 250, 775, 9999} {
		quote, err := pricing.Compute(rates(333, daterange.UnitDay, bps), window(t, day(1), day(4)), 7)
		require.NoError(t, err)
		sum, err := quote.OwnerAmount.Add(quote.PlatformFee)
		require.NoError(t, err)
		assert.Equal(t, quote.Total, sum, "bps=%d", bps)
	}
}

func TestComputeRejectsBadInputs(t *testing.T) {
	valid := rates(5000, daterange.UnitDay, 500)
	w := window(t, day(1), day(5))

	_, err := pricing.Compute(valid, daterange.DateRange{Start: day(5), End: day(1)}, 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidWindow)

	_, err = pricing.Compute(valid, w, 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = pricing.Compute(valid, w, -3)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuantity)

	_, err = pricing.Compute(rates(0, daterange.UnitDay, 500), w, 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidRateCard)

	_, err = pricing.Compute(rates(5000, daterange.UnitDay, 10000), w, 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidRateCard)
}

func TestForUnitsRejectsZeroDuration(t *testing.T) {
	_, err := pricing.ForUnits(rates(5000, daterange.UnitDay, 500), 0, 10)
	assert.ErrorIs(t, err, pricing.ErrInvalidWindow)
}

func TestQuoteValidateCatchesTampering(t *testing.T) {
	quote, err := pricing.Compute(rates(5000, daterange.UnitDay, 500), window(t, day(1), day(5)), 100)
	require.NoError(t, err)

	quote.PlatformFee.Amount++
	assert.ErrorIs(t, quote.Validate(), pricing.ErrSumMismatch)

	quote.PlatformFee.Amount--
	quote.Total = money.Money{Amount: 0, Currency: "INR"}
	assert.ErrorIs(t, quote.Validate(), pricing.ErrInvalidRateCard)
}
