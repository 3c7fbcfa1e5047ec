package availability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/availability"
	"agristore/internal/domain/booking"
	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

var testNow = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func activeWarehouse(t *testing.T, total float64) *warehouse.Warehouse {
	t.Helper()
	w, err := warehouse.New(warehouse.CreateParams{
		ID:    "wh-1",
		Owner: "owner-1",
		Name:  "Test Silo",
		Rates: warehouse.RateCard{
			BaseRate:   money.Must(5000, "INR"),
			RateUnit:   daterange.UnitDay,
			FeeRateBps: 500,
		},
		Capacity:    warehouse.Capacity{Total: total, Available: total, Unit: "ton"},
		MinDuration: 1,
		Now:         testNow,
	})
	require.NoError(t, err)
	require.NoError(t, w.Activate(testNow))
	require.NoError(t, w.MarkVerified(testNow))
	return w
}

func bookingFor(t *testing.T, w *warehouse.Warehouse, start, end time.Time, qty float64) *booking.Booking {
	t.Helper()
	window, err := daterange.New(start, end)
	require.NoError(t, err)
	quote, err := pricing.Compute(w.Rates, window, qty)
	require.NoError(t, err)
	b, err := booking.New(booking.CreateParams{
		ID:          booking.NewID(testNow),
		RenterID:    "renter-x",
		WarehouseID: w.ID,
		OwnerID:     w.Owner,
		Window:      window,
		Demand:      booking.Demand{Quantity: qty, Unit: "ton"},
		Quote:       quote,
		CreatedAt:   testNow,
	})
	require.NoError(t, err)
	return b
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

func TestCheckEmptyWarehouseIsAvailable(t *testing.T) {
	w := activeWarehouse(t, 500)

	res, err := availability.Check(w, nil, window(t, day(10), day(14)), 200, "ton")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 500.0, res.RemainingCapacity)
	assert.Empty(t, res.Conflicts)
}

func TestCheckSubtractsOverlappingHolds(t *testing.T) {
	w := activeWarehouse(t, 500)
	existing := []*booking.Booking{
		bookingFor(t, w, day(8), day(12), 300),
	}

	res, err := availability.Check(w, existing, window(t, day(10), day(14)), 200, "ton")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 200.0, res.RemainingCapacity)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, 300.0, res.Conflicts[0].Quantity)

	res, err = availability.Check(w, existing, window(t, day(10), day(14)), 201, "ton")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "remaining")
}

func TestCheckHalfOpenAdjacentBookingsDoNotConflict(t *testing.T) {
	w := activeWarehouse(t, 100)
	existing := []*booking.Booking{
		bookingFor(t, w, day(1), day(10), 100),
	}

	res, err := availability.Check(w, existing, window(t, day(10), day(14)), 100, "ton")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Conflicts)
}

func TestCheckIgnoresTerminalBookings(t *testing.T) {
	w := activeWarehouse(t, 100)
	cancelled := bookingFor(t, w, day(10), day(14), 100)
	_, err := cancelled.Cancel("renter-x", time.Hour, testNow)
	require.NoError(t, err)

	res, err := availability.Check(w, []*booking.Booking{cancelled}, window(t, day(10), day(14)), 100, "ton")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Conflicts)
}

func TestCheckDurationBounds(t *testing.T) {
	w := activeWarehouse(t, 100)
	w.MinDuration = 3
	w.MaxDuration = 10

	res, err := availability.Check(w, nil, window(t, day(1), day(3)), 10, "ton")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "below minimum")

	res, err = availability.Check(w, nil, window(t, day(1), day(15)), 10, "ton")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "above maximum")
}

func TestCheckRejectsInvalidInputs(t *testing.T) {
	w := activeWarehouse(t, 100)

	_, err := availability.Check(w, nil, daterange.DateRange{Start: day(5), End: day(1)}, 10, "ton")
	assert.ErrorIs(t, err, availability.ErrInvalidWindow)

	_, err = availability.Check(w, nil, window(t, day(1), day(5)), 0, "ton")
	assert.ErrorIs(t, err, availability.ErrInvalidQuantity)

	_, err = availability.Check(w, nil, window(t, day(1), day(5)), 10, "kg")
	assert.ErrorIs(t, err, availability.ErrUnitMismatch)
}

func TestCheckUnbookableWarehouse(t *testing.T) {
	w := activeWarehouse(t, 100)
	require.NoError(t, w.Suspend("inspection", testNow))

	_, err := availability.Check(w, nil, window(t, day(1), day(5)), 10, "ton")
	assert.ErrorIs(t, err, warehouse.ErrNotBookable)
}
