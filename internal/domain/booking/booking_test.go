package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/booking"
	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

var (
	testNow   = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	testRates = warehouse.RateCard{
		BaseRate:   money.Must(5000, "INR"),
		RateUnit:   daterange.UnitDay,
		FeeRateBps: 500,
	}
)

func newTestBooking(t *testing.T, start, end time.Time) *booking.Booking {
	t.Helper()
	window, err := daterange.New(start, end)
	require.NoError(t, err)
	quote, err := pricing.Compute(testRates, window, 100)
	require.NoError(t, err)
	b, err := booking.New(booking.CreateParams{
		ID:          booking.NewID(testNow),
		RenterID:    "renter-1",
		WarehouseID: "wh-1",
		OwnerID:     "owner-1",
		Window:      window,
		Demand:      booking.Demand{Quantity: 100, Unit: "ton"},
		Quote:       quote,
		CreatedAt:   testNow,
	})
	require.NoError(t, err)
	return b
}

func paidTestBooking(t *testing.T, start, end time.Time) *booking.Booking {
	t.Helper()
	b := newTestBooking(t, start, end)
	require.NoError(t, b.ConfirmPayment("pay_1", testNow))
	return b
}

func TestNewStartsPendingAndUnpaid(t *testing.T) {
	b := newTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, booking.PaymentPending, b.Payment.Status)
	assert.Equal(t, b.Pricing.Total, b.Payment.AmountDue)
	assert.Equal(t, 4, b.DurationUnits)

	evs := b.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "booking.created", evs[0].EventName())
}

func TestNewRequiresRenterAndQuantity(t *testing.T) {
	window, err := daterange.New(testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	require.NoError(t, err)
	quote, err := pricing.Compute(testRates, window, 100)
	require.NoError(t, err)

	_, err = booking.New(booking.CreateParams{
		ID: "b1", WarehouseID: "wh-1", OwnerID: "owner-1",
		Window: window, Demand: booking.Demand{Quantity: 100, Unit: "ton"},
		Quote: quote, CreatedAt: testNow,
	})
	assert.ErrorIs(t, err, booking.ErrRenterRequired)

	_, err = booking.New(booking.CreateParams{
		ID: "b1", RenterID: "renter-1", WarehouseID: "wh-1", OwnerID: "owner-1",
		Window: window, Demand: booking.Demand{Quantity: 0, Unit: "ton"},
		Quote: quote, CreatedAt: testNow,
	})
	assert.ErrorIs(t, err, booking.ErrInvalidQuantity)
}

func TestConfirmPaymentAdvancesToAwaitingApproval(t *testing.T) {
	b := newTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	require.NoError(t, b.ConfirmPayment("pay_1", testNow))
	assert.Equal(t, booking.StatusAwaitingApproval, b.Status)
	assert.Equal(t, booking.PaymentPaid, b.Payment.Status)
	assert.True(t, b.Payment.AmountDue.IsZero())
	assert.Equal(t, "pay_1", b.Payment.ProviderPaymentRef)

	// a second confirmation must not double-transition
	assert.ErrorIs(t, b.ConfirmPayment("pay_2", testNow), booking.ErrInvalidState)
}

func TestApproveOnlyByOwnerFromAwaitingApproval(t *testing.T) {
	b := paidTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	assert.ErrorIs(t, b.Approve("someone-else", testNow), booking.ErrNotOwner)

	require.NoError(t, b.Approve("owner-1", testNow))
	assert.Equal(t, booking.StatusApproved, b.Status)

	assert.ErrorIs(t, b.Approve("owner-1", testNow), booking.ErrInvalidState)
}

func TestApproveRequiresPayment(t *testing.T) {
	b := newTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
	assert.ErrorIs(t, b.Approve("owner-1", testNow), booking.ErrInvalidState)
}

func TestRejectIsTerminal(t *testing.T) {
	b := paidTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))

	require.NoError(t, b.Reject("owner-1", "maintenance window", testNow))
	assert.Equal(t, booking.StatusRejected, b.Status)
	assert.True(t, b.Status.Terminal())
	assert.False(t, b.Status.HoldsCapacity())

	assert.ErrorIs(t, b.Approve("owner-1", testNow), booking.ErrInvalidState)
	_, err := b.Cancel("renter-1", 0, testNow)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
}

func TestMarkRefundedFullAndPartial(t *testing.T) {
	t.Run("full refund", func(t *testing.T) {
		b := paidTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
		require.NoError(t, b.MarkRefunded(b.Pricing.Total, testNow))
		assert.Equal(t, booking.PaymentRefunded, b.Payment.Status)
	})
	t.Run("partial refund keeps remainder due", func(t *testing.T) {
		b := paidTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
		half := money.Must(b.Pricing.Total.Amount/2, "INR")
		require.NoError(t, b.MarkRefunded(half, testNow))
		assert.Equal(t, booking.PaymentPartiallyRefunded, b.Payment.Status)
		assert.Equal(t, b.Pricing.Total.Amount-half.Amount, b.Payment.AmountDue.Amount)
	})
	t.Run("unpaid booking cannot be refunded", func(t *testing.T) {
		b := newTestBooking(t, testNow.AddDate(0, 0, 10), testNow.AddDate(0, 0, 14))
		assert.ErrorIs(t, b.MarkRefunded(b.Pricing.Total, testNow), booking.ErrNotPaid)
	})
}

func TestActivateAndComplete(t *testing.T) {
	start := testNow.AddDate(0, 0, 10)
	end := testNow.AddDate(0, 0, 14)
	b := paidTestBooking(t, start, end)
	require.NoError(t, b.Approve("owner-1", testNow))

	assert.ErrorIs(t, b.Activate(start.Add(-time.Hour)), booking.ErrNotStarted)
	require.NoError(t, b.Activate(start.Add(time.Hour)))
	assert.Equal(t, booking.StatusActive, b.Status)
	assert.True(t, b.Status.HoldsCapacity())

	assert.ErrorIs(t, b.Complete(end), booking.ErrNotEnded)
	require.NoError(t, b.Complete(end.Add(time.Minute)))
	assert.Equal(t, booking.StatusCompleted, b.Status)
}

func TestCompleteDirectlyFromApproved(t *testing.T) {
	start := testNow.AddDate(0, 0, 10)
	end := testNow.AddDate(0, 0, 14)
	b := paidTestBooking(t, start, end)
	require.NoError(t, b.Approve("owner-1", testNow))

	require.NoError(t, b.Complete(end.Add(time.Hour)))
	assert.Equal(t, booking.StatusCompleted, b.Status)
}

func TestCancelRecordsRefundDecision(t *testing.T) {
	start := testNow.AddDate(0, 0, 10)
	b := paidTestBooking(t, start, testNow.AddDate(0, 0, 14))

	_, err := b.Cancel("not-the-renter", 0, testNow)
	assert.ErrorIs(t, err, booking.ErrNotRenter)

	rec, err := b.Cancel("renter-1", 0, testNow)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, rec.RefundPercent, b.Cancellation.RefundPercent)

	_, err = b.Cancel("renter-1", 0, testNow)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
}

func TestNewIDFormat(t *testing.T) {
	id := booking.NewID(testNow)
	assert.Regexp(t, `^WB-20260401-[A-Z0-9]{6}$`, string(id))
}
