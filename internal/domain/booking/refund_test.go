package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/booking"
)

func TestRefundPercentTiers(t *testing.T) {
	cases := []struct {
		days int
		want int64
	}{
		{45, 100},
		{31, 100},
		{30, 80},
		{15, 80},
		{8, 80},
		{7, 50},
		{5, 50},
		{1, 50},
		{0, 0},
		{-2, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, booking.RefundPercentFor(tc.days), "days=%d", tc.days)
	}
}

func TestPreviewCancelComputesTieredRefund(t *testing.T) {
	cases := []struct {
		name        string
		daysBefore  int
		wantPercent int64
	}{
		{"far out gets full refund", 45, 100},
		{"inside a month gets eighty", 20, 80},
		{"last week gets half", 5, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := testNow.AddDate(0, 0, tc.daysBefore)
			b := paidTestBooking(t, start, start.AddDate(0, 0, 4))

			preview, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow)
			require.NoError(t, err)
			assert.Equal(t, tc.daysBefore, preview.DaysBeforeStart)
			assert.Equal(t, tc.wantPercent, preview.RefundPercent)

			// refund is a whole number of currency units
			assert.Zero(t, preview.RefundAmount.Amount%100)
			want := b.Pricing.Total.Percent(tc.wantPercent)
			assert.InDelta(t, want.Amount, preview.RefundAmount.Amount, 50)

			// preview must not mutate
			assert.Equal(t, booking.StatusAwaitingApproval, b.Status)
			assert.Nil(t, b.Cancellation)
		})
	}
}

func TestPreviewCancelInsideGraceWindow(t *testing.T) {
	start := testNow.Add(12 * time.Hour)
	b := paidTestBooking(t, start, start.AddDate(0, 0, 4))

	_, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
}

func TestPreviewCancelGraceBoundary(t *testing.T) {
	start := testNow.Add(24 * time.Hour)
	b := paidTestBooking(t, start, start.AddDate(0, 0, 4))

	// exactly at the grace cutoff is too late
	_, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)

	// one second earlier is allowed
	preview, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(50), preview.RefundPercent)
}

func TestPreviewCancelUnpaidBookingRefundsNothing(t *testing.T) {
	start := testNow.AddDate(0, 0, 10)
	b := newTestBooking(t, start, start.AddDate(0, 0, 4))

	preview, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(80), preview.RefundPercent)
	assert.True(t, preview.RefundAmount.IsZero())
}

func TestPreviewCancelCustomGrace(t *testing.T) {
	start := testNow.Add(36 * time.Hour)
	b := paidTestBooking(t, start, start.AddDate(0, 0, 4))

	// default 24h grace allows it
	_, err := b.PreviewCancel(booking.DefaultCancelGrace, testNow)
	require.NoError(t, err)

	// a stricter 48h policy blocks it
	_, err = b.PreviewCancel(48*time.Hour, testNow)
	assert.ErrorIs(t, err, booking.ErrNotCancellable)
}
