package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/shared/money"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := money.New(1500, "inr")
	require.NoError(t, err)
	assert.Equal(t, "INR", m.Currency)
	assert.Equal(t, int64(1500), m.Amount)

	_, err = money.New(100, "rupees")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestAddSubRejectMixedCurrencies(t *testing.T) {
	inr := money.Must(100, "INR")
	usd := money.Must(100, "USD")

	_, err := inr.Add(usd)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
	_, err = inr.Sub(usd)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	sum, err := inr.Add(money.Must(50, "INR"))
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount)
}

func TestBasisPointsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"exact", 2000000, 500, 100000},
		{"rounds up at half", 10, 500, 1},       // 0.5 -> 1
		{"rounds down below half", 9, 500, 0},   // 0.45 -> 0
		{"tiny fee", 1, 1, 0},                   // 0.0001 -> 0
		{"full percent", 12345, 100, 123},       // 123.45 -> 123
		{"half boundary", 12350, 100, 124},      // 123.5 -> 124
		{"zero bps", 99999, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee := money.Must(tc.amount, "INR").BasisPoints(tc.bps)
			assert.Equal(t, tc.want, fee.Amount)
			assert.Equal(t, "INR", fee.Currency)
		})
	}
}

func TestPercent(t *testing.T) {
	m := money.Must(1000, "INR")
	assert.Equal(t, int64(500), m.Percent(50).Amount)
	assert.Equal(t, int64(800), m.Percent(80).Amount)
	assert.Equal(t, int64(0), m.Percent(0).Amount)

	// 333 * 50% = 166.5 rounds up
	assert.Equal(t, int64(167), money.Must(333, "INR").Percent(50).Amount)
}
