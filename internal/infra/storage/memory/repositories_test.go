package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
	"agristore/internal/infra/storage/memory"
)

func testWarehouse(t *testing.T) *warehouse.Warehouse {
	t.Helper()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	w, err := warehouse.New(warehouse.CreateParams{
		ID:    "wh-1",
		Owner: "owner-1",
		Name:  "Test Silo",
		Rates: warehouse.RateCard{
			BaseRate:   money.Must(5000, "INR"),
			RateUnit:   daterange.UnitDay,
			FeeRateBps: 500,
		},
		Capacity: warehouse.Capacity{Total: 500, Available: 500, Unit: "ton"},
		Now:      now,
	})
	require.NoError(t, err)
	return w
}

func TestWarehouseSaveDetectsVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewWarehouseRepository()
	repo.Seed(testWarehouse(t))

	a, err := repo.ByID(ctx, "wh-1")
	require.NoError(t, err)
	b, err := repo.ByID(ctx, "wh-1")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, a))
	assert.ErrorIs(t, repo.Save(ctx, b), warehouse.ErrConcurrentUpdate)
}

func TestByIDReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewWarehouseRepository()
	repo.Seed(testWarehouse(t))

	a, err := repo.ByID(ctx, "wh-1")
	require.NoError(t, err)
	a.Capacity.Available = 1

	fresh, err := repo.ByID(ctx, "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, fresh.Capacity.Available)
}

func TestByIDUnknownWarehouse(t *testing.T) {
	repo := memory.NewWarehouseRepository()
	_, err := repo.ByID(context.Background(), "nope")
	assert.ErrorIs(t, err, warehouse.ErrNotFound)
}
