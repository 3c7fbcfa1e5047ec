package memory

import (
	"context"
	"errors"

	"agristore/internal/app/uow"
	domainbooking "agristore/internal/domain/booking"
	domainwarehouse "agristore/internal/domain/warehouse"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	WarehouseRepo domainwarehouse.Repository
	BookingRepo   domainbooking.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.WarehouseRepo == nil || f.BookingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{warehouses: f.WarehouseRepo, bookings: f.BookingRepo}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	warehouses domainwarehouse.Repository
	bookings   domainbooking.Repository
}

func (u *Unit) Warehouses() domainwarehouse.Repository {
	return u.warehouses
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
