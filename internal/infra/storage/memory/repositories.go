package memory

import (
	"context"
	"sync"

	domainbooking "agristore/internal/domain/booking"
	"agristore/internal/domain/shared/events"
	domainwarehouse "agristore/internal/domain/warehouse"
)

// WarehouseRepository is an in-memory implementation for dev and tests. It
// mirrors the Mongo repository's optimistic-version semantics so handler
// tests exercise the same conflict paths.
type WarehouseRepository struct {
	mu    sync.RWMutex
	items map[domainwarehouse.WarehouseID]*domainwarehouse.Warehouse
}

func NewWarehouseRepository() *WarehouseRepository {
	return &WarehouseRepository{items: make(map[domainwarehouse.WarehouseID]*domainwarehouse.Warehouse)}
}

func (r *WarehouseRepository) ByID(ctx context.Context, id domainwarehouse.WarehouseID) (*domainwarehouse.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.items[id]
	if !ok {
		return nil, domainwarehouse.ErrNotFound
	}
	return cloneWarehouse(w), nil
}

func (r *WarehouseRepository) Save(ctx context.Context, w *domainwarehouse.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[w.ID]; ok && stored.Version != w.Version {
		return domainwarehouse.ErrConcurrentUpdate
	}
	w.Version++
	r.items[w.ID] = cloneWarehouse(w)
	return nil
}

// Seed stores a warehouse without bumping its version, for fixtures.
func (r *WarehouseRepository) Seed(w *domainwarehouse.Warehouse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[w.ID] = cloneWarehouse(w)
}

func cloneWarehouse(w *domainwarehouse.Warehouse) *domainwarehouse.Warehouse {
	cp := *w
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

// BookingRepository keeps bookings in memory with the same version checks.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[b.ID]; ok && stored.Version != b.Version {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.RenterID == renterID {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func (r *BookingRepository) ListByWarehouse(ctx context.Context, id domainwarehouse.WarehouseID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.WarehouseID == id {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out, nil
}

func sortBookings(bs []*domainbooking.Booking) {
	for i := 1; i < len(bs); i++ {
		for j := i; j > 0 && bs[j].CreatedAt.Before(bs[j-1].CreatedAt); j-- {
			bs[j], bs[j-1] = bs[j-1], bs[j]
		}
	}
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	if b.Cancellation != nil {
		c := *b.Cancellation
		cp.Cancellation = &c
	}
	return &cp
}

var _ domainwarehouse.Repository = (*WarehouseRepository)(nil)
var _ domainbooking.Repository = (*BookingRepository)(nil)
