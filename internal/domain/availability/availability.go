package availability

import (
	"errors"
	"fmt"
	"strings"

	"agristore/internal/domain/booking"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/warehouse"
)

var (
	ErrInvalidWindow   = errors.New("availability: window end must be after start")
	ErrInvalidQuantity = errors.New("availability: quantity must be positive")
	ErrUnitMismatch    = errors.New("availability: demand unit does not match warehouse capacity unit")
)

// BookingRef identifies an existing reservation that conflicts with a
// requested window.
type BookingRef struct {
	BookingID booking.BookingID
	Window    daterange.DateRange
	Quantity  float64
	Status    booking.Status
}

type Result struct {
	Available         bool
	RemainingCapacity float64
	Conflicts         []BookingRef
	Reason            string
}

// Check decides whether a request fits the warehouse's remaining capacity
// over the given window. Only capacity-holding bookings conflict, and
// windows are half-open, so a booking ending exactly when another starts is
// not a conflict.
//
// The answer is advisory: under concurrent requests the authoritative guard
// is the transactional capacity decrement at payment confirmation, not this
// read.
func Check(w *warehouse.Warehouse, existing []*booking.Booking, window daterange.DateRange, quantity float64, unit string) (Result, error) {
	if err := window.Validate(); err != nil {
		return Result{}, ErrInvalidWindow
	}
	if quantity <= 0 {
		return Result{}, ErrInvalidQuantity
	}
	if err := w.Bookable(); err != nil {
		return Result{}, err
	}
	if unit != "" && !strings.EqualFold(unit, w.Capacity.Unit) {
		return Result{}, ErrUnitMismatch
	}

	units, err := window.Units(w.Rates.RateUnit)
	if err != nil {
		return Result{}, err
	}

	conflicts := make([]BookingRef, 0)
	var held float64
	for _, b := range existing {
		if !b.Status.HoldsCapacity() {
			continue
		}
		if !b.Window.Overlaps(window) {
			continue
		}
		conflicts = append(conflicts, BookingRef{
			BookingID: b.ID,
			Window:    b.Window,
			Quantity:  b.Demand.Quantity,
			Status:    b.Status,
		})
		held += b.Demand.Quantity
	}

	remaining := w.Capacity.Available - held
	res := Result{RemainingCapacity: remaining, Conflicts: conflicts}

	if units < w.MinDuration {
		res.Reason = fmt.Sprintf("duration %d below minimum of %d %s units", units, w.MinDuration, strings.ToLower(string(w.Rates.RateUnit)))
		return res, nil
	}
	if w.MaxDuration > 0 && units > w.MaxDuration {
		res.Reason = fmt.Sprintf("duration %d above maximum of %d %s units", units, w.MaxDuration, strings.ToLower(string(w.Rates.RateUnit)))
		return res, nil
	}
	if remaining < quantity {
		res.Reason = fmt.Sprintf("requested %.2f %s but only %.2f remaining over the window", quantity, w.Capacity.Unit, remaining)
		return res, nil
	}

	res.Available = true
	return res, nil
}
