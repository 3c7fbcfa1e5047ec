package warehouse

import (
	"context"
	"errors"
	"strings"
	"time"

	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/events"
	"agristore/internal/domain/shared/money"
)

var (
	ErrNotFound          = errors.New("warehouse: not found")
	ErrNameRequired      = errors.New("warehouse: name is required")
	ErrOwnerRequired     = errors.New("warehouse: owner is required")
	ErrInvalidState      = errors.New("warehouse: invalid state transition")
	ErrInvalidRateCard   = errors.New("warehouse: rate card must have a positive base rate and fee rate below 100%")
	ErrInvalidCapacity   = errors.New("warehouse: available capacity cannot exceed total capacity")
	ErrCapacityExceeded  = errors.New("warehouse: not enough available capacity")
	ErrDurationBounds    = errors.New("warehouse: min booking duration must be <= max booking duration")
	ErrCapacityUnitMixed = errors.New("warehouse: capacity unit does not match demand unit")
	ErrNotBookable       = errors.New("warehouse: not bookable")
	// ErrConcurrentUpdate reports a lost optimistic-version race on save.
	ErrConcurrentUpdate = errors.New("warehouse: concurrent update detected")
)

type WarehouseID string
type OwnerID string

type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusActive      Status = "ACTIVE"
	StatusInactive    Status = "INACTIVE"
	StatusMaintenance Status = "MAINTENANCE"
	StatusSuspended   Status = "SUSPENDED"
)

// VerificationStatus is tracked independently of the operational status;
// a warehouse can be active but still waiting for platform verification.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// RateCard holds the pricing inputs for a warehouse. FeeRateBps is the
// platform cut in basis points (500 = 5%).
type RateCard struct {
	BaseRate   money.Money
	RateUnit   daterange.UnitKind
	FeeRateBps int64
}

// Validate reports whether the rate card can produce a quote. A zero or
// negative base rate must fail loudly, never price a booking at zero.
func (rc RateCard) Validate() error {
	if !rc.BaseRate.IsPositive() || rc.BaseRate.Currency == "" {
		return ErrInvalidRateCard
	}
	if rc.FeeRateBps < 0 || rc.FeeRateBps >= 10000 {
		return ErrInvalidRateCard
	}
	if rc.RateUnit == "" {
		return ErrInvalidRateCard
	}
	return nil
}

// Capacity tracks storable volume in a single unit of measure.
type Capacity struct {
	Total     float64
	Available float64
	Unit      string
}

func (c Capacity) Validate() error {
	if c.Total < 0 || c.Available < 0 || c.Available > c.Total {
		return ErrInvalidCapacity
	}
	return nil
}

type Warehouse struct {
	ID           WarehouseID
	Owner        OwnerID
	Name         string
	Location     string
	Rates        RateCard
	Capacity     Capacity
	MinDuration  int
	MaxDuration  int
	Status       Status
	Verification VerificationStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id WarehouseID) (*Warehouse, error)
	Save(ctx context.Context, w *Warehouse) error
}

type CreateParams struct {
	ID          WarehouseID
	Owner       OwnerID
	Name        string
	Location    string
	Rates       RateCard
	Capacity    Capacity
	MinDuration int
	MaxDuration int
	Now         time.Time
}

func New(params CreateParams) (*Warehouse, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("warehouse: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if err := params.Rates.Validate(); err != nil {
		return nil, err
	}
	if err := params.Capacity.Validate(); err != nil {
		return nil, err
	}
	if params.MinDuration < 0 || (params.MaxDuration > 0 && params.MinDuration > params.MaxDuration) {
		return nil, ErrDurationBounds
	}
	now := params.Now.UTC()
	w := &Warehouse{
		ID:           params.ID,
		Owner:        params.Owner,
		Name:         strings.TrimSpace(params.Name),
		Location:     strings.TrimSpace(params.Location),
		Rates:        params.Rates,
		Capacity:     params.Capacity,
		MinDuration:  params.MinDuration,
		MaxDuration:  params.MaxDuration,
		Status:       StatusDraft,
		Verification: VerificationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	w.Record(WarehouseCreated{WarehouseID: w.ID, OwnerID: w.Owner, At: now})
	return w, nil
}

// Bookable reports whether the warehouse may accept new bookings. Only an
// active, verified warehouse with a valid rate card qualifies.
func (w *Warehouse) Bookable() error {
	if w.Status != StatusActive || w.Verification != VerificationVerified {
		return ErrNotBookable
	}
	if err := w.Rates.Validate(); err != nil {
		return err
	}
	return nil
}

func (w *Warehouse) Activate(now time.Time) error {
	switch w.Status {
	case StatusActive:
		return nil
	case StatusDraft, StatusInactive, StatusMaintenance:
	default:
		return ErrInvalidState
	}
	if err := w.Rates.Validate(); err != nil {
		return err
	}
	w.Status = StatusActive
	w.UpdatedAt = now.UTC()
	w.Record(WarehouseActivated{WarehouseID: w.ID, At: w.UpdatedAt})
	return nil
}

func (w *Warehouse) Suspend(reason string, now time.Time) error {
	if w.Status != StatusActive && w.Status != StatusMaintenance {
		return ErrInvalidState
	}
	w.Status = StatusSuspended
	w.UpdatedAt = now.UTC()
	w.Record(WarehouseSuspended{WarehouseID: w.ID, Reason: reason, At: w.UpdatedAt})
	return nil
}

func (w *Warehouse) MarkVerified(now time.Time) error {
	if w.Verification == VerificationVerified {
		return nil
	}
	w.Verification = VerificationVerified
	w.UpdatedAt = now.UTC()
	w.Record(WarehouseVerified{WarehouseID: w.ID, At: w.UpdatedAt})
	return nil
}

func (w *Warehouse) RejectVerification(reason string, now time.Time) error {
	if w.Verification != VerificationPending {
		return ErrInvalidState
	}
	w.Verification = VerificationRejected
	w.UpdatedAt = now.UTC()
	w.Record(WarehouseVerificationRejected{WarehouseID: w.ID, Reason: reason, At: w.UpdatedAt})
	return nil
}

// ReserveCapacity decrements available capacity for a paid booking. The unit
// of measure must match the demand unit; mixing units is a data error, not a
// silent conversion.
func (w *Warehouse) ReserveCapacity(quantity float64, unit string, now time.Time) error {
	if !strings.EqualFold(w.Capacity.Unit, unit) {
		return ErrCapacityUnitMixed
	}
	if quantity <= 0 || quantity > w.Capacity.Available {
		return ErrCapacityExceeded
	}
	w.Capacity.Available -= quantity
	w.UpdatedAt = now.UTC()
	w.Record(CapacityReserved{WarehouseID: w.ID, Quantity: quantity, Unit: w.Capacity.Unit, Remaining: w.Capacity.Available, At: w.UpdatedAt})
	return nil
}

// ReleaseCapacity returns capacity held by a booking that left the
// capacity-holding set. The release is clamped at total so repeated releases
// cannot break the available <= total invariant.
func (w *Warehouse) ReleaseCapacity(quantity float64, unit string, now time.Time) error {
	if !strings.EqualFold(w.Capacity.Unit, unit) {
		return ErrCapacityUnitMixed
	}
	if quantity <= 0 {
		return ErrCapacityExceeded
	}
	w.Capacity.Available += quantity
	if w.Capacity.Available > w.Capacity.Total {
		w.Capacity.Available = w.Capacity.Total
	}
	w.UpdatedAt = now.UTC()
	w.Record(CapacityReleased{WarehouseID: w.ID, Quantity: quantity, Unit: w.Capacity.Unit, Remaining: w.Capacity.Available, At: w.UpdatedAt})
	return nil
}
