package warehouse

import "time"

type WarehouseCreated struct {
	WarehouseID WarehouseID
	OwnerID     OwnerID
	At          time.Time
}

func (e WarehouseCreated) EventName() string     { return "warehouse.created" }
func (e WarehouseCreated) AggregateID() string   { return string(e.WarehouseID) }
func (e WarehouseCreated) OccurredAt() time.Time { return e.At }

type WarehouseActivated struct {
	WarehouseID WarehouseID
	At          time.Time
}

func (e WarehouseActivated) EventName() string     { return "warehouse.activated" }
func (e WarehouseActivated) AggregateID() string   { return string(e.WarehouseID) }
func (e WarehouseActivated) OccurredAt() time.Time { return e.At }

type WarehouseSuspended struct {
	WarehouseID WarehouseID
	Reason      string
	At          time.Time
}

func (e WarehouseSuspended) EventName() string     { return "warehouse.suspended" }
func (e WarehouseSuspended) AggregateID() string   { return string(e.WarehouseID) }
func (e WarehouseSuspended) OccurredAt() time.Time { return e.At }

type WarehouseVerified struct {
	WarehouseID WarehouseID
	At          time.Time
}

func (e WarehouseVerified) EventName() string     { return "warehouse.verified" }
func (e WarehouseVerified) AggregateID() string   { return string(e.WarehouseID) }
func (e WarehouseVerified) OccurredAt() time.Time { return e.At }

type WarehouseVerificationRejected struct {
	WarehouseID WarehouseID
	Reason      string
	At          time.Time
}

func (e WarehouseVerificationRejected) EventName() string     { return "warehouse.verification_rejected" }
func (e WarehouseVerificationRejected) AggregateID() string   { return string(e.WarehouseID) }
func (e WarehouseVerificationRejected) OccurredAt() time.Time { return e.At }

type CapacityReserved struct {
	WarehouseID WarehouseID
	Quantity    float64
	Unit        string
	Remaining   float64
	At          time.Time
}

func (e CapacityReserved) EventName() string     { return "warehouse.capacity_reserved" }
func (e CapacityReserved) AggregateID() string   { return string(e.WarehouseID) }
func (e CapacityReserved) OccurredAt() time.Time { return e.At }

type CapacityReleased struct {
	WarehouseID WarehouseID
	Quantity    float64
	Unit        string
	Remaining   float64
	At          time.Time
}

func (e CapacityReleased) EventName() string     { return "warehouse.capacity_released" }
func (e CapacityReleased) AggregateID() string   { return string(e.WarehouseID) }
func (e CapacityReleased) OccurredAt() time.Time { return e.At }
