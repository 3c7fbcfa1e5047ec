package booking

import (
	"time"

	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

type BookingCreated struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	RenterID    string
	Window      daterange.DateRange
	Quantity    float64
	Total       money.Money
	At          time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type PaymentVerified struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	PaymentRef  string
	Amount      money.Money
	At          time.Time
}

func (e PaymentVerified) EventName() string     { return "booking.payment_verified" }
func (e PaymentVerified) AggregateID() string   { return string(e.BookingID) }
func (e PaymentVerified) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	ApprovedBy  string
	At          time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	RejectedBy  string
	Reason      string
	At          time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	CancelledBy string
	Refund      money.Money
	At          time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingRefunded struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	Amount      money.Money
	At          time.Time
}

func (e BookingRefunded) EventName() string     { return "booking.refunded" }
func (e BookingRefunded) AggregateID() string   { return string(e.BookingID) }
func (e BookingRefunded) OccurredAt() time.Time { return e.At }

type BookingActivated struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	At          time.Time
}

func (e BookingActivated) EventName() string     { return "booking.activated" }
func (e BookingActivated) AggregateID() string   { return string(e.BookingID) }
func (e BookingActivated) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	At          time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingReconciled struct {
	BookingID   BookingID
	WarehouseID warehouse.WarehouseID
	Total       money.Money
	At          time.Time
}

func (e BookingReconciled) EventName() string     { return "booking.reconciled" }
func (e BookingReconciled) AggregateID() string   { return string(e.BookingID) }
func (e BookingReconciled) OccurredAt() time.Time { return e.At }
