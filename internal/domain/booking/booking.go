package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"agristore/internal/domain/pricing"
	"agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/events"
	"agristore/internal/domain/shared/money"
	"agristore/internal/domain/warehouse"
)

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrInvalidQuantity = errors.New("booking: quantity must be positive")
	ErrRenterRequired  = errors.New("booking: renter id required")
	ErrNotOwner        = errors.New("booking: caller is not the warehouse owner")
	ErrNotRenter       = errors.New("booking: caller is not the renter")
	ErrNotPaid         = errors.New("booking: payment has not been captured")
	ErrAlreadyPaid     = errors.New("booking: payment already captured")
	ErrNotStarted      = errors.New("booking: window has not started yet")
	ErrNotEnded        = errors.New("booking: window has not ended yet")
	// ErrConcurrentUpdate reports a lost optimistic-version race on save.
	ErrConcurrentUpdate = errors.New("booking: concurrent update detected")
)

type BookingID string

type Status string

const (
	StatusPending          Status = "PENDING"
	StatusAwaitingApproval Status = "AWAITING_APPROVAL"
	StatusApproved         Status = "APPROVED"
	StatusActive           Status = "ACTIVE"
	StatusCompleted        Status = "COMPLETED"
	StatusRejected         Status = "REJECTED"
	StatusCancelled        Status = "CANCELLED"
)

// Terminal reports whether the booking can never transition again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HoldsCapacity reports whether a booking in this status still reserves
// warehouse capacity and therefore conflicts with overlapping requests.
func (s Status) HoldsCapacity() bool {
	switch s {
	case StatusPending, StatusAwaitingApproval, StatusApproved, StatusActive:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Payment tracks the provider-side references and the amount the renter
// still owes. AmountDue is zero exactly when the payment is captured.
type Payment struct {
	Status             PaymentStatus
	ProviderOrderRef   string
	ProviderPaymentRef string
	PaidAt             time.Time
	AmountDue          money.Money
}

type Approval struct {
	ApprovedBy warehouse.OwnerID
	ApprovedAt time.Time
	RejectedBy warehouse.OwnerID
	RejectedAt time.Time
	Reason     string
}

// Cancellation records the computed refund decision at cancel time.
type Cancellation struct {
	CancelledBy     string
	CancelledAt     time.Time
	DaysBeforeStart int
	RefundPercent   int64
	RefundAmount    money.Money
}

// Demand is the requested quantity in the warehouse's unit of measure.
type Demand struct {
	Quantity float64
	Unit     string
}

type Booking struct {
	ID            BookingID
	RenterID      string
	WarehouseID   warehouse.WarehouseID
	OwnerID       warehouse.OwnerID
	Window        daterange.DateRange
	DurationUnits int
	Demand        Demand
	Pricing       pricing.Quote
	Payment       Payment
	Status        Status
	Approval      Approval
	Cancellation  *Cancellation
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByWarehouse(ctx context.Context, id warehouse.WarehouseID) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	RenterID    string
	WarehouseID warehouse.WarehouseID
	OwnerID     warehouse.OwnerID
	Window      daterange.DateRange
	Demand      Demand
	Quote       pricing.Quote
	CreatedAt   time.Time
}

// New creates a booking in PENDING with an unpaid payment record. The quote
// must already be validated; a zero total is rejected here as a last line of
// defense against partially computed pricing.
func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.RenterID) == "" {
		return nil, ErrRenterRequired
	}
	if params.Demand.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	if err := params.Quote.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:            params.ID,
		RenterID:      params.RenterID,
		WarehouseID:   params.WarehouseID,
		OwnerID:       params.OwnerID,
		Window:        params.Window,
		DurationUnits: params.Quote.DurationUnits,
		Demand:        params.Demand,
		Pricing:       params.Quote,
		Payment: Payment{
			Status:    PaymentPending,
			AmountDue: params.Quote.Total,
		},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingCreated{
		BookingID:   b.ID,
		WarehouseID: b.WarehouseID,
		RenterID:    b.RenterID,
		Window:      b.Window,
		Quantity:    b.Demand.Quantity,
		Total:       b.Pricing.Total,
		At:          now,
	})
	return b, nil
}

// AttachOrderRef stores the payment-provider order reference. Obtaining one
// is best-effort at creation time; a booking without it stays payable later.
func (b *Booking) AttachOrderRef(orderRef string, now time.Time) {
	if orderRef == "" {
		return
	}
	b.Payment.ProviderOrderRef = orderRef
	b.UpdatedAt = now.UTC()
}

// ConfirmPayment advances PENDING -> AWAITING_APPROVAL once the gateway has
// verified the payment signature. The caller performs the verification; this
// method only applies the already-proven outcome.
func (b *Booking) ConfirmPayment(providerPaymentRef string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if b.Payment.Status != PaymentPending {
		return ErrAlreadyPaid
	}
	b.Payment.Status = PaymentPaid
	b.Payment.ProviderPaymentRef = providerPaymentRef
	b.Payment.PaidAt = now.UTC()
	b.Payment.AmountDue = money.Money{Amount: 0, Currency: b.Pricing.Total.Currency}
	b.Status = StatusAwaitingApproval
	b.UpdatedAt = now.UTC()
	b.Record(PaymentVerified{BookingID: b.ID, WarehouseID: b.WarehouseID, PaymentRef: providerPaymentRef, Amount: b.Pricing.Total, At: b.UpdatedAt})
	return nil
}

// Approve moves AWAITING_APPROVAL -> APPROVED. Only the warehouse owner may
// approve.
func (b *Booking) Approve(by warehouse.OwnerID, now time.Time) error {
	if by != b.OwnerID {
		return ErrNotOwner
	}
	if b.Status != StatusAwaitingApproval {
		return ErrInvalidState
	}
	b.Status = StatusApproved
	b.Approval.ApprovedBy = by
	b.Approval.ApprovedAt = now.UTC()
	b.UpdatedAt = now.UTC()
	b.Record(BookingApproved{BookingID: b.ID, WarehouseID: b.WarehouseID, ApprovedBy: string(by), At: b.UpdatedAt})
	return nil
}

// Reject moves AWAITING_APPROVAL -> REJECTED. Reject is final even when the
// refund leg fails; the refund is recorded separately via MarkRefunded.
func (b *Booking) Reject(by warehouse.OwnerID, reason string, now time.Time) error {
	if by != b.OwnerID {
		return ErrNotOwner
	}
	if b.Status != StatusAwaitingApproval {
		return ErrInvalidState
	}
	b.Status = StatusRejected
	b.Approval.RejectedBy = by
	b.Approval.RejectedAt = now.UTC()
	b.Approval.Reason = reason
	b.UpdatedAt = now.UTC()
	b.Record(BookingRejected{BookingID: b.ID, WarehouseID: b.WarehouseID, RejectedBy: string(by), Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel is the renter-initiated exit from PENDING, AWAITING_APPROVAL or
// APPROVED. Eligibility and the tiered refund are computed by PreviewCancel;
// the caller executes the refund against the gateway before applying this
// transition so a timed-out provider call leaves the booking untouched.
func (b *Booking) Cancel(by string, grace time.Duration, now time.Time) (Cancellation, error) {
	if by != b.RenterID {
		return Cancellation{}, ErrNotRenter
	}
	preview, err := b.PreviewCancel(grace, now)
	if err != nil {
		return Cancellation{}, err
	}
	preview.CancelledBy = by
	rec := preview
	b.Cancellation = &rec
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{
		BookingID:   b.ID,
		WarehouseID: b.WarehouseID,
		CancelledBy: by,
		Refund:      rec.RefundAmount,
		At:          b.UpdatedAt,
	})
	return rec, nil
}

// MarkRefunded records the outcome of a provider refund on a captured
// payment. A refund of the full total moves the payment to REFUNDED; a
// smaller one to PARTIALLY_REFUNDED with the non-refunded remainder kept as
// the amount due.
func (b *Booking) MarkRefunded(amount money.Money, now time.Time) error {
	if b.Payment.Status != PaymentPaid {
		return ErrNotPaid
	}
	if amount.Currency != b.Pricing.Total.Currency {
		return money.ErrCurrencyMismatch
	}
	if amount.Amount >= b.Pricing.Total.Amount {
		b.Payment.Status = PaymentRefunded
		b.Payment.AmountDue = b.Pricing.Total
	} else {
		remainder, err := b.Pricing.Total.Sub(amount)
		if err != nil {
			return err
		}
		b.Payment.Status = PaymentPartiallyRefunded
		b.Payment.AmountDue = remainder
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingRefunded{BookingID: b.ID, WarehouseID: b.WarehouseID, Amount: amount, At: b.UpdatedAt})
	return nil
}

// Activate moves APPROVED -> ACTIVE once the storage window has begun.
func (b *Booking) Activate(now time.Time) error {
	if b.Status != StatusApproved {
		return ErrInvalidState
	}
	if now.UTC().Before(b.Window.Start) {
		return ErrNotStarted
	}
	b.Status = StatusActive
	b.UpdatedAt = now.UTC()
	b.Record(BookingActivated{BookingID: b.ID, WarehouseID: b.WarehouseID, At: b.UpdatedAt})
	return nil
}

// Complete finalizes an APPROVED or ACTIVE booking after its window ends.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusApproved && b.Status != StatusActive {
		return ErrInvalidState
	}
	if !now.UTC().After(b.Window.End) {
		return ErrNotEnded
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, WarehouseID: b.WarehouseID, At: b.UpdatedAt})
	return nil
}
