package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "agristore/internal/domain/booking"
	domainpricing "agristore/internal/domain/pricing"
	domainrange "agristore/internal/domain/shared/daterange"
	"agristore/internal/domain/shared/money"
	domainwarehouse "agristore/internal/domain/warehouse"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"renter_id": renterID})
}

func (r *BookingRepository) ListByWarehouse(ctx context.Context, id domainwarehouse.WarehouseID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"warehouse_id": string(id)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID            string                `bson:"_id"`
	RenterID      string                `bson:"renter_id"`
	WarehouseID   string                `bson:"warehouse_id"`
	OwnerID       string                `bson:"owner_id"`
	Window        rangeDocument         `bson:"window"`
	DurationUnits int                   `bson:"duration_units"`
	Demand        demandDocument        `bson:"demand"`
	Pricing       quoteDocument         `bson:"pricing"`
	Payment       paymentDocument       `bson:"payment"`
	Status        string                `bson:"status"`
	Approval      approvalDocument      `bson:"approval"`
	Cancellation  *cancellationDocument `bson:"cancellation,omitempty"`
	CreatedAt     int64                 `bson:"created_at"`
	UpdatedAt     int64                 `bson:"updated_at"`
	Version       int64                 `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type demandDocument struct {
	Quantity float64 `bson:"quantity"`
	Unit     string  `bson:"unit"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type quoteDocument struct {
	BaseRate      moneyDocument `bson:"base_rate"`
	RateUnit      string        `bson:"rate_unit"`
	DurationUnits int           `bson:"duration_units"`
	Quantity      float64       `bson:"quantity"`
	Total         moneyDocument `bson:"total"`
	PlatformFee   moneyDocument `bson:"platform_fee"`
	OwnerAmount   moneyDocument `bson:"owner_amount"`
}

type paymentDocument struct {
	Status             string        `bson:"status"`
	ProviderOrderRef   string        `bson:"provider_order_ref,omitempty"`
	ProviderPaymentRef string        `bson:"provider_payment_ref,omitempty"`
	PaidAt             int64         `bson:"paid_at,omitempty"`
	AmountDue          moneyDocument `bson:"amount_due"`
}

type approvalDocument struct {
	ApprovedBy string `bson:"approved_by,omitempty"`
	ApprovedAt int64  `bson:"approved_at,omitempty"`
	RejectedBy string `bson:"rejected_by,omitempty"`
	RejectedAt int64  `bson:"rejected_at,omitempty"`
	Reason     string `bson:"reason,omitempty"`
}

type cancellationDocument struct {
	CancelledBy     string        `bson:"cancelled_by"`
	CancelledAt     int64         `bson:"cancelled_at"`
	DaysBeforeStart int           `bson:"days_before_start"`
	RefundPercent   int64         `bson:"refund_percent"`
	RefundAmount    moneyDocument `bson:"refund_amount"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:            string(b.ID),
		RenterID:      b.RenterID,
		WarehouseID:   string(b.WarehouseID),
		OwnerID:       string(b.OwnerID),
		Window:        rangeDocument{Start: b.Window.Start.UnixMilli(), End: b.Window.End.UnixMilli()},
		DurationUnits: b.DurationUnits,
		Demand:        demandDocument{Quantity: b.Demand.Quantity, Unit: b.Demand.Unit},
		Pricing:       newQuoteDocument(b.Pricing),
		Payment: paymentDocument{
			Status:             string(b.Payment.Status),
			ProviderOrderRef:   b.Payment.ProviderOrderRef,
			ProviderPaymentRef: b.Payment.ProviderPaymentRef,
			AmountDue:          newMoneyDocument(b.Payment.AmountDue),
		},
		Status: string(b.Status),
		Approval: approvalDocument{
			ApprovedBy: string(b.Approval.ApprovedBy),
			RejectedBy: string(b.Approval.RejectedBy),
			Reason:     b.Approval.Reason,
		},
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
	if !b.Payment.PaidAt.IsZero() {
		doc.Payment.PaidAt = b.Payment.PaidAt.UnixMilli()
	}
	if !b.Approval.ApprovedAt.IsZero() {
		doc.Approval.ApprovedAt = b.Approval.ApprovedAt.UnixMilli()
	}
	if !b.Approval.RejectedAt.IsZero() {
		doc.Approval.RejectedAt = b.Approval.RejectedAt.UnixMilli()
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			CancelledBy:     b.Cancellation.CancelledBy,
			CancelledAt:     b.Cancellation.CancelledAt.UnixMilli(),
			DaysBeforeStart: b.Cancellation.DaysBeforeStart,
			RefundPercent:   b.Cancellation.RefundPercent,
			RefundAmount:    newMoneyDocument(b.Cancellation.RefundAmount),
		}
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		RenterID:      d.RenterID,
		WarehouseID:   domainwarehouse.WarehouseID(d.WarehouseID),
		OwnerID:       domainwarehouse.OwnerID(d.OwnerID),
		Window:        domainrange.DateRange{Start: timestampToTime(d.Window.Start), End: timestampToTime(d.Window.End)},
		DurationUnits: d.DurationUnits,
		Demand:        domainbooking.Demand{Quantity: d.Demand.Quantity, Unit: d.Demand.Unit},
		Pricing:       d.Pricing.toQuote(),
		Payment: domainbooking.Payment{
			Status:             domainbooking.PaymentStatus(d.Payment.Status),
			ProviderOrderRef:   d.Payment.ProviderOrderRef,
			ProviderPaymentRef: d.Payment.ProviderPaymentRef,
			AmountDue:          d.Payment.AmountDue.toMoney(),
		},
		Status: domainbooking.Status(d.Status),
		Approval: domainbooking.Approval{
			ApprovedBy: domainwarehouse.OwnerID(d.Approval.ApprovedBy),
			RejectedBy: domainwarehouse.OwnerID(d.Approval.RejectedBy),
			Reason:     d.Approval.Reason,
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.Payment.PaidAt != 0 {
		b.Payment.PaidAt = timestampToTime(d.Payment.PaidAt)
	}
	if d.Approval.ApprovedAt != 0 {
		b.Approval.ApprovedAt = timestampToTime(d.Approval.ApprovedAt)
	}
	if d.Approval.RejectedAt != 0 {
		b.Approval.RejectedAt = timestampToTime(d.Approval.RejectedAt)
	}
	if d.Cancellation != nil {
		b.Cancellation = &domainbooking.Cancellation{
			CancelledBy:     d.Cancellation.CancelledBy,
			CancelledAt:     timestampToTime(d.Cancellation.CancelledAt),
			DaysBeforeStart: d.Cancellation.DaysBeforeStart,
			RefundPercent:   d.Cancellation.RefundPercent,
			RefundAmount:    d.Cancellation.RefundAmount.toMoney(),
		}
	}
	return b
}

func newQuoteDocument(q domainpricing.Quote) quoteDocument {
	return quoteDocument{
		BaseRate:      newMoneyDocument(q.BaseRate),
		RateUnit:      string(q.RateUnit),
		DurationUnits: q.DurationUnits,
		Quantity:      q.Quantity,
		Total:         newMoneyDocument(q.Total),
		PlatformFee:   newMoneyDocument(q.PlatformFee),
		OwnerAmount:   newMoneyDocument(q.OwnerAmount),
	}
}

func (d quoteDocument) toQuote() domainpricing.Quote {
	return domainpricing.Quote{
		BaseRate:      d.BaseRate.toMoney(),
		RateUnit:      domainrange.UnitKind(d.RateUnit),
		DurationUnits: d.DurationUnits,
		Quantity:      d.Quantity,
		Total:         d.Total.toMoney(),
		PlatformFee:   d.PlatformFee.toMoney(),
		OwnerAmount:   d.OwnerAmount.toMoney(),
	}
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
