package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrange "agristore/internal/domain/shared/daterange"
	domainwarehouse "agristore/internal/domain/warehouse"
)

type WarehouseRepository struct {
	col *mongo.Collection
}

func NewWarehouseRepository(db *mongo.Database) *WarehouseRepository {
	return &WarehouseRepository{col: db.Collection("agg_warehouse")}
}

func (r *WarehouseRepository) ByID(ctx context.Context, id domainwarehouse.WarehouseID) (*domainwarehouse.Warehouse, error) {
	var doc warehouseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainwarehouse.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *WarehouseRepository) Save(ctx context.Context, w *domainwarehouse.Warehouse) error {
	doc := newWarehouseDocument(w)
	filter := bson.M{"_id": doc.ID, "version": w.Version}
	doc.Version = w.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainwarehouse.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainwarehouse.ErrConcurrentUpdate
	}
	w.Version = doc.Version
	return nil
}

type warehouseDocument struct {
	ID           string           `bson:"_id"`
	OwnerID      string           `bson:"owner_id"`
	Name         string           `bson:"name"`
	Location     string           `bson:"location"`
	Rates        rateCardDocument `bson:"rates"`
	Capacity     capacityDocument `bson:"capacity"`
	MinDuration  int              `bson:"min_duration"`
	MaxDuration  int              `bson:"max_duration"`
	Status       string           `bson:"status"`
	Verification string           `bson:"verification"`
	CreatedAt    int64            `bson:"created_at"`
	UpdatedAt    int64            `bson:"updated_at"`
	Version      int64            `bson:"version"`
}

type rateCardDocument struct {
	BaseRate   moneyDocument `bson:"base_rate"`
	RateUnit   string        `bson:"rate_unit"`
	FeeRateBps int64         `bson:"fee_rate_bps"`
}

type capacityDocument struct {
	Total     float64 `bson:"total"`
	Available float64 `bson:"available"`
	Unit      string  `bson:"unit"`
}

func newWarehouseDocument(w *domainwarehouse.Warehouse) warehouseDocument {
	return warehouseDocument{
		ID:       string(w.ID),
		OwnerID:  string(w.Owner),
		Name:     w.Name,
		Location: w.Location,
		Rates: rateCardDocument{
			BaseRate:   newMoneyDocument(w.Rates.BaseRate),
			RateUnit:   string(w.Rates.RateUnit),
			FeeRateBps: w.Rates.FeeRateBps,
		},
		Capacity: capacityDocument{
			Total:     w.Capacity.Total,
			Available: w.Capacity.Available,
			Unit:      w.Capacity.Unit,
		},
		MinDuration:  w.MinDuration,
		MaxDuration:  w.MaxDuration,
		Status:       string(w.Status),
		Verification: string(w.Verification),
		CreatedAt:    w.CreatedAt.UnixMilli(),
		UpdatedAt:    w.UpdatedAt.UnixMilli(),
		Version:      w.Version,
	}
}

func (d warehouseDocument) toAggregate() *domainwarehouse.Warehouse {
	return &domainwarehouse.Warehouse{
		ID:       domainwarehouse.WarehouseID(d.ID),
		Owner:    domainwarehouse.OwnerID(d.OwnerID),
		Name:     d.Name,
		Location: d.Location,
		Rates: domainwarehouse.RateCard{
			BaseRate:   d.Rates.BaseRate.toMoney(),
			RateUnit:   domainrange.UnitKind(d.Rates.RateUnit),
			FeeRateBps: d.Rates.FeeRateBps,
		},
		Capacity: domainwarehouse.Capacity{
			Total:     d.Capacity.Total,
			Available: d.Capacity.Available,
			Unit:      d.Capacity.Unit,
		},
		MinDuration:  d.MinDuration,
		MaxDuration:  d.MaxDuration,
		Status:       domainwarehouse.Status(d.Status),
		Verification: domainwarehouse.VerificationStatus(d.Verification),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}
