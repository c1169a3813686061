package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/demopark/parking-api/internal/core/domain"
)

type SpotRepository struct {
	col *mongo.Collection
}

func NewSpotRepository(db *mongo.Database) *SpotRepository {
	return &SpotRepository{col: db.Collection(spotsCollection)}
}

type spotDoc struct {
	ID          string `bson:"_id"`
	Code        string `bson:"code"`
	Status      string `bson:"status"`
	Description string `bson:"description"`
	Version     int64  `bson:"version"`
	auditDoc    `bson:",inline"`
}

func (d spotDoc) toDomain() *domain.ParkingSpot {
	return &domain.ParkingSpot{
		ID:          d.ID,
		Code:        d.Code,
		Status:      domain.SpotStatus(d.Status),
		Description: d.Description,
		Audit:       d.auditDoc.toDomain(),
	}
}

func (r *SpotRepository) Create(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := spotDoc{
		ID:          spot.ID,
		Code:        spot.Code,
		Status:      string(spot.Status),
		Description: spot.Description,
		auditDoc:    newAuditDoc(spot.Audit),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSpotCodeExists
		}
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SpotRepository) FindByCode(ctx context.Context, code string) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc spotDoc
	if err := r.col.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSpotNotFound
		}
		return nil, fmt.Errorf("find spot: %w", err)
	}
	return doc.toDomain(), nil
}

// FindOneFree bumps the version of the first free spot. Inside a transaction
// the write claims the document, so a concurrent check-in touching the same
// spot hits a write conflict and is retried against the next free one.
func (r *SpotRepository) FindOneFree(ctx context.Context) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "code", Value: 1}}).
		SetReturnDocument(options.After)

	var doc spotDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"status": string(domain.SpotFree)},
		bson.M{"$inc": bson.M{"version": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoFreeSpot
		}
		return nil, fmt.Errorf("find free spot: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SpotRepository) Save(ctx context.Context, spot *domain.ParkingSpot) (*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":      string(spot.Status),
			"description": spot.Description,
			"updated_at":  spot.UpdatedAt,
			"updated_by":  spot.UpdatedBy,
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc spotDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": spot.ID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSpotNotFound
		}
		return nil, fmt.Errorf("save spot: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SpotRepository) List(ctx context.Context, status domain.SpotStatus) ([]*domain.ParkingSpot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "code", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	var docs []spotDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode spots: %w", err)
	}

	spots := make([]*domain.ParkingSpot, 0, len(docs))
	for _, d := range docs {
		spots = append(spots, d.toDomain())
	}
	return spots, nil
}
