package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/guregu/null.v4"

	"github.com/demopark/parking-api/internal/core/domain"
)

type SessionRepository struct {
	col     *mongo.Collection
	clients *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		col:     db.Collection(sessionsCollection),
		clients: db.Collection(clientsCollection),
	}
}

// sessionDoc stores the client and spot by reference. ClientTaxID is
// denormalized for the loyalty count and Open backs the partial unique index
// on spot_id.
type sessionDoc struct {
	ID          string                `bson:"_id"`
	Receipt     string                `bson:"receipt"`
	Plate       string                `bson:"plate"`
	Make        string                `bson:"make"`
	Model       string                `bson:"model"`
	Color       string                `bson:"color"`
	EntryTime   time.Time             `bson:"entry_time"`
	ExitTime    *time.Time            `bson:"exit_time"`
	Fee         *primitive.Decimal128 `bson:"fee"`
	Discount    *primitive.Decimal128 `bson:"discount"`
	Open        bool                  `bson:"open"`
	ClientID    string                `bson:"client_id"`
	ClientTaxID string                `bson:"client_tax_id"`
	SpotID      string                `bson:"spot_id"`
	Version     int64                 `bson:"version"`
	auditDoc    `bson:",inline"`
}

// sessionView is a session joined with its client and spot.
type sessionView struct {
	sessionDoc `bson:",inline"`
	Client     clientDoc `bson:"client"`
	Spot       spotDoc   `bson:"spot"`
}

func (v sessionView) toDomain() (*domain.ParkingSession, error) {
	s := &domain.ParkingSession{
		ID:        v.ID,
		Receipt:   v.Receipt,
		Plate:     v.Plate,
		Make:      v.Make,
		Model:     v.Model,
		Color:     v.Color,
		EntryTime: v.EntryTime,
		ExitTime:  null.TimeFromPtr(v.ExitTime),
		Client:    v.Client.toDomain(),
		Spot:      v.Spot.toDomain(),
		Audit:     v.auditDoc.toDomain(),
	}
	var err error
	if s.Fee, err = fromDecimal128(v.Fee); err != nil {
		return nil, fmt.Errorf("decode fee: %w", err)
	}
	if s.Discount, err = fromDecimal128(v.Discount); err != nil {
		return nil, fmt.Errorf("decode discount: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sessionDoc{
		ID:          s.ID,
		Receipt:     s.Receipt,
		Plate:       s.Plate,
		Make:        s.Make,
		Model:       s.Model,
		Color:       s.Color,
		EntryTime:   s.EntryTime,
		Open:        true,
		ClientID:    s.Client.ID,
		ClientTaxID: s.Client.TaxID,
		SpotID:      s.Spot.ID,
		auditDoc:    newAuditDoc(s.Audit),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		switch {
		case duplicateOn(err, "open_spot_unique"):
			return nil, domain.ErrNoFreeSpot
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrReceiptConflict
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Update closes the session document only while it is still open.
func (r *SessionRepository) Update(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fee, err := toDecimal128(s.Fee)
	if err != nil {
		return nil, fmt.Errorf("encode fee: %w", err)
	}
	discount, err := toDecimal128(s.Discount)
	if err != nil {
		return nil, fmt.Errorf("encode discount: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"exit_time":  s.ExitTime.Ptr(),
			"fee":        fee,
			"discount":   discount,
			"open":       !s.ExitTime.Valid,
			"updated_at": s.UpdatedAt,
			"updated_by": s.UpdatedBy,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": s.ID, "open": true}, update)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// FindOpenByReceipt bumps the version of the open session so that a
// concurrent check-out of the same receipt conflicts inside its transaction.
func (r *SessionRepository) FindOpenByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error) {
	claimCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var claimed sessionDoc
	err := r.col.FindOneAndUpdate(claimCtx,
		bson.M{"receipt": receipt, "open": true},
		bson.M{"$inc": bson.M{"version": 1}},
	).Decode(&claimed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return r.findOne(ctx, bson.M{"_id": claimed.ID})
}

func (r *SessionRepository) FindByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error) {
	return r.findOne(ctx, bson.M{"receipt": receipt})
}

// CountClosedByClient bumps the client's version before counting. Inside a
// transaction two check-outs of the same client then write-conflict and the
// retried one counts the visit the other committed.
func (r *SessionRepository) CountClosedByClient(ctx context.Context, taxID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.clients.UpdateOne(ctx, bson.M{"tax_id": taxID}, bson.M{"$inc": bson.M{"version": 1}})
	if err != nil {
		return 0, fmt.Errorf("lock client: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, domain.ErrClientNotFound
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"client_tax_id": taxID, "open": false})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (r *SessionRepository) ListByClient(ctx context.Context, clientID string, page domain.PageRequest) ([]*domain.ParkingSession, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"client_id": clientID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	sessions, err := r.aggregate(ctx, filter,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "entry_time", Value: -1}, {Key: "receipt", Value: -1}}}},
		bson.D{{Key: "$skip", Value: int64(page.Offset())}},
		bson.D{{Key: "$limit", Value: int64(page.Size)}},
	)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *SessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sessions, err := r.aggregate(ctx, filter, bson.D{{Key: "$limit", Value: 1}})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return sessions[0], nil
}

// aggregate matches sessions, applies stages and joins client and spot.
func (r *SessionRepository) aggregate(ctx context.Context, match bson.M, stages ...bson.D) ([]*domain.ParkingSession, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, stages...)
	pipeline = append(pipeline,
		lookupStage(clientsCollection, "client_id", "client"),
		bson.D{{Key: "$unwind", Value: "$client"}},
		lookupStage(spotsCollection, "spot_id", "spot"),
		bson.D{{Key: "$unwind", Value: "$spot"}},
	)

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	var views []sessionView
	if err := cur.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}

	sessions := make([]*domain.ParkingSession, 0, len(views))
	for _, v := range views {
		s, err := v.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func toDecimal128(d decimal.NullDecimal) (*primitive.Decimal128, error) {
	if !d.Valid {
		return nil, nil
	}
	v, err := primitive.ParseDecimal128(d.Decimal.StringFixed(2))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fromDecimal128(v *primitive.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
