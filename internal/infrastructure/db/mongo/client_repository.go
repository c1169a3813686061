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

type ClientRepository struct {
	col *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	return &ClientRepository{col: db.Collection(clientsCollection)}
}

type clientDoc struct {
	ID       string `bson:"_id"`
	Name     string `bson:"name"`
	TaxID    string `bson:"tax_id"`
	UserID   string `bson:"user_id"`
	auditDoc `bson:",inline"`
}

func (d clientDoc) toDomain() *domain.Client {
	return &domain.Client{
		ID:     d.ID,
		Name:   d.Name,
		TaxID:  d.TaxID,
		UserID: d.UserID,
		Audit:  d.auditDoc.toDomain(),
	}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := clientDoc{
		ID:       client.ID,
		Name:     client.Name,
		TaxID:    client.TaxID,
		UserID:   client.UserID,
		auditDoc: newAuditDoc(client.Audit),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		switch {
		case duplicateOn(err, "user_id_unique"):
			return nil, domain.ErrClientExists
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrTaxIDExists
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ClientRepository) FindByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"tax_id": taxID})
}

func (r *ClientRepository) FindByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *ClientRepository) List(ctx context.Context, page domain.PageRequest) ([]*domain.Client, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	var docs []clientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode clients: %w", err)
	}

	clients := make([]*domain.Client, 0, len(docs))
	for _, d := range docs {
		clients = append(clients, d.toDomain())
	}
	return clients, total, nil
}

func (r *ClientRepository) findOne(ctx context.Context, filter bson.M) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc clientDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return doc.toDomain(), nil
}
