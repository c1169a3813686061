package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/demopark/parking-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const (
	usersCollection    = "users"
	clientsCollection  = "clients"
	spotsCollection    = "spots"
	sessionsCollection = "sessions"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the unique and lookup indexes of every collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
	}

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			unique("username_unique", bson.D{{Key: "username", Value: 1}}),
		},
		clientsCollection: {
			unique("tax_id_unique", bson.D{{Key: "tax_id", Value: 1}}),
			unique("user_id_unique", bson.D{{Key: "user_id", Value: 1}}),
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		spotsCollection: {
			unique("code_unique", bson.D{{Key: "code", Value: 1}}),
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "code", Value: 1}}},
		},
		sessionsCollection: {
			unique("receipt_unique", bson.D{{Key: "receipt", Value: 1}}),
			{
				// at most one open session per spot
				Keys: bson.D{{Key: "spot_id", Value: 1}},
				Options: options.Index().
					SetName("open_spot_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"open": true}),
			},
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "entry_time", Value: -1}}},
			{Keys: bson.D{{Key: "client_tax_id", Value: 1}, {Key: "open", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// duplicateOn reports whether err is a duplicate key error raised by index.
func duplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}

type auditDoc struct {
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	CreatedBy string    `bson:"created_by"`
	UpdatedBy string    `bson:"updated_by"`
}

func newAuditDoc(a domain.Audit) auditDoc {
	return auditDoc{CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt, CreatedBy: a.CreatedBy, UpdatedBy: a.UpdatedBy}
}

func (a auditDoc) toDomain() domain.Audit {
	return domain.Audit{CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt, CreatedBy: a.CreatedBy, UpdatedBy: a.UpdatedBy}
}
