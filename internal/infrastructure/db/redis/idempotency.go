package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demopark/parking-api/internal/core/ports"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps check-in Idempotency-Key headers to the receipt and
// client tax ID they produced, stored as JSON.
// Key format: idempotency:checkin:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore whose entries expire after
// ttl, or after defaultIdempotencyTTL when ttl is not positive.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Lookup returns the check-in recorded for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (ports.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return ports.IdempotencyRecord{}, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return rec, true, nil
}

// Remember records rec for key. An existing entry is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, key string, rec ports.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	if err := s.client.SetNX(ctx, s.key(key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(key string) string {
	return "idempotency:checkin:" + key
}

func decodeRecord(raw []byte) (ports.IdempotencyRecord, error) {
	var rec ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	if rec.Receipt == "" {
		return rec, errors.New("decode record: missing receipt")
	}
	return rec, nil
}
