package ports

import "context"

// IdempotencyRecord is what a check-in Idempotency-Key resolves to: the
// receipt it produced and the client it was issued for.
type IdempotencyRecord struct {
	Receipt string `json:"receipt"`
	TaxID   string `json:"tax_id"`
}

// IdempotencyStore remembers which check-in an Idempotency-Key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (rec IdempotencyRecord, found bool, err error)
	Remember(ctx context.Context, key string, rec IdempotencyRecord) error
}
