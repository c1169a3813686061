package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demopark/parking-api/internal/core/domain"
)

const sessionSelect = `
	SELECT s.id, s.receipt, s.plate, s.make, s.model, s.color,
		s.entry_time, s.exit_time, s.fee, s.discount,
		s.created_at, s.updated_at, s.created_by, s.updated_by,
		c.id, c.name, c.tax_id, c.user_id,
		c.created_at, c.updated_at, c.created_by, c.updated_by,
		p.id, p.code, p.status, p.description,
		p.created_at, p.updated_at, p.created_by, p.updated_by
	FROM sessions s
	JOIN clients c ON c.id = s.client_id
	JOIN spots p ON p.id = s.spot_id`

// NO KEY UPDATE does not conflict with the KEY SHARE lock taken by session
// inserts referencing the client, so check-ins are not held up.
const lockClientQuery = `SELECT id FROM clients WHERE tax_id = $1 FOR NO KEY UPDATE`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO sessions (
			id, receipt, plate, make, model, color, entry_time,
			client_id, spot_id, created_at, updated_at, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		s.ID, s.Receipt, s.Plate, s.Make, s.Model, s.Color, s.EntryTime,
		s.Client.ID, s.Spot.ID, s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy,
	)
	if err != nil {
		if constraint, dup := violatedConstraint(err); dup {
			if constraint == "sessions_open_spot_idx" {
				return nil, domain.ErrNoFreeSpot
			}
			return nil, domain.ErrReceiptConflict
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s, nil
}

// Update writes the exit data. The exit_time guard makes a second close of
// the same session affect no rows.
func (r *SessionRepository) Update(ctx context.Context, s *domain.ParkingSession) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE sessions
		SET exit_time = $2, fee = $3, discount = $4, updated_at = $5, updated_by = $6
		WHERE id = $1 AND exit_time IS NULL`

	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		s.ID, s.ExitTime, s.Fee, s.Discount, s.UpdatedAt, s.UpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionRepository) FindOpenByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error) {
	return r.findOne(ctx, sessionSelect+` WHERE s.receipt = $1 AND s.exit_time IS NULL FOR UPDATE OF s`, receipt)
}

func (r *SessionRepository) FindByReceipt(ctx context.Context, receipt string) (*domain.ParkingSession, error) {
	return r.findOne(ctx, sessionSelect+` WHERE s.receipt = $1`, receipt)
}

// CountClosedByClient counts the closed sessions of the client with taxID.
// The client row is locked first, so concurrent check-outs of the same client
// count one after the other and each sees the visits committed before it.
func (r *SessionRepository) CountClosedByClient(ctx context.Context, taxID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := conn(ctx, r.pool)

	var clientID string
	if err := q.QueryRow(ctx, lockClientQuery, taxID).Scan(&clientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrClientNotFound
		}
		return 0, fmt.Errorf("lock client: %w", err)
	}

	var n int64
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE client_id = $1 AND exit_time IS NOT NULL`,
		clientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (r *SessionRepository) ListByClient(ctx context.Context, clientID string, page domain.PageRequest) ([]*domain.ParkingSession, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := conn(ctx, r.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM sessions WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	rows, err := q.Query(ctx,
		sessionSelect+` WHERE s.client_id = $1 ORDER BY s.entry_time DESC, s.receipt DESC LIMIT $2 OFFSET $3`,
		clientID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*domain.ParkingSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, total, rows.Err()
}

func (r *SessionRepository) findOne(ctx context.Context, query, receipt string) (*domain.ParkingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := scanSession(conn(ctx, r.pool).QueryRow(ctx, query, receipt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func scanSession(row pgx.Row) (*domain.ParkingSession, error) {
	var (
		s          domain.ParkingSession
		c          domain.Client
		p          domain.ParkingSpot
		spotStatus string
	)
	err := row.Scan(
		&s.ID, &s.Receipt, &s.Plate, &s.Make, &s.Model, &s.Color,
		&s.EntryTime, &s.ExitTime, &s.Fee, &s.Discount,
		&s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy,
		&c.ID, &c.Name, &c.TaxID, &c.UserID,
		&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy,
		&p.ID, &p.Code, &spotStatus, &p.Description,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.SpotStatus(spotStatus)
	s.Client = &c
	s.Spot = &p
	return &s, nil
}
