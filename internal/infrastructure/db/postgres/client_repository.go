package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/demopark/parking-api/internal/core/domain"
)

const clientColumns = `id, name, tax_id, user_id, created_at, updated_at, created_by, updated_by`

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + clientColumns

	created, err := scanClient(conn(ctx, r.pool).QueryRow(ctx, query,
		client.ID, client.Name, client.TaxID, client.UserID,
		client.CreatedAt, client.UpdatedAt, client.CreatedBy, client.UpdatedBy,
	))
	if err != nil {
		if constraint, dup := violatedConstraint(err); dup {
			if constraint == "clients_user_id_key" {
				return nil, domain.ErrClientExists
			}
			return nil, domain.ErrTaxIDExists
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return created, nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.findOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
}

func (r *ClientRepository) FindByTaxID(ctx context.Context, taxID string) (*domain.Client, error) {
	return r.findOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE tax_id = $1`, taxID)
}

func (r *ClientRepository) FindByUserID(ctx context.Context, userID string) (*domain.Client, error) {
	return r.findOne(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = $1`, userID)
}

func (r *ClientRepository) List(ctx context.Context, page domain.PageRequest) ([]*domain.Client, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := conn(ctx, r.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM clients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, total, rows.Err()
}

func (r *ClientRepository) findOne(ctx context.Context, query string, arg any) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := scanClient(conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return client, nil
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.UserID,
		&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
