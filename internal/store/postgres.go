package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/gatelink/internal/link"
)

// PostgresLinkStore is a PostgreSQL implementation of link.Store.
// Schema lives in migrations/0001_create_short_links.sql; the unique index
// on short_id is the authoritative uniqueness guard.
type PostgresLinkStore struct {
	pool *pgxpool.Pool
}

// NewPostgresLinkStore creates a new PostgreSQL-backed link store.
func NewPostgresLinkStore(pool *pgxpool.Pool) *PostgresLinkStore {
	return &PostgresLinkStore{pool: pool}
}

func (p *PostgresLinkStore) Save(ctx context.Context, record *link.Record) error {
	query := `
		INSERT INTO short_links (short_id, original_url, owner_id, owner_email, allowed_emails, created_at, active_from, active_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.pool.Exec(ctx, query,
		string(record.ShortID),
		record.OriginalURL,
		record.OwnerID,
		record.OwnerEmail,
		record.AllowedEmails,
		record.CreatedAt,
		record.ActiveFrom,
		record.ActiveUntil,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return link.ErrCodeExists
		}

		return err
	}

	return nil
}

func (p *PostgresLinkStore) GetByShortID(ctx context.Context, id link.ShortID) (*link.Record, error) {
	query := `
		SELECT short_id, original_url, owner_id, owner_email, allowed_emails, created_at, active_from, active_until
		FROM short_links
		WHERE short_id = $1
	`

	record, err := scanRecord(p.pool.QueryRow(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, link.ErrNotFound
		}

		return nil, err
	}

	return record, nil
}

func (p *PostgresLinkStore) ListByOwner(ctx context.Context, ownerID string) ([]*link.Record, error) {
	query := `
		SELECT short_id, original_url, owner_id, owner_email, allowed_emails, created_at, active_from, active_until
		FROM short_links
		WHERE owner_id = $1
	`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*link.Record

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*link.Record, error) {
	var record link.Record

	err := row.Scan(
		&record.ShortID,
		&record.OriginalURL,
		&record.OwnerID,
		&record.OwnerEmail,
		&record.AllowedEmails,
		&record.CreatedAt,
		&record.ActiveFrom,
		&record.ActiveUntil,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}
