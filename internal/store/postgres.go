package store

import (
	"context"
	"fmt"
	"time"

	"github.com/engagekit/onsite/internal/notification"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecordStores is a PostgreSQL-backed notification.StoreProvider
// over a single notification_records table keyed by (visitor_id, comm_id).
type PostgresRecordStores struct {
	pool *pgxpool.Pool
}

// NewPostgresRecordStores creates a PostgreSQL-backed record store
// provider.
func NewPostgresRecordStores(pool *pgxpool.Pool) *PostgresRecordStores {
	return &PostgresRecordStores{pool: pool}
}

func (s *PostgresRecordStores) Open(visitorID string) notification.Store {
	return &postgresRecordStore{
		pool:      s.pool,
		visitorID: visitorID,
	}
}

// Prune deletes expired and exhausted records across all visitors in one
// statement.
func (s *PostgresRecordStores) Prune(ctx context.Context, now time.Time) (int, error) {
	query := `
		DELETE FROM notification_records
		WHERE expires_at < $1
		   OR (NOT display_unlimited
		       AND display_limit IS NOT NULL
		       AND display_count >= display_limit)
	`

	tag, err := s.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return int(tag.RowsAffected()), nil
}

type postgresRecordStore struct {
	pool      *pgxpool.Pool
	visitorID string
}

func (p *postgresRecordStore) Upsert(ctx context.Context, record *notification.Record) error {
	query := `
		INSERT INTO notification_records
			(visitor_id, comm_id, cdid, expires_at, display_unlimited,
			 display_limit, display_count, display_in, sub_type, design)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (visitor_id, comm_id) DO UPDATE SET
			cdid = EXCLUDED.cdid,
			expires_at = EXCLUDED.expires_at,
			display_unlimited = EXCLUDED.display_unlimited,
			display_limit = EXCLUDED.display_limit,
			display_count = EXCLUDED.display_count,
			display_in = EXCLUDED.display_in,
			sub_type = EXCLUDED.sub_type,
			design = EXCLUDED.design
	`

	_, err := p.pool.Exec(ctx, query,
		p.visitorID,
		record.CommID,
		record.CDID,
		record.ExpiresAt,
		record.DisplayUnlimited,
		record.DisplayLimit,
		record.DisplayCount,
		record.DisplayIn,
		record.SubType,
		[]byte(record.Design),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

func (p *postgresRecordStore) All(ctx context.Context) ([]*notification.Record, error) {
	query := `
		SELECT comm_id, cdid, expires_at, display_unlimited,
		       display_limit, display_count, display_in, sub_type, design
		FROM notification_records
		WHERE visitor_id = $1
	`

	rows, err := p.pool.Query(ctx, query, p.visitorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}
	defer rows.Close()

	var records []*notification.Record

	for rows.Next() {
		var (
			record notification.Record
			design []byte
		)

		err := rows.Scan(
			&record.CommID,
			&record.CDID,
			&record.ExpiresAt,
			&record.DisplayUnlimited,
			&record.DisplayLimit,
			&record.DisplayCount,
			&record.DisplayIn,
			&record.SubType,
			&design,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", notification.ErrStorage, err)
		}

		record.Design = design
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	if records == nil {
		records = []*notification.Record{}
	}

	return records, nil
}

func (p *postgresRecordStore) Delete(ctx context.Context, commID string) error {
	query := `DELETE FROM notification_records WHERE visitor_id = $1 AND comm_id = $2`

	if _, err := p.pool.Exec(ctx, query, p.visitorID, commID); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

func (p *postgresRecordStore) Teardown(ctx context.Context) error {
	query := `DELETE FROM notification_records WHERE visitor_id = $1`

	if _, err := p.pool.Exec(ctx, query, p.visitorID); err != nil {
		return fmt.Errorf("%w: %v", notification.ErrStorage, err)
	}

	return nil
}

var (
	_ notification.StoreProvider = (*PostgresRecordStores)(nil)
	_ notification.Pruner        = (*PostgresRecordStores)(nil)
)
