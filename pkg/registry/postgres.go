package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// PostgresStore implements Store with Postgres persistence.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open Postgres handle. Call Init
// once to run the schema migration.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS queued_transactions (
	tx_id TEXT PRIMARY KEY,
	queued BOOLEAN NOT NULL DEFAULT FALSE
);`

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pgSchema)
	return err
}

func (s *PostgresStore) IsQueued(ctx context.Context, id contracts.TxID) (bool, error) {
	var queued bool
	err := s.db.QueryRowContext(ctx,
		`SELECT queued FROM queued_transactions WHERE tx_id = $1`, id.Hex(),
	).Scan(&queued)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query queued flag: %w", err)
	}
	return queued, nil
}

func (s *PostgresStore) SetQueued(ctx context.Context, id contracts.TxID, queued bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queued_transactions (tx_id, queued) VALUES ($1, $2)
		 ON CONFLICT (tx_id) DO UPDATE SET queued = EXCLUDED.queued`,
		id.Hex(), queued,
	)
	if err != nil {
		return fmt.Errorf("set queued flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
