package registry

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// SQLiteStore implements Store with SQLite persistence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an open SQLite handle and runs the
// schema migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteStore opens (or creates) the database at path and returns a
// migrated store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite registry: %w", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS queued_transactions (
        tx_id TEXT PRIMARY KEY,
        queued INTEGER NOT NULL DEFAULT 0
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) IsQueued(ctx context.Context, id contracts.TxID) (bool, error) {
	var queued bool
	err := s.db.QueryRowContext(ctx,
		`SELECT queued FROM queued_transactions WHERE tx_id = ?`, id.Hex(),
	).Scan(&queued)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query queued flag: %w", err)
	}
	return queued, nil
}

func (s *SQLiteStore) SetQueued(ctx context.Context, id contracts.TxID, queued bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queued_transactions (tx_id, queued) VALUES (?, ?)
         ON CONFLICT(tx_id) DO UPDATE SET queued = excluded.queued`,
		id.Hex(), queued,
	)
	if err != nil {
		return fmt.Errorf("set queued flag: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
