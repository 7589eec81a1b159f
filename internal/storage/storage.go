package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Storage bundles all Postgres-backed repositories over one pool.
type Storage struct {
	db *sqlx.DB
}

// New wraps an open sqlx pool.
func New(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
