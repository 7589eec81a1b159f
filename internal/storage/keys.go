package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/keyshop/internal/domain"
)

// Key returns a single key by id.
func (s *Storage) Key(ctx context.Context, id int64) (*domain.Key, error) {
	var k domain.Key
	err := s.db.GetContext(ctx, &k, `SELECT * FROM keys WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select key %d: %w", id, err)
	}
	return &k, nil
}

// KeyNameTaken reports whether another key of the same product already
// uses the given name.
func (s *Storage) KeyNameTaken(ctx context.Context, productID int64, name string, excludeID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT count(*) FROM keys
		WHERE product_id = $1 AND name = $2 AND id <> $3`,
		productID, name, excludeID)
	if err != nil {
		return false, fmt.Errorf("check key name: %w", err)
	}
	return n > 0, nil
}

// InsertKey adds a key and bumps the product counter in one transaction.
func (s *Storage) InsertKey(ctx context.Context, k *domain.Key) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &id, `
			INSERT INTO keys (product_id, name, key_value, key_file, expires_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			k.ProductID, k.Name, k.Value, k.File, k.ExpiresAt)
		if err != nil {
			return fmt.Errorf("insert key: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET available_keys = available_keys + 1, updated_at = now()
			WHERE id = $1`, k.ProductID)
		if err != nil {
			return fmt.Errorf("increment counter: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return id, err
}

// UpdateKey replaces the editable fields of a key.
func (s *Storage) UpdateKey(ctx context.Context, k *domain.Key) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE keys
		SET name = $2, key_value = $3, key_file = $4, expires_at = $5
		WHERE id = $1`,
		k.ID, k.Name, k.Value, k.File, k.ExpiresAt)
	if err != nil {
		return fmt.Errorf("update key %d: %w", k.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteKey removes a key, decrementing the product counter only when
// the removed key was still unused.
func (s *Storage) DeleteKey(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var row struct {
			ProductID int64 `db:"product_id"`
			Used      bool  `db:"used"`
		}
		err := tx.GetContext(ctx, &row,
			`DELETE FROM keys WHERE id = $1 RETURNING product_id, used`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete key %d: %w", id, err)
		}
		if row.Used {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE products SET available_keys = available_keys - 1, updated_at = now()
			WHERE id = $1`, row.ProductID)
		if err != nil {
			return fmt.Errorf("decrement counter: %w", err)
		}
		return nil
	})
}

// KeysByProduct lists keys of one product, optionally only unused ones.
func (s *Storage) KeysByProduct(ctx context.Context, productID int64, unusedOnly bool) ([]domain.Key, error) {
	q := `SELECT * FROM keys WHERE product_id = $1 ORDER BY id`
	if unusedOnly {
		q = `SELECT * FROM keys WHERE product_id = $1 AND NOT used ORDER BY id`
	}
	var keys []domain.Key
	if err := s.db.SelectContext(ctx, &keys, q, productID); err != nil {
		return nil, fmt.Errorf("select keys of product %d: %w", productID, err)
	}
	return keys, nil
}

// AllKeys lists every key, newest last.
func (s *Storage) AllKeys(ctx context.Context) ([]domain.Key, error) {
	var keys []domain.Key
	if err := s.db.SelectContext(ctx, &keys, `SELECT * FROM keys ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select all keys: %w", err)
	}
	return keys, nil
}

// FreeKeys lists unused keys across all products.
func (s *Storage) FreeKeys(ctx context.Context) ([]domain.Key, error) {
	var keys []domain.Key
	if err := s.db.SelectContext(ctx, &keys, `SELECT * FROM keys WHERE NOT used ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select free keys: %w", err)
	}
	return keys, nil
}

// ExpiredKeys lists keys whose expiry is in the past.
func (s *Storage) ExpiredKeys(ctx context.Context, now time.Time) ([]domain.Key, error) {
	var keys []domain.Key
	err := s.db.SelectContext(ctx, &keys,
		`SELECT * FROM keys WHERE expires_at IS NOT NULL AND expires_at < $1 ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("select expired keys: %w", err)
	}
	return keys, nil
}

// consumeKeysTx dispenses qty unused keys of a product inside an open
// transaction. The conditional decrement takes a row lock on the
// product, so the FOR UPDATE selection below sees a settled key set.
func consumeKeysTx(ctx context.Context, tx *sqlx.Tx, productID int64, qty int, buyerID int64) ([]domain.Key, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE products SET available_keys = available_keys - $2, updated_at = now()
		WHERE id = $1 AND available_keys >= $2`,
		productID, qty)
	if err != nil {
		return nil, fmt.Errorf("decrement counter: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var have int
		if err := tx.GetContext(ctx, &have,
			`SELECT available_keys FROM products WHERE id = $1`, productID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("read counter: %w", err)
		}
		return nil, &domain.InsufficientStockError{ProductID: productID, Want: qty, Have: have}
	}

	var keys []domain.Key
	err = tx.SelectContext(ctx, &keys, `
		SELECT * FROM keys
		WHERE product_id = $1 AND NOT used
		ORDER BY id
		LIMIT $2
		FOR UPDATE`,
		productID, qty)
	if err != nil {
		return nil, fmt.Errorf("select unused keys: %w", err)
	}
	if len(keys) < qty {
		// Counter out of sync with rows; refuse rather than short-deliver.
		return nil, &domain.InsufficientStockError{ProductID: productID, Want: qty, Have: len(keys)}
	}

	ids := make([]int64, len(keys))
	for i := range keys {
		ids[i] = keys[i].ID
		keys[i].Used = true
		keys[i].OwnerID = sql.NullInt64{Int64: buyerID, Valid: true}
	}
	q, args, err := sqlx.In(`UPDATE keys SET used = TRUE, owner_id = ? WHERE id IN (?)`, buyerID, ids)
	if err != nil {
		return nil, fmt.Errorf("build key update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("mark keys used: %w", err)
	}
	return keys, nil
}

// ConsumeKeys dispenses qty unused keys of a product to a buyer, all or
// nothing.
func (s *Storage) ConsumeKeys(ctx context.Context, productID int64, qty int, buyerID int64) ([]domain.Key, error) {
	var keys []domain.Key
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		keys, err = consumeKeysTx(ctx, tx, productID, qty, buyerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
