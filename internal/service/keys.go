package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/keyshop/core/logger"
	"github.com/m3rciful/keyshop/internal/domain"
	"log/slog"
)

// KeyStore is the persistence surface KeyService needs.
type KeyStore interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
	Key(ctx context.Context, id int64) (*domain.Key, error)
	KeyNameTaken(ctx context.Context, productID int64, name string, excludeID int64) (bool, error)
	InsertKey(ctx context.Context, k *domain.Key) (int64, error)
	UpdateKey(ctx context.Context, k *domain.Key) error
	DeleteKey(ctx context.Context, id int64) error
	KeysByProduct(ctx context.Context, productID int64, unusedOnly bool) ([]domain.Key, error)
	AllKeys(ctx context.Context) ([]domain.Key, error)
	FreeKeys(ctx context.Context) ([]domain.Key, error)
	ExpiredKeys(ctx context.Context, now time.Time) ([]domain.Key, error)
	ConsumeKeys(ctx context.Context, productID int64, qty int, buyerID int64) ([]domain.Key, error)
}

// KeyField names an editable key attribute.
type KeyField string

const (
	KeyFieldName   KeyField = "name"
	KeyFieldValue  KeyField = "value"
	KeyFieldFile   KeyField = "file"
	KeyFieldExpiry KeyField = "expiry"
)

// AddKeyInput describes one new key. Exactly one of Value and File must
// be set.
type AddKeyInput struct {
	ProductID int64
	Name      string
	Value     string
	File      string
	ExpiresAt *time.Time
}

// KeyService manages the key inventory.
type KeyService struct {
	store KeyStore
	now   func() time.Time
}

func NewKeyService(store KeyStore) *KeyService {
	return &KeyService{store: store, now: time.Now}
}

// Add validates and inserts a key, bumping the product counter.
func (s *KeyService) Add(ctx context.Context, in AddKeyInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return 0, fmt.Errorf("key name is required")
	}
	hasValue := strings.TrimSpace(in.Value) != ""
	hasFile := strings.TrimSpace(in.File) != ""
	if hasValue == hasFile {
		return 0, domain.ErrKeyPayloadMismatch
	}
	if _, err := s.store.Product(ctx, in.ProductID); err != nil {
		return 0, err
	}
	taken, err := s.store.KeyNameTaken(ctx, in.ProductID, in.Name, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, domain.ErrDuplicateKeyName
	}

	k := &domain.Key{
		ProductID: in.ProductID,
		Name:      in.Name,
	}
	if hasValue {
		k.Value = sql.NullString{String: in.Value, Valid: true}
	} else {
		k.File = sql.NullString{String: in.File, Valid: true}
	}
	if in.ExpiresAt != nil {
		k.ExpiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}

	id, err := s.store.InsertKey(ctx, k)
	if err != nil {
		return 0, err
	}
	logger.SVCKeys.Info("key.added",
		slog.Int64("key_id", id),
		slog.Int64("product_id", in.ProductID),
		slog.Bool("file", hasFile),
	)
	return id, nil
}

// Edit updates one field of a key. Text payload edits of file keys and
// file edits of text keys are rejected.
func (s *KeyService) Edit(ctx context.Context, id int64, field KeyField, value string) error {
	k, err := s.store.Key(ctx, id)
	if err != nil {
		return err
	}
	switch field {
	case KeyFieldName:
		name := strings.TrimSpace(value)
		if name == "" {
			return fmt.Errorf("key name is required")
		}
		taken, err := s.store.KeyNameTaken(ctx, k.ProductID, name, id)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateKeyName
		}
		k.Name = name
	case KeyFieldValue:
		if k.IsFile() {
			return domain.ErrKeyPayloadMismatch
		}
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("key value is required")
		}
		k.Value = sql.NullString{String: value, Valid: true}
	case KeyFieldFile:
		if !k.IsFile() {
			return domain.ErrKeyPayloadMismatch
		}
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("key file is required")
		}
		k.File = sql.NullString{String: value, Valid: true}
	case KeyFieldExpiry:
		v := strings.TrimSpace(value)
		if v == "-" || v == "" {
			k.ExpiresAt = sql.NullTime{}
			break
		}
		if t, err := time.ParseInLocation(time.DateOnly, v, time.Local); err == nil {
			k.ExpiresAt = sql.NullTime{Time: t, Valid: true}
			break
		}
		days, err := ParseExpiryDays(v)
		if err != nil {
			return err
		}
		k.ExpiresAt = sql.NullTime{Time: s.now().AddDate(0, 0, days), Valid: true}
	default:
		return fmt.Errorf("unknown key field %q", field)
	}

	if err := s.store.UpdateKey(ctx, k); err != nil {
		return err
	}
	logger.SVCKeys.Info("key.edited",
		slog.Int64("key_id", id),
		slog.String("field", string(field)),
	)
	return nil
}

// Delete removes a key. The product counter only moves when the key was
// still unused.
func (s *KeyService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteKey(ctx, id); err != nil {
		return err
	}
	logger.SVCKeys.Info("key.deleted", slog.Int64("key_id", id))
	return nil
}

func (s *KeyService) Key(ctx context.Context, id int64) (*domain.Key, error) {
	return s.store.Key(ctx, id)
}

// Deletable lists the unused keys of a product, the only ones offered
// for deletion in the admin UI.
func (s *KeyService) Deletable(ctx context.Context, productID int64) ([]domain.Key, error) {
	return s.store.KeysByProduct(ctx, productID, true)
}

func (s *KeyService) ByProduct(ctx context.Context, productID int64) ([]domain.Key, error) {
	return s.store.KeysByProduct(ctx, productID, false)
}

func (s *KeyService) All(ctx context.Context) ([]domain.Key, error) {
	return s.store.AllKeys(ctx)
}

func (s *KeyService) Free(ctx context.Context) ([]domain.Key, error) {
	return s.store.FreeKeys(ctx)
}

func (s *KeyService) Expired(ctx context.Context) ([]domain.Key, error) {
	return s.store.ExpiredKeys(ctx, s.now())
}

// Fulfill dispenses qty keys of a product to a buyer, all or nothing.
func (s *KeyService) Fulfill(ctx context.Context, productID int64, qty int, buyerID int64) ([]domain.Key, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	keys, err := s.store.ConsumeKeys(ctx, productID, qty, buyerID)
	if err != nil {
		return nil, err
	}
	logger.SVCKeys.Info("key.fulfilled",
		slog.Int64("product_id", productID),
		slog.Int("qty", qty),
		slog.Int64("buyer_id", buyerID),
	)
	return keys, nil
}

// ParseExpiryDays parses a validity period in days. "-" means no expiry
// and is handled by the caller.
func ParseExpiryDays(s string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("validity period must be a positive number of days or %q", "-")
	}
	return days, nil
}
