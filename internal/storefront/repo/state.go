package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techstore-demo/server/internal/storefront/cart"
	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// ErrCorruptRecord marks a persisted record that could not be decoded.
var ErrCorruptRecord = errors.New("corrupt record")

// StateRepository persists a shopper's cart and currentUser records as JSON
// under profile-scoped keys.
type StateRepository struct {
	storage model.Storage
	prefix  string
}

func NewStateRepository(storage model.Storage, prefix string) *StateRepository {
	return &StateRepository{storage: storage, prefix: prefix}
}

func (r *StateRepository) key(profileID, record string) string {
	if r.prefix == "" {
		return fmt.Sprintf("%s:%s", profileID, record)
	}
	return fmt.Sprintf("%s:%s:%s", r.prefix, profileID, record)
}

// LoadCart restores the persisted ledger, or an empty one when nothing was saved.
func (r *StateRepository) LoadCart(ctx context.Context, profileID string) (*cart.Ledger, error) {
	key := r.key(profileID, model.CartKey)
	raw, ok, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cart.New(), nil
	}

	l := cart.New()
	if err := json.Unmarshal([]byte(raw), l); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal cart")
		return nil, fmt.Errorf("unmarshal cart: %w: %w", ErrCorruptRecord, err)
	}
	return l, nil
}

// SaveCart overwrites the cart record; an empty cart is stored as [].
func (r *StateRepository) SaveCart(ctx context.Context, profileID string, l *cart.Ledger) error {
	if l == nil {
		l = cart.New()
	}
	b, err := json.Marshal(l)
	if err != nil {
		logx.Error().Err(err).Str("profile", profileID).Msg("failed to marshal cart")
		return fmt.Errorf("marshal cart: %w", err)
	}
	return r.storage.Set(ctx, r.key(profileID, model.CartKey), string(b))
}

// LoadUser returns the persisted session, or nil when absent.
func (r *StateRepository) LoadUser(ctx context.Context, profileID string) (*model.User, error) {
	key := r.key(profileID, model.CurrentUserKey)
	raw, ok, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal current user")
		return nil, fmt.Errorf("unmarshal current user: %w: %w", ErrCorruptRecord, err)
	}
	return &u, nil
}

func (r *StateRepository) SaveUser(ctx context.Context, profileID string, u *model.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		logx.Error().Err(err).Str("profile", profileID).Msg("failed to marshal current user")
		return fmt.Errorf("marshal current user: %w", err)
	}
	return r.storage.Set(ctx, r.key(profileID, model.CurrentUserKey), string(b))
}

func (r *StateRepository) DeleteUser(ctx context.Context, profileID string) error {
	return r.storage.Remove(ctx, r.key(profileID, model.CurrentUserKey))
}
