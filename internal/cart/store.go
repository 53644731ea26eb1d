package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/pizzapalace/backend/pkg/errors"
	"github.com/pizzapalace/backend/pkg/redis"
)

// Entry is a single cart line keyed by menu item ID. Name and unit price are
// display snapshots; the snapshot path re-resolves both against the menu.
type Entry struct {
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Contents is the serialized cart payload stored under one cart token.
type Contents struct {
	Entries map[uuid.UUID]Entry `json:"entries"`
}

// EntryStore persists cart contents keyed by cart token.
type EntryStore interface {
	Load(ctx context.Context, token string) (*Contents, error)
	Save(ctx context.Context, token string, contents *Contents) error
	Delete(ctx context.Context, token string) error
}

type cartKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(token string) string
}

// RedisStore keeps cart contents in Redis with a sliding TTL.
type RedisStore struct {
	kv  cartKV
	ttl time.Duration
}

// NewRedisStore builds a cart store over the shared Redis client.
func NewRedisStore(kv cartKV, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

// Load returns the cart for the token, or an empty cart when none is stored.
func (s *RedisStore) Load(ctx context.Context, token string) (*Contents, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(token))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return emptyContents(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	var contents Contents
	if err := json.Unmarshal([]byte(raw), &contents); err != nil {
		// Corrupt payloads self-heal to an empty cart rather than wedging
		// the session.
		return emptyContents(), nil
	}
	if contents.Entries == nil {
		contents.Entries = map[uuid.UUID]Entry{}
	}
	return &contents, nil
}

// Save writes the cart and refreshes its TTL. Empty carts are deleted.
func (s *RedisStore) Save(ctx context.Context, token string, contents *Contents) error {
	if contents == nil || len(contents.Entries) == 0 {
		return s.Delete(ctx, token)
	}
	payload, err := json.Marshal(contents)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode cart")
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(token), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save cart")
	}
	return nil
}

// Delete removes the cart for the token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to clear cart")
	}
	return nil
}

func emptyContents() *Contents {
	return &Contents{Entries: map[uuid.UUID]Entry{}}
}
