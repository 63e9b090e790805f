package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/redis"
)

// snapshot is the persisted wire form of a cart.
type snapshot struct {
	Lines   []Line    `json:"lines"`
	SavedAt time.Time `json:"saved_at"`
}

// Store keeps session carts alive across requests by persisting snapshots
// to Redis. The in-memory Cart stays the single owner of line state; the
// store only serializes it at session boundaries.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a session cart store.
func NewStore(client *redis.Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &Store{client: client, ttl: ttl}, nil
}

// Load restores the cart for a session. An unknown session yields an empty
// cart, not an error.
func (s *Store) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return New(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart session")
	}
	return Restore(snap.Lines), nil
}

// Save persists the cart snapshot and refreshes the session TTL.
func (s *Store) Save(ctx context.Context, sessionID string, c *Cart) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}

	payload, err := json.Marshal(snapshot{Lines: c.Lines(), SavedAt: time.Now().UTC()})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart session")
	}

	if err := s.client.Set(ctx, s.client.CartKey(sessionID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return nil
}

// Drop removes the session cart entirely (used after checkout completes).
func (s *Store) Drop(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop cart session")
	}
	return nil
}
