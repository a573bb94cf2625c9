// Package cache wraps a store.Store with a Redis read-through cache for
// plan and subscription records.
//
// Records are immutable once allocated, so cached entries never need
// invalidation; they only expire by TTL to bound memory. Balances and
// transitions always go to the wrapped store. Lookups that miss in the
// backing store are not cached, because the slot may be allocated later.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscription"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "subledger:"

var _ store.Store = (*Store)(nil)

// Store is a store.Store with cached record lookups.
type Store struct {
	inner  store.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the cache.
type Option func(*Store)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report cache faults.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New wraps inner. The client is owned by the caller.
func New(inner store.Store, client *redis.Client, opts ...Option) *Store {
	s := &Store{
		inner:  inner,
		client: client,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses a redis:// URL into a client and verifies it responds.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Unwrap returns the backing store.
func (s *Store) Unwrap() store.Store { return s.inner }

func planKey(addr account.Address) string { return keyPrefix + "plan:" + addr.String() }

func subscriptionKey(addr account.Address) string {
	return keyPrefix + "subscription:" + addr.String()
}

func (s *Store) GetPlan(ctx context.Context, addr account.Address) (*plan.Plan, error) {
	var p plan.Plan
	if s.lookup(ctx, planKey(addr), &p) {
		return &p, nil
	}
	fresh, err := s.inner.GetPlan(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, planKey(addr), fresh)
	return fresh, nil
}

func (s *Store) GetSubscription(ctx context.Context, addr account.Address) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	if s.lookup(ctx, subscriptionKey(addr), &sub) {
		return &sub, nil
	}
	fresh, err := s.inner.GetSubscription(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, subscriptionKey(addr), fresh)
	return fresh, nil
}

// lookup reports a hit. Redis faults count as misses.
func (s *Store) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) fill(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *Store) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	return s.inner.Balance(ctx, addr)
}

func (s *Store) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return s.inner.RunInTx(ctx, fn)
}

func (s *Store) Migrate(ctx context.Context) error { return s.inner.Migrate(ctx) }

// Ping checks both the cache and the backing store.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return s.inner.Ping(ctx)
}

// Close closes the backing store.
func (s *Store) Close() error { return s.inner.Close() }
