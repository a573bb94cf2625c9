package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/account"
	"github.com/xraph/subledger/plan"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/cache"
	"github.com/xraph/subledger/store/memory"
	"github.com/xraph/subledger/store/storetest"
	"github.com/xraph/subledger/subscription"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		_, client := setupTestRedis(t)
		return cache.New(memory.New(), client)
	})
}

func seed(t *testing.T, s store.Store) (*plan.Plan, *subscription.Subscription) {
	t.Helper()
	creator := account.Address{1}
	subscriber := account.Address{2}
	p := &plan.Plan{
		Address:      account.PlanAddress(creator, 7),
		Creator:      creator,
		PlanID:       7,
		Name:         "Pro",
		Price:        1_000,
		DurationDays: 30,
		CreatedAt:    1_700_000_000,
	}
	sub := &subscription.Subscription{
		Address:    account.SubscriptionAddress(subscriber, creator, 7),
		Subscriber: subscriber,
		Creator:    creator,
		PlanID:     7,
		CreatedAt:  1_700_000_000,
		ExpiresAt:  1_700_000_000 + 30*86_400,
	}
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertPlan(ctx, p); err != nil {
			return err
		}
		return tx.InsertSubscription(ctx, sub)
	}))
	return p, sub
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	s := cache.New(memory.New(), client, cache.WithTTL(time.Minute))
	p, sub := seed(t, s)

	got, err := s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.True(t, mr.Exists("subledger:plan:"+p.Address.String()))

	// Second read is served from redis.
	got, err = s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	gotSub, err := s.GetSubscription(ctx, sub.Address)
	require.NoError(t, err)
	assert.Equal(t, sub, gotSub)
	assert.Equal(t, time.Minute, mr.TTL("subledger:subscription:"+sub.Address.String()))
}

func TestMissIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	s := cache.New(memory.New(), client)

	missing := account.Address{9}
	_, err := s.GetPlan(ctx, missing)
	assert.ErrorIs(t, err, subledger.ErrPlanNotFound)
	assert.False(t, mr.Exists("subledger:plan:"+missing.String()))
}

func TestRedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)
	s := cache.New(memory.New(), client)
	p, _ := seed(t, s)

	mr.Close()

	got, err := s.GetPlan(ctx, p.Address)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Error(t, s.Ping(ctx))
}
