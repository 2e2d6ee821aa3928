package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stridelab/stridefit/internal/domain"
)

func newTestCartRepo(t *testing.T) *RedisCartRepository {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCartRepository(client)
}

func TestRedisCartRoundTrip(t *testing.T) {
	repo := newTestCartRepo(t)
	ctx := context.Background()

	cart := domain.NewCart("sess-1")
	item, err := cart.AddItem(domain.CartItemInput{
		ProductID:  "full-coaching",
		Name:       "Full Coaching",
		PriceCents: 14900,
		Interval:   domain.IntervalMonth,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, cart.SessionID, loaded.SessionID)
	assert.Equal(t, cart.TotalCents, loaded.TotalCents)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, item.ID, loaded.Items[0].ID)

	// derived pricing survives serialization because the anchor does
	loaded.UpdateItemInterval(item.ID, domain.IntervalYear)
	assert.Equal(t, int64(143040), loaded.TotalCents)
}

func TestRedisCartMissAndDelete(t *testing.T) {
	repo := newTestCartRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	cart := domain.NewCart("sess-2")
	require.NoError(t, repo.Save(ctx, cart))
	require.NoError(t, repo.Delete(ctx, "sess-2"))

	_, err = repo.Get(ctx, "sess-2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// deleting twice stays quiet
	require.NoError(t, repo.Delete(ctx, "sess-2"))
}
