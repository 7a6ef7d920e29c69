package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestListingCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := NewListingCache(WithClock(clock.now), WithSweepInterval(0))
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "events:all", []string{"a"}, 5))
	v, ok := c.Get(ctx, "events:all")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	clock.t = clock.t.Add(5 * time.Second)
	_, ok = c.Get(ctx, "events:all")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Len())
}

func TestListingCache_NonPositiveTTLRemoves(t *testing.T) {
	c := NewListingCache(WithSweepInterval(0))
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 60))
	require.NoError(t, c.Set(ctx, "k", 2, 0))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestListingCache_DeleteAndClear(t *testing.T) {
	c := NewListingCache(WithSweepInterval(0))
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, 60))
	require.NoError(t, c.Set(ctx, "b", 2, 60))
	require.NoError(t, c.Delete(ctx, "a"))
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestListingCache_StopIsIdempotent(t *testing.T) {
	c := NewListingCache(WithSweepInterval(10 * time.Millisecond))
	c.Stop()
	c.Stop()
}
