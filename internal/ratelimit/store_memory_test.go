package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowBoundary(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(60, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 59; i++ {
		d, err := store.Check(ctx, "id-1", base.Add(time.Duration(i)*100*time.Millisecond))
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	// 60th request fills the window exactly.
	d, err := store.Check(ctx, "id-1", base.Add(6*time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed, "request at the limit is still allowed")
	assert.Equal(t, 0, d.Remaining)

	// 61st starts a block.
	d, err = store.Check(ctx, "id-1", base.Add(7*time.Second))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.Blocked)
	assert.Equal(t, base.Add(7*time.Second).Add(time.Minute), d.BlockUntil)
}

func TestBlockDeniesUntilExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(2, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		d, err := store.Check(ctx, "id-1", base)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := store.Check(ctx, "id-1", base.Add(time.Second))
	require.NoError(t, err)
	require.True(t, d.Blocked)

	// Mid-block attempts are denied and do not extend the block.
	d, err = store.Check(ctx, "id-1", base.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, base.Add(time.Second).Add(time.Minute), d.BlockUntil)
}

func TestBlockExpiryRestartsWindow(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(2, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		_, err := store.Check(ctx, "id-1", base)
		require.NoError(t, err)
	}
	d, err := store.Check(ctx, "id-1", base.Add(time.Second))
	require.NoError(t, err)
	require.True(t, d.Blocked)

	// After the block lifts, the window is empty again.
	d, err = store.Check(ctx, "id-1", base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestWindowSlides(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(2, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	_, err := store.Check(ctx, "id-1", base)
	require.NoError(t, err)
	_, err = store.Check(ctx, "id-1", base.Add(30*time.Second))
	require.NoError(t, err)

	// The first timestamp has aged out; no block starts.
	d, err := store.Check(ctx, "id-1", base.Add(61*time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestIdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(1, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	_, err := store.Check(ctx, "id-1", base)
	require.NoError(t, err)
	d, err := store.Check(ctx, "id-1", base.Add(time.Second))
	require.NoError(t, err)
	require.False(t, d.Allowed)

	d, err = store.Check(ctx, "id-2", base.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one identity's block must not affect another")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBucketStore(1, time.Minute, time.Minute)
	base := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)

	_, err := store.Check(ctx, "id-1", base)
	require.NoError(t, err)
	d, err := store.Check(ctx, "id-1", base.Add(time.Second))
	require.NoError(t, err)
	require.True(t, d.Blocked)

	require.NoError(t, store.Reset(ctx, "id-1"))
	d, err = store.Check(ctx, "id-1", base.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
