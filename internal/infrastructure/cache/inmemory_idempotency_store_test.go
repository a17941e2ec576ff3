package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "cs_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkProcessed(ctx, "cs_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	processed, err := store.IsProcessed(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsProcessed(ctx, "cs_other")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryExpiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "cs_ttl", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "cs_ttl")
	require.NoError(t, err)
	assert.False(t, processed)

	again, err := store.MarkProcessed(ctx, "cs_ttl", time.Minute)
	require.NoError(t, err)
	assert.True(t, again, "expired key can be re-marked")
}

func TestInMemoryRelease(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "cs_rel", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "cs_rel"))

	again, err := store.MarkProcessed(ctx, "cs_rel", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestInMemoryConcurrentMark(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "cs_race", time.Minute)
			require.NoError(t, err)
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent marker may win")
}
