package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wardbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository_Presence(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	got, err := repo.GetPresence(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	presence := &domain.Presence{UserName: "Dr. Salem", UserRole: "surgeon", LastSeen: time.Now()}
	require.NoError(t, repo.SetPresence(ctx, presence))

	got, err = repo.GetPresence(ctx, "Dr. Salem")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "surgeon", got.UserRole)

	require.NoError(t, repo.ClearPresence(ctx, "Dr. Salem"))
	got, err = repo.GetPresence(ctx, "Dr. Salem")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStateRepository_PresenceTTL(t *testing.T) {
	repo := NewMemoryStateRepository(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, repo.SetPresence(ctx, &domain.Presence{UserName: "Transient"}))
	time.Sleep(20 * time.Millisecond)

	got, err := repo.GetPresence(ctx, "Transient")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStateRepository_RateLimit(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	limit := 3
	window := time.Hour

	for i := 0; i < limit; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "client-1", limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "client-1", limit, window)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other keys have their own window.
	allowed, err = repo.CheckRateLimit(ctx, "client-2", limit, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryStateRepository_RateLimitWindowReset(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	window := 10 * time.Millisecond
	allowed, err := repo.CheckRateLimit(ctx, "client-3", 1, window)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.CheckRateLimit(ctx, "client-3", 1, window)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)
	allowed, err = repo.CheckRateLimit(ctx, "client-3", 1, window)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryStateRepository_RateLimitConcurrent(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	const callers = 40
	limit := 25

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := repo.CheckRateLimit(ctx, "shared-key", limit, time.Hour)
			assert.NoError(t, err)
			if allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), allowedCount.Load())
}
