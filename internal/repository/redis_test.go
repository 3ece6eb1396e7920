package repository

import (
	"context"
	"testing"
	"time"

	"wardbook/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetPresence", func(t *testing.T) {
		presence := &domain.Presence{
			UserName: "Dr. Salem",
			UserRole: "surgeon",
			LastSeen: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		}

		err := repo.SetPresence(ctx, presence)
		require.NoError(t, err)

		got, err := repo.GetPresence(ctx, "Dr. Salem")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, presence.UserName, got.UserName)
		assert.Equal(t, presence.UserRole, got.UserRole)
		assert.True(t, got.LastSeen.Equal(presence.LastSeen))
	})

	t.Run("GetNonExistentPresence", func(t *testing.T) {
		got, err := repo.GetPresence(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("PresenceExpiresWithTTL", func(t *testing.T) {
		short := NewRedisStateRepository(client, time.Minute)
		err := short.SetPresence(ctx, &domain.Presence{UserName: "Transient", UserRole: "ward_nurse"})
		require.NoError(t, err)

		s.FastForward(time.Minute + time.Second)

		got, err := short.GetPresence(ctx, "Transient")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearPresence", func(t *testing.T) {
		require.NoError(t, repo.SetPresence(ctx, &domain.Presence{UserName: "Temp"}))

		err := repo.ClearPresence(ctx, "Temp")
		require.NoError(t, err)

		got, _ := repo.GetPresence(ctx, "Temp")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "client-1"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetPresence(ctx, "x")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
