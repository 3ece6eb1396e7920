package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"wardbook/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStateRepository struct{}

var errDown = errors.New("connection refused")

func (f *failingStateRepository) GetPresence(ctx context.Context, userName string) (*domain.Presence, error) {
	return nil, errDown
}

func (f *failingStateRepository) SetPresence(ctx context.Context, presence *domain.Presence) error {
	return errDown
}

func (f *failingStateRepository) ClearPresence(ctx context.Context, userName string) error {
	return errDown
}

func (f *failingStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errDown
}

func TestFailoverStateRepository_FallsBackToMemory(t *testing.T) {
	logger := zerolog.Nop()
	fallback := NewMemoryStateRepository(time.Hour)
	repo := NewFailoverStateRepository(&failingStateRepository{}, fallback, &logger)
	ctx := context.Background()

	presence := &domain.Presence{UserName: "Dr. Salem", UserRole: "surgeon"}
	require.NoError(t, repo.SetPresence(ctx, presence))

	got, err := repo.GetPresence(ctx, "Dr. Salem")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "surgeon", got.UserRole)

	require.NoError(t, repo.ClearPresence(ctx, "Dr. Salem"))

	allowed, err := repo.CheckRateLimit(ctx, "client-1", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = repo.CheckRateLimit(ctx, "client-1", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverStateRepository_HealthyPrimary(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemoryStateRepository(time.Hour)
	fallback := NewMemoryStateRepository(time.Hour)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetPresence(ctx, &domain.Presence{UserName: "X"}))

	// Write landed on the primary, not the fallback.
	got, err := primary.GetPresence(ctx, "X")
	require.NoError(t, err)
	assert.NotNil(t, got)
	got, err = fallback.GetPresence(ctx, "X")
	require.NoError(t, err)
	assert.Nil(t, got)
}
