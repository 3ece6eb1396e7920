package repository

import (
	"context"
	"sync/atomic"
	"time"

	"wardbook/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverStateRepository routes to the primary (Redis) until it errors, then
// serves from the in-memory fallback and probes the primary once a minute.
type FailoverStateRepository struct {
	primary   domain.StateRepository
	fallback  domain.StateRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverStateRepository) GetPresence(ctx context.Context, userName string) (*domain.Presence, error) {
	if !r.isDown.Load() {
		presence, err := r.primary.GetPresence(ctx, userName)
		if err == nil {
			return presence, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		presence, err := r.primary.GetPresence(ctx, userName)
		if err == nil {
			r.isDown.Store(false)
			return presence, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetPresence(ctx, userName)
}

func (r *FailoverStateRepository) SetPresence(ctx context.Context, presence *domain.Presence) error {
	if !r.isDown.Load() {
		err := r.primary.SetPresence(ctx, presence)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetPresence(ctx, presence)
}

func (r *FailoverStateRepository) ClearPresence(ctx context.Context, userName string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearPresence(ctx, userName)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearPresence(ctx, userName)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
