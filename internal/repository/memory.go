package repository

import (
	"context"
	"sync"
	"time"

	"wardbook/internal/domain"
)

type MemoryStateRepository struct {
	presences sync.Map
	ttl       time.Duration

	mu         sync.Mutex
	rateLimits map[string]rateLimitEntry
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl:        ttl,
		rateLimits: make(map[string]rateLimitEntry),
	}
}

type presenceEntry struct {
	presence  *domain.Presence
	expiresAt time.Time
}

func (r *MemoryStateRepository) GetPresence(ctx context.Context, userName string) (*domain.Presence, error) {
	val, ok := r.presences.Load(userName)
	if !ok {
		return nil, nil
	}
	entry := val.(*presenceEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.presences.Delete(userName)
		return nil, nil
	}
	return entry.presence, nil
}

func (r *MemoryStateRepository) SetPresence(ctx context.Context, presence *domain.Presence) error {
	r.presences.Store(presence.UserName, &presenceEntry{
		presence:  presence,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryStateRepository) ClearPresence(ctx context.Context, userName string) error {
	r.presences.Delete(userName)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry.count++
	}
	r.rateLimits[key] = entry

	return entry.count <= limit, nil
}
