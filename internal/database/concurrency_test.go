package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wardbook/internal/domain"
	"wardbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAdmission(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, testZone)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			b := newTestBooking(models.KindOR, "MRN-RACE", now.Add(time.Duration(id)*time.Millisecond))
			results <- db.InsertBooking(ctx, b, creationEntry(b.ID, b.CreatedAt))
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	conflictCount := 0
	for err := range results {
		switch {
		case err == nil:
			successCount++
		case domain.IsConflict(err):
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The check-then-insert runs inside one write transaction, so exactly one
	// racer wins regardless of interleaving.
	assert.Equal(t, 1, successCount, "exactly one admission should succeed")
	assert.Equal(t, numGoroutines-1, conflictCount)

	bookings, err := db.ListBookings(ctx, models.BookingFilter{Kind: models.KindOR, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestConcurrentAdmission_DifferentMRNsAllSucceed(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency_mrn.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, testZone)

	const numGoroutines = 8
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			mrn := "MRN-" + string(rune('A'+id))
			b := newTestBooking(models.KindICU, mrn, now)
			results <- db.InsertBooking(ctx, b, creationEntry(b.ID, b.CreatedAt))
		}(i)
	}

	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}

	bookings, err := db.ListBookings(ctx, models.BookingFilter{Kind: models.KindICU})
	require.NoError(t, err)
	assert.Len(t, bookings, numGoroutines)
}
