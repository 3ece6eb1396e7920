package credentials

import (
	"context"
	"strings"
	"testing"
	"time"

	"wardbook/internal/clock"
	"wardbook/internal/database"
	"wardbook/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*Manager, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := clock.NewManual(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return NewManager(db, clk, &logger), db
}

func TestVerify_DefaultPasswordOnFreshDatabase(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	assert.NoError(t, m.Verify(ctx, DefaultPassword))
	assert.ErrorIs(t, m.Verify(ctx, "wrong"), ErrWrongPassword)
}

func TestUpdatePassword(t *testing.T) {
	m, db := setupManager(t)
	ctx := context.Background()

	require.NoError(t, m.UpdatePassword(ctx, DefaultPassword, "new-secret"))

	assert.NoError(t, m.Verify(ctx, "new-secret"))
	assert.ErrorIs(t, m.Verify(ctx, DefaultPassword), ErrWrongPassword)

	// The stored value is a bcrypt hash, never the password itself.
	stored, err := db.GetSetting(ctx, SettingKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "$2"))
	assert.NotContains(t, stored, "new-secret")
}

func TestUpdatePassword_Validation(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()

	err := m.UpdatePassword(ctx, "wrong", "next")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = m.UpdatePassword(ctx, DefaultPassword, "  ")
	assert.True(t, domain.IsValidation(err))
}

func TestVerify_LegacyPlaintextUpgraded(t *testing.T) {
	m, db := setupManager(t)
	ctx := context.Background()

	// Simulate a value written before hashing existed.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetSetting(ctx, SettingKey, "legacy1234", now))

	assert.ErrorIs(t, m.Verify(ctx, "wrong"), ErrWrongPassword)
	require.NoError(t, m.Verify(ctx, "legacy1234"))

	// The successful verification rewrote the stored value as a hash.
	stored, err := db.GetSetting(ctx, SettingKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored, "$2"))

	// And the password still verifies against the new hash.
	assert.NoError(t, m.Verify(ctx, "legacy1234"))
}
