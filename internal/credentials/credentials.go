package credentials

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"wardbook/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// SettingKey is the system_settings row holding the shared staff password.
const SettingKey = "staff_password"

// DefaultPassword seeds a fresh database; deployments are expected to change
// it immediately via UpdatePassword.
const DefaultPassword = "staff2024"

// ErrWrongPassword is returned when verification fails.
var ErrWrongPassword = errors.New("wrong staff password")

// Manager guards the shared staff password. The stored value is a bcrypt
// hash; values written before hashing was introduced are plain text and get
// upgraded in place on the first successful verification.
type Manager struct {
	store  domain.Store
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewManager(store domain.Store, clk domain.Clock, logger *zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// Verify checks the supplied password against the stored hash. A missing
// setting falls back to the default password, so a fresh database is usable
// before anyone has set a real one.
func (m *Manager) Verify(ctx context.Context, password string) error {
	stored, err := m.store.GetSetting(ctx, SettingKey)
	if errors.Is(err, domain.ErrNotFound) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(DefaultPassword)) == 1 {
			return nil
		}
		return ErrWrongPassword
	}
	if err != nil {
		return fmt.Errorf("failed to load staff password: %w", err)
	}

	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			return ErrWrongPassword
		}
		return nil
	}

	// Legacy plain-text value.
	if subtle.ConstantTimeCompare([]byte(password), []byte(stored)) != 1 {
		return ErrWrongPassword
	}
	if err := m.storeHash(ctx, password); err != nil {
		m.logger.Warn().Err(err).Msg("failed to upgrade legacy staff password to bcrypt")
	}
	return nil
}

// UpdatePassword replaces the staff password after verifying the current one.
func (m *Manager) UpdatePassword(ctx context.Context, current, next string) error {
	if strings.TrimSpace(next) == "" {
		return &domain.ValidationError{Field: "new_password", Message: "new password must not be empty"}
	}
	if err := m.Verify(ctx, current); err != nil {
		return err
	}
	return m.storeHash(ctx, next)
}

func (m *Manager) storeHash(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash staff password: %w", err)
	}
	return m.store.SetSetting(ctx, SettingKey, string(hash), m.clock.Now())
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
