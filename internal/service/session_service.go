package service

import (
	"context"
	"strings"
	"time"

	"wardbook/internal/domain"
	"wardbook/internal/models"

	"github.com/rs/zerolog"
)

// SessionService tracks who is using the system. The durable record is the
// user_sessions table; the state repository adds a volatile presence view
// with a TTL so "currently online" survives only as long as activity does.
type SessionService struct {
	store       domain.Store
	state       domain.StateRepository
	clock       domain.Clock
	logger      *zerolog.Logger
	presenceTTL time.Duration
}

func NewSessionService(store domain.Store, state domain.StateRepository, clk domain.Clock, logger *zerolog.Logger, presenceTTL time.Duration) *SessionService {
	return &SessionService{
		store:       store,
		state:       state,
		clock:       clk,
		logger:      logger,
		presenceTTL: presenceTTL,
	}
}

// Track registers activity for a user. The first call creates the session
// row; later calls refresh last_login in place. The returned bool reports
// whether the row was created by this call.
func (s *SessionService) Track(ctx context.Context, userName, userRole string) (*models.UserSession, bool, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, false, &domain.ValidationError{Field: "user_name", Message: "user name must not be empty"}
	}

	now := s.clock.Now()
	session, created, err := s.store.UpsertSession(ctx, userName, userRole, now)
	if err != nil {
		return nil, false, err
	}

	if s.state != nil {
		presence := &domain.Presence{UserName: userName, UserRole: userRole, LastSeen: now}
		if err := s.state.SetPresence(ctx, presence); err != nil {
			// Presence is best effort; the session row is already durable.
			s.logger.Warn().Err(err).Str("user_name", userName).Msg("failed to record presence")
		}
	}
	return session, created, nil
}

// ActiveSessions lists durable sessions that have not been deactivated,
// most recent login first.
func (s *SessionService) ActiveSessions(ctx context.Context) ([]models.UserSession, error) {
	return s.store.ListActiveSessions(ctx)
}

// Presence returns the volatile view of one user, or nil after the TTL has
// expired or when no state repository is configured.
func (s *SessionService) Presence(ctx context.Context, userName string) (*domain.Presence, error) {
	if s.state == nil {
		return nil, nil
	}
	return s.state.GetPresence(ctx, userName)
}

// ClearPresence drops the volatile entry, e.g. on explicit logout. The
// durable session row is untouched.
func (s *SessionService) ClearPresence(ctx context.Context, userName string) error {
	if s.state == nil {
		return nil
	}
	return s.state.ClearPresence(ctx, userName)
}

// PresenceTTL exposes the configured window, mostly for handlers that report it.
func (s *SessionService) PresenceTTL() time.Duration {
	return s.presenceTTL
}
