package domain

import (
	"context"
	"time"

	"wardbook/internal/models"
)

// Clock supplies the current instant, always in the deployment's fixed civil
// zone so persisted timestamps order consistently.
type Clock interface {
	Now() time.Time
}

// BookingMutator is applied to the current row inside a storage transaction.
// It returns the audit entries to append for the revision it produced; any
// error rolls the transaction back with no partial writes.
type BookingMutator func(b *models.Booking) ([]models.AuditEntry, error)

// Store is the transactional persistence surface consumed by the services.
type Store interface {
	InsertBooking(ctx context.Context, booking *models.Booking, entry models.AuditEntry) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListBookingsByRange(ctx context.Context, kind string, from, to time.Time) ([]*models.Booking, error)
	MutateBooking(ctx context.Context, id string, fn BookingMutator) (*models.Booking, error)
	FindActiveConflict(ctx context.Context, mrn, kind string) (*models.Booking, error)
	GetBookingStats(ctx context.Context) (*models.BookingStats, error)

	ListAudit(ctx context.Context, bookingID string) ([]models.AuditEntry, error)

	InsertComment(ctx context.Context, comment *models.Comment, entry models.AuditEntry) error
	ListComments(ctx context.Context, bookingID string, includeInternal bool) ([]models.Comment, error)
	ListCommentsChrono(ctx context.Context, bookingID, context string) ([]models.Comment, error)

	UpsertSession(ctx context.Context, userName, userRole string, now time.Time) (*models.UserSession, bool, error)
	ListActiveSessions(ctx context.Context) ([]models.UserSession, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string, now time.Time) error
}

// EventPublisher fans out domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload any) error
}

// Presence is a short-lived view of who is currently using the system, kept
// beside (not instead of) the persisted user_sessions table.
type Presence struct {
	UserName string    `json:"user_name"`
	UserRole string    `json:"user_role"`
	LastSeen time.Time `json:"last_seen"`
}

// StateRepository holds volatile presence and rate-limit state. Implementations
// may lose data on restart; nothing durable depends on them.
type StateRepository interface {
	GetPresence(ctx context.Context, userName string) (*Presence, error)
	SetPresence(ctx context.Context, presence *Presence) error
	ClearPresence(ctx context.Context, userName string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
