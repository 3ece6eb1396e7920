package service

import (
	"context"
	"strings"

	"wardbook/internal/domain"
	"wardbook/internal/events"
	"wardbook/internal/metrics"
	"wardbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CommentService appends discussion notes to bookings. Comments are
// append-only; the ledger records each addition but never an edit or removal.
type CommentService struct {
	store    domain.Store
	clock    domain.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCommentService(store domain.Store, clk domain.Clock, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	return &CommentService{
		store:    store,
		clock:    clk,
		eventBus: eventBus,
		logger:   logger,
	}
}

// AddCommentInput carries a new comment. AuthorUID is optional; legacy
// clients only send a display name and role.
type AddCommentInput struct {
	BookingID  string `json:"booking_id"`
	Message    string `json:"message"`
	AuthorUID  string `json:"author_uid"`
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role"`
	IsInternal bool   `json:"is_internal"`
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, &domain.ValidationError{Field: "message", Message: "comment message must not be empty"}
	}
	if strings.TrimSpace(in.AuthorName) == "" {
		return nil, &domain.ValidationError{Field: "author_name", Message: "comment author name must not be empty"}
	}

	now := s.clock.Now()
	comment := &models.Comment{
		ID:         uuid.NewString(),
		BookingID:  in.BookingID,
		Message:    in.Message,
		AuthorUID:  in.AuthorUID,
		AuthorName: in.AuthorName,
		AuthorRole: in.AuthorRole,
		IsInternal: in.IsInternal,
		CreatedAt:  now,
	}

	entry := models.AuditEntry{
		BookingID:     in.BookingID,
		Action:        models.ActionCommentAdded,
		ChangedByName: in.AuthorName,
		ChangedByRole: in.AuthorRole,
		Timestamp:     now,
		Notes:         "Comment added",
	}

	if err := s.store.InsertComment(ctx, comment, entry); err != nil {
		return nil, err
	}

	metrics.IncTransition(strings.ToUpper(comment.Context), models.ActionCommentAdded)
	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID:     in.BookingID,
			Kind:          strings.ToUpper(comment.Context),
			ChangedBy:     in.AuthorName,
			ChangedByRole: in.AuthorRole,
			OccurredAt:    now,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Str("booking_id", in.BookingID).Msg("publish event error")
		}
	}
	return comment, nil
}

// ListComments returns a booking's comments newest first. Internal comments
// are filtered out unless the caller is allowed to see them.
func (s *CommentService) ListComments(ctx context.Context, bookingID string, includeInternal bool) ([]models.Comment, error) {
	return s.store.ListComments(ctx, bookingID, includeInternal)
}

// ListCommentsChrono is the legacy ordering: oldest first, optionally
// restricted to one booking kind context.
func (s *CommentService) ListCommentsChrono(ctx context.Context, bookingID, commentContext string) ([]models.Comment, error) {
	if commentContext != "" {
		kind := strings.ToUpper(commentContext)
		if !models.ValidKind(kind) {
			return nil, &domain.ValidationError{
				Field: "context", Value: commentContext,
				Allowed: []string{strings.ToLower(models.KindOR), strings.ToLower(models.KindICU)},
			}
		}
		commentContext = strings.ToLower(commentContext)
	}
	return s.store.ListCommentsChrono(ctx, bookingID, commentContext)
}
