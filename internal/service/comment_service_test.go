package service

import (
	"context"
	"testing"
	"time"

	"wardbook/internal/clock"
	"wardbook/internal/database"
	"wardbook/internal/domain"
	"wardbook/internal/events"
	"wardbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentFixture struct {
	bookings *BookingService
	comments *CommentService
	clock    *clock.Manual
}

func setupCommentService(t *testing.T) *commentFixture {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := clock.NewManual(time.Date(2026, 3, 10, 9, 0, 0, 0, testZone))
	bus := events.NewEventBus()
	return &commentFixture{
		bookings: NewBookingService(db, clk, bus, &logger),
		comments: NewCommentService(db, clk, bus, &logger),
		clock:    clk,
	}
}

func TestAddComment(t *testing.T) {
	f := setupCommentService(t)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, icuInput("MRN-200"))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	comment, err := f.comments.AddComment(ctx, AddCommentInput{
		BookingID:  booking.ID,
		Message:    "family informed",
		AuthorName: "Nurse Kim",
		AuthorRole: "icu_nurse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "icu", comment.Context)
	assert.True(t, comment.CreatedAt.Equal(f.clock.Now()))

	// The addition shows up in the booking's ledger too.
	entries, err := f.bookings.AuditLog(ctx, booking.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionCommentAdded, entries[0].Action)
	assert.Equal(t, "Nurse Kim", entries[0].ChangedByName)
}

func TestAddComment_Validation(t *testing.T) {
	f := setupCommentService(t)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, orInput("MRN-201"))
	require.NoError(t, err)

	_, err = f.comments.AddComment(ctx, AddCommentInput{
		BookingID: booking.ID, Message: "  ", AuthorName: "Nurse Kim",
	})
	assert.True(t, domain.IsValidation(err))

	_, err = f.comments.AddComment(ctx, AddCommentInput{
		BookingID: booking.ID, Message: "note", AuthorName: "",
	})
	assert.True(t, domain.IsValidation(err))

	_, err = f.comments.AddComment(ctx, AddCommentInput{
		BookingID: "missing", Message: "note", AuthorName: "Nurse Kim",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCommentsChrono_ContextValidation(t *testing.T) {
	f := setupCommentService(t)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, orInput("MRN-202"))
	require.NoError(t, err)

	_, err = f.comments.AddComment(ctx, AddCommentInput{
		BookingID: booking.ID, Message: "first", AuthorName: "A",
	})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.comments.AddComment(ctx, AddCommentInput{
		BookingID: booking.ID, Message: "second", AuthorName: "B", IsInternal: true,
	})
	require.NoError(t, err)

	// Legacy path: chronological, case-insensitive context, internal included.
	comments, err := f.comments.ListCommentsChrono(ctx, booking.ID, "OR")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Message)

	_, err = f.comments.ListCommentsChrono(ctx, booking.ID, "ward")
	assert.True(t, domain.IsValidation(err))

	// Primary path hides internal notes by default.
	visible, err := f.comments.ListComments(ctx, booking.ID, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "first", visible[0].Message)
}
