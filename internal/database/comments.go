package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wardbook/internal/domain"
	"wardbook/internal/models"
)

// InsertComment verifies the parent booking, freezes the comment's context
// from the parent's kind, and writes the comment plus its comment_added audit
// entry in one transaction.
func (db *DB) InsertComment(ctx context.Context, comment *models.Comment, entry models.AuditEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var kind string
	err = tx.QueryRowContext(ctx, `SELECT kind FROM bookings WHERE id = ?`, comment.BookingID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up booking for comment: %w", err)
	}
	comment.Context = strings.ToLower(kind)

	query := `INSERT INTO comments
		(id, booking_id, message, context, author_uid, author_name, author_role, is_internal, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		comment.ID, comment.BookingID, comment.Message, comment.Context,
		comment.AuthorUID, comment.AuthorName, comment.AuthorRole,
		comment.IsInternal, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

const commentColumns = `id, booking_id, message, context, author_uid, author_name, author_role, is_internal, created_at`

func scanComments(rows *sql.Rows) ([]models.Comment, error) {
	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(
			&c.ID, &c.BookingID, &c.Message, &c.Context,
			&c.AuthorUID, &c.AuthorName, &c.AuthorRole, &c.IsInternal, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListComments is the primary listing: newest first, internal notes excluded
// unless asked for.
func (db *DB) ListComments(ctx context.Context, bookingID string, includeInternal bool) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE booking_id = ?`
	if !includeInternal {
		query += ` AND is_internal = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}

// ListCommentsChrono is the legacy listing path: ascending creation order with
// an optional context filter. Callers depend on this ordering; it is not the
// same operation as ListComments.
func (db *DB) ListCommentsChrono(ctx context.Context, bookingID, context string) ([]models.Comment, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, bookingID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up booking for comments: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + commentColumns + ` FROM comments WHERE booking_id = ?`
	args := []any{bookingID}
	if context != "" {
		query += ` AND context = ?`
		args = append(args, context)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}
