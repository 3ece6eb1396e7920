package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardbook/internal/domain"
	"wardbook/internal/models"
)

const bookingColumns = `id, kind, mrn, patient_name, patient_ward, procedure, urgency,
	priority_notes, special_requirements, consultant, consultant_phone,
	requesting_physician, requesting_physician_phone, anesthesia_contact,
	status, outcome, outcome_changed_at, unit, room, requested_date,
	created_by_uid, created_by_name, created_by_role,
	updated_by_uid, updated_by_name, updated_by_role,
	created_at, last_updated_at, is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var outcomeChangedAt, requestedDate sql.NullTime
	err := row.Scan(
		&b.ID, &b.Kind, &b.MRN, &b.PatientName, &b.PatientWard, &b.Procedure, &b.Urgency,
		&b.PriorityNotes, &b.SpecialRequirements, &b.Consultant, &b.ConsultantPhone,
		&b.RequestingPhysician, &b.RequestingPhysicianPhone, &b.AnesthesiaContact,
		&b.Status, &b.Outcome, &outcomeChangedAt, &b.Unit, &b.Room, &requestedDate,
		&b.CreatedBy.UID, &b.CreatedBy.Name, &b.CreatedBy.Role,
		&b.UpdatedBy.UID, &b.UpdatedBy.Name, &b.UpdatedBy.Role,
		&b.CreatedAt, &b.LastUpdatedAt, &b.IsActive,
	)
	if err != nil {
		return nil, err
	}
	if outcomeChangedAt.Valid {
		t := outcomeChangedAt.Time
		b.OutcomeChangedAt = &t
	}
	if requestedDate.Valid {
		t := requestedDate.Time
		b.RequestedDate = &t
	}
	return &b, nil
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// InsertBooking runs the admission decision and the insert as one atomic unit:
// the duplicate-active check, the booking row, and the creation audit entry
// either all commit or none do.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking, entry models.AuditEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if booking.MRN != "" {
		existing, err := findActiveConflict(ctx, tx, booking.MRN, booking.Kind)
		if err != nil {
			return fmt.Errorf("failed to check active conflict: %w", err)
		}
		if existing != nil {
			return &domain.ConflictError{
				Message: fmt.Sprintf("an active %s booking already exists for this MRN", booking.Kind),
				Existing: domain.ConflictSummary{
					ID:        existing.ID,
					Status:    existing.Status,
					Outcome:   existing.Outcome,
					Urgency:   existing.Urgency,
					CreatedAt: existing.CreatedAt,
				},
			}
		}
	}

	query := `INSERT INTO bookings (` + bookingColumns + `) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID, booking.Kind, booking.MRN, booking.PatientName, booking.PatientWard,
		booking.Procedure, booking.Urgency, booking.PriorityNotes, booking.SpecialRequirements,
		booking.Consultant, booking.ConsultantPhone,
		booking.RequestingPhysician, booking.RequestingPhysicianPhone, booking.AnesthesiaContact,
		booking.Status, booking.Outcome, optionalTime(booking.OutcomeChangedAt),
		booking.Unit, booking.Room, optionalTime(booking.RequestedDate),
		booking.CreatedBy.UID, booking.CreatedBy.Name, booking.CreatedBy.Role,
		booking.UpdatedBy.UID, booking.UpdatedBy.Name, booking.UpdatedBy.Role,
		booking.CreatedAt, booking.LastUpdatedAt, booking.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// findActiveConflict applies the kind-specific active predicate:
//
//	OR:  is_active and no outcome recorded yet
//	ICU: is_active and status pending or no_bed_available
//
// The newest matching row wins when several qualify.
func findActiveConflict(ctx context.Context, q querier, mrn, kind string) (*models.Booking, error) {
	var query string
	args := []any{mrn, kind}
	switch kind {
	case models.KindOR:
		query = `SELECT ` + bookingColumns + ` FROM bookings
			WHERE mrn = ? AND kind = ? AND is_active = 1 AND outcome = ''
			ORDER BY created_at DESC LIMIT 1`
	case models.KindICU:
		query = `SELECT ` + bookingColumns + ` FROM bookings
			WHERE mrn = ? AND kind = ? AND is_active = 1 AND status IN (?, ?)
			ORDER BY created_at DESC LIMIT 1`
		args = append(args, models.StatusPending, models.StatusNoBedAvailable)
	default:
		return nil, nil
	}

	booking, err := scanBooking(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// FindActiveConflict is the read-only admission check used by the MRN
// pre-check endpoint. It must stay byte-identical in semantics with the check
// InsertBooking runs, or the pre-check could say "free" while creation rejects.
func (db *DB) FindActiveConflict(ctx context.Context, mrn, kind string) (*models.Booking, error) {
	if mrn == "" {
		// duplicate checking is impossible without patient identity
		return nil, nil
	}
	return findActiveConflict(ctx, db.DB, mrn, kind)
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var conditions []string
	var args []any

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = 1")
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) ListBookingsByRange(ctx context.Context, kind string, from, to time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE kind = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, kind, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// MutateBooking reads the current row, applies fn, and writes the new revision
// plus its audit entries in one transaction. fn returning an error rolls back
// with nothing written; fn returning no entries is a no-op that leaves the row
// byte-for-byte untouched.
func (db *DB) MutateBooking(ctx context.Context, id string, fn domain.BookingMutator) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking in tx: %w", err)
	}

	entries, err := fn(booking)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return booking, nil
	}

	query := `UPDATE bookings SET
		mrn = ?, patient_name = ?, patient_ward = ?, procedure = ?, urgency = ?,
		priority_notes = ?, special_requirements = ?, consultant = ?, consultant_phone = ?,
		requesting_physician = ?, requesting_physician_phone = ?, anesthesia_contact = ?,
		status = ?, outcome = ?, outcome_changed_at = ?, unit = ?, room = ?, requested_date = ?,
		updated_by_uid = ?, updated_by_name = ?, updated_by_role = ?,
		last_updated_at = ?, is_active = ?
		WHERE id = ?`
	_, err = tx.ExecContext(ctx, query,
		booking.MRN, booking.PatientName, booking.PatientWard, booking.Procedure, booking.Urgency,
		booking.PriorityNotes, booking.SpecialRequirements, booking.Consultant, booking.ConsultantPhone,
		booking.RequestingPhysician, booking.RequestingPhysicianPhone, booking.AnesthesiaContact,
		booking.Status, booking.Outcome, optionalTime(booking.OutcomeChangedAt),
		booking.Unit, booking.Room, optionalTime(booking.RequestedDate),
		booking.UpdatedBy.UID, booking.UpdatedBy.Name, booking.UpdatedBy.Role,
		booking.LastUpdatedAt, booking.IsActive,
		booking.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	for _, entry := range entries {
		if err := insertAuditEntry(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking update: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingStats(ctx context.Context) (*models.BookingStats, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM bookings WHERE is_active = 1`

	var stats models.BookingStats
	err := db.QueryRowContext(ctx, query, models.KindOR, models.KindICU, models.StatusPending).
		Scan(&stats.TotalActive, &stats.OR, &stats.ICU, &stats.Pending)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &stats, nil
}
