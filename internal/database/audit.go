package database

import (
	"context"
	"database/sql"
	"fmt"

	"wardbook/internal/models"
)

// insertAuditEntry appends one ledger row inside the caller's transaction.
// There is no update or delete counterpart on purpose.
func insertAuditEntry(ctx context.Context, tx *sql.Tx, entry models.AuditEntry) error {
	query := `INSERT INTO audit_entries
		(booking_id, action, field_changed, old_value, new_value, changed_by_name, changed_by_role, timestamp, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query,
		entry.BookingID, entry.Action, entry.FieldChanged, entry.OldValue, entry.NewValue,
		entry.ChangedByName, entry.ChangedByRole, entry.Timestamp, entry.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (db *DB) ListAudit(ctx context.Context, bookingID string) ([]models.AuditEntry, error) {
	query := `SELECT id, booking_id, action, field_changed, old_value, new_value,
		changed_by_name, changed_by_role, timestamp, notes
		FROM audit_entries WHERE booking_id = ?
		ORDER BY timestamp DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		err := rows.Scan(
			&e.ID, &e.BookingID, &e.Action, &e.FieldChanged, &e.OldValue, &e.NewValue,
			&e.ChangedByName, &e.ChangedByRole, &e.Timestamp, &e.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
