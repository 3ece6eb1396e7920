package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wardbook/internal/models"
)

// UpsertSession creates a presence row for a new user name or refreshes
// last_login on the existing one. The returned bool is true when a new
// session row was created.
func (db *DB) UpsertSession(ctx context.Context, userName, userRole string, now time.Time) (*models.UserSession, bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var session models.UserSession
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_name, user_role, last_login, is_active FROM user_sessions WHERE user_name = ?`,
		userName,
	).Scan(&session.ID, &session.UserName, &session.UserRole, &session.LastLogin, &session.IsActive)

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_sessions (user_name, user_role, last_login, is_active) VALUES (?, ?, ?, 1)`,
			userName, userRole, now,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert session: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, false, fmt.Errorf("failed to get session id: %w", err)
		}
		session = models.UserSession{ID: id, UserName: userName, UserRole: userRole, LastLogin: now, IsActive: true}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up session: %w", err)
	default:
		_, err := tx.ExecContext(ctx,
			`UPDATE user_sessions SET last_login = ?, is_active = 1 WHERE user_name = ?`,
			now, userName,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to refresh session: %w", err)
		}
		session.LastLogin = now
		session.IsActive = true
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit session: %w", err)
	}
	return &session, created, nil
}

func (db *DB) ListActiveSessions(ctx context.Context) ([]models.UserSession, error) {
	query := `SELECT id, user_name, user_role, last_login, is_active
		FROM user_sessions WHERE is_active = 1 ORDER BY last_login DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.UserSession
	for rows.Next() {
		var s models.UserSession
		if err := rows.Scan(&s.ID, &s.UserName, &s.UserRole, &s.LastLogin, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
