package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wardbook/internal/domain"
)

func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT setting_value FROM system_settings WHERE setting_key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) SetSetting(ctx context.Context, key, value string, now time.Time) error {
	query := `INSERT INTO system_settings (setting_key, setting_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET
			setting_value = excluded.setting_value,
			updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, key, value, now); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
