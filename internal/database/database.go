package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection. sqlite's single-writer model is what
// serializes the admission-control critical section: the conflict check and
// the insert run inside one write transaction.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps every transaction on the single sqlite writer,
	// which is the lock the admission-control critical section relies on.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            mrn TEXT NOT NULL DEFAULT '',
            patient_name TEXT NOT NULL DEFAULT '',
            patient_ward TEXT NOT NULL DEFAULT '',
            procedure TEXT NOT NULL DEFAULT '',
            urgency TEXT NOT NULL DEFAULT '',
            priority_notes TEXT NOT NULL DEFAULT '',
            special_requirements TEXT NOT NULL DEFAULT '',
            consultant TEXT NOT NULL DEFAULT '',
            consultant_phone TEXT NOT NULL DEFAULT '',
            requesting_physician TEXT NOT NULL DEFAULT '',
            requesting_physician_phone TEXT NOT NULL DEFAULT '',
            anesthesia_contact TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            outcome TEXT NOT NULL DEFAULT '',
            outcome_changed_at DATETIME,
            unit TEXT NOT NULL DEFAULT '',
            room TEXT NOT NULL DEFAULT '',
            requested_date DATETIME,
            created_by_uid TEXT NOT NULL DEFAULT '',
            created_by_name TEXT NOT NULL DEFAULT '',
            created_by_role TEXT NOT NULL DEFAULT '',
            updated_by_uid TEXT NOT NULL DEFAULT '',
            updated_by_name TEXT NOT NULL DEFAULT '',
            updated_by_role TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            last_updated_at DATETIME NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,

		// Append-only; rows are never updated or deleted, and deliberately no
		// cascade: the ledger outlives everything.
		`CREATE TABLE IF NOT EXISTS audit_entries (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id TEXT NOT NULL REFERENCES bookings(id),
            action TEXT NOT NULL,
            field_changed TEXT NOT NULL DEFAULT '',
            old_value TEXT NOT NULL DEFAULT '',
            new_value TEXT NOT NULL DEFAULT '',
            changed_by_name TEXT NOT NULL DEFAULT '',
            changed_by_role TEXT NOT NULL DEFAULT '',
            timestamp DATETIME NOT NULL,
            notes TEXT NOT NULL DEFAULT ''
        )`,

		`CREATE TABLE IF NOT EXISTS comments (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
            message TEXT NOT NULL,
            context TEXT NOT NULL DEFAULT '',
            author_uid TEXT NOT NULL DEFAULT '',
            author_name TEXT NOT NULL,
            author_role TEXT NOT NULL,
            is_internal BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS user_sessions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_name TEXT NOT NULL UNIQUE,
            user_role TEXT NOT NULL,
            last_login DATETIME NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,

		`CREATE TABLE IF NOT EXISTS system_settings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            setting_key TEXT NOT NULL UNIQUE,
            setting_value TEXT NOT NULL,
            updated_at DATETIME NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_mrn_kind ON bookings(mrn, kind)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_kind ON bookings(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_booking_id ON audit_entries(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_booking_id ON comments(booking_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
