package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wardbook/internal/config"
	"wardbook/internal/domain"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const backupFilePrefix = "backup_"

// BackupService periodically snapshots the sqlite file. The audit ledger is
// the permanent record, so backups are part of the storage contract rather
// than an optional extra.
type BackupService struct {
	dbPath string
	cfg    config.BackupConfig
	clock  domain.Clock
	logger *zerolog.Logger
}

func NewBackupService(dbPath string, cfg config.BackupConfig, clk domain.Clock, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath: dbPath,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

// Run takes a snapshot immediately, then on every tick until ctx ends.
func (s *BackupService) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	interval := s.interval()
	s.logger.Info().Dur("interval", interval).Str("path", s.cfg.StoragePath).Msg("backup loop started")

	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

func (s *BackupService) interval() time.Duration {
	if s.cfg.Schedule == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(s.cfg.Schedule)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule", s.cfg.Schedule).Msg("unparsable backup schedule, using 24h")
		return 24 * time.Hour
	}
	return d
}

// PerformBackup snapshots the database via VACUUM INTO, which is safe while
// the service keeps writing. A plain file copy is the fallback when the
// sqlite build lacks it.
func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	stamp := s.clock.Now().Format("20060102_150405")
	target := filepath.Join(s.cfg.StoragePath, backupFilePrefix+stamp+".db")

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", target)); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		if err := s.copyDatabaseFile(target); err != nil {
			return fmt.Errorf("fallback copy: %w", err)
		}
	}

	s.logger.Info().Str("file", filepath.Base(target)).Msg("backup written")
	return nil
}

func (s *BackupService) copyDatabaseFile(target string) error {
	source, err := os.Open(s.dbPath)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dest.Close()

	// Not atomic for sqlite; acceptable only as a last resort.
	_, err = io.Copy(dest, source)
	return err
}

// CleanupOldBackups removes backup files older than the retention window and
// reports how many were deleted. Files without the backup prefix are left
// alone.
func (s *BackupService) CleanupOldBackups() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("cannot scan backup directory")
		return 0
	}

	cutoff := s.clock.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupFilePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("cannot delete old backup")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("old backups deleted")
	}
	return removed
}
