package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wardbook/internal/clock"
	"wardbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "source.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	clk := clock.NewManual(time.Date(2026, 1, 15, 9, 30, 0, 0, testZone))
	backupDir := t.TempDir()
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, clk, &logger)

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "backup_20260115_093000.db", files[0].Name())
}

func TestCleanupOldBackups(t *testing.T) {
	logger := zerolog.Nop()
	backupDir := t.TempDir()
	now := time.Date(2026, 1, 15, 9, 30, 0, 0, testZone)

	oldFile := filepath.Join(backupDir, "backup_old.db")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
	past := now.AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	freshFile := filepath.Join(backupDir, "backup_fresh.db")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0o644))

	strayFile := filepath.Join(backupDir, "notes.txt")
	require.NoError(t, os.WriteFile(strayFile, []byte("keep"), 0o644))
	require.NoError(t, os.Chtimes(strayFile, past, past))

	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		StoragePath:   backupDir,
		RetentionDays: 14,
	}, clock.NewManual(now), &logger)

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
	assert.FileExists(t, strayFile)
}

func TestCleanupOldBackups_RetentionDisabled(t *testing.T) {
	logger := zerolog.Nop()
	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:     true,
		StoragePath: t.TempDir(),
	}, clock.NewManual(time.Now()), &logger)
	assert.Zero(t, svc.CleanupOldBackups())
}
