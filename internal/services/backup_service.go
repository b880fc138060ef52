package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// Backup log statuses
const (
	BackupStatusExported     = "Manual Export"
	BackupStatusImported     = "Snapshot Import"
	BackupStatusImportFailed = "Snapshot Import Failed"
	BackupStatusSynced       = "Scheduled Sync"
	BackupStatusSyncFailed   = "Scheduled Sync Failed"
)

// BackupService exports and imports snapshots of the record set
type BackupService struct {
	snapshots SnapshotStore
	users     UserLookup
	dir       string
	logger    logrus.FieldLogger
}

// NewBackupService creates a new backup service; dir receives scheduled snapshot files
func NewBackupService(snapshots SnapshotStore, users UserLookup, dir string, logger logrus.FieldLogger) *BackupService {
	return &BackupService{
		snapshots: snapshots,
		users:     users,
		dir:       dir,
		logger:    logger,
	}
}

// SnapshotFilename names a snapshot taken at t
func SnapshotFilename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "DIZ_Snapshot_" + strings.NewReplacer(":", "-", ".", "-").Replace(stamp) + ".json"
}

func (s *BackupService) requireAdmin(actorID string) error {
	a, err := actor(s.users, actorID)
	if err != nil {
		return err
	}
	if a.Role != models.RoleManager && !a.HasPermission(models.PermissionAllAccess) {
		return forbidden("snapshots require a manager")
	}
	return nil
}

// Export returns the snapshot document and its download name
func (s *BackupService) Export(ctx context.Context, actorID string) ([]byte, string, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, "", err
	}

	data, err := s.snapshots.Export()
	if err != nil {
		return nil, "", fmt.Errorf("failed to export snapshot: %w", err)
	}

	entry, err := s.snapshots.AppendBackupLog(ctx, BackupStatusExported)
	if err != nil {
		return nil, "", fmt.Errorf("failed to record backup: %w", err)
	}

	return data, SnapshotFilename(entry.Date), nil
}

// Import replaces the collections present in the document.
// A malformed document returns false and leaves every collection untouched.
func (s *BackupService) Import(ctx context.Context, actorID string, data []byte) (bool, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return false, err
	}

	ok, err := s.snapshots.Import(ctx, data)
	if err != nil {
		return false, fmt.Errorf("failed to import snapshot: %w", err)
	}

	status := BackupStatusImported
	if !ok {
		status = BackupStatusImportFailed
	}
	if _, err := s.snapshots.AppendBackupLog(ctx, status); err != nil {
		return ok, fmt.Errorf("failed to record backup: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"by": actorID, "ok": ok}).Info("Snapshot import")
	return ok, nil
}

// Logs returns the backup trail
func (s *BackupService) Logs(actorID string) ([]models.BackupLog, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	return s.snapshots.ListBackupLogs(), nil
}

// Sync writes a snapshot file into the backup directory and returns its path
func (s *BackupService) Sync(ctx context.Context) (string, error) {
	path, err := s.writeSnapshot()
	status := BackupStatusSynced
	if err != nil {
		status = BackupStatusSyncFailed
	}

	if _, logErr := s.snapshots.AppendBackupLog(ctx, status); logErr != nil {
		s.logger.WithError(logErr).Warn("Failed to record scheduled sync")
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func (s *BackupService) writeSnapshot() (string, error) {
	data, err := s.snapshots.Export()
	if err != nil {
		return "", fmt.Errorf("failed to export snapshot: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	path := filepath.Join(s.dir, SnapshotFilename(s.users.Now()))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	return path, nil
}
