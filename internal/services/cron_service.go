package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// auditRetention is how long audit rows are kept by the weekly cleanup
const auditRetention = 90 * 24 * time.Hour

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	backupSvc *BackupService
	auditSvc  *AuditService
	throttle  *RateLimitService
	schedule  string
	logger    logrus.FieldLogger
}

// NewCronService creates a new CronService. schedule uses the six-field format
// (second minute hour day month weekday); an empty schedule disables the snapshot
// sync job. auditSvc may be nil.
func NewCronService(backupSvc *BackupService, auditSvc *AuditService, schedule string, logger logrus.FieldLogger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		backupSvc: backupSvc,
		auditSvc:  auditSvc,
		schedule:  schedule,
		logger:    logger,
	}
}

// WithLoginThrottle adds an hourly cleanup of expired login attempts
func (s *CronService) WithLoginThrottle(throttle *RateLimitService) *CronService {
	s.throttle = throttle
	return s
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.backupSyncJob); err != nil {
			return fmt.Errorf("failed to schedule backup sync job: %w", err)
		}
		s.logger.WithField("schedule", s.schedule).Info("Scheduled: snapshot sync")
	}

	if s.auditSvc != nil {
		// Sundays at 4:00
		if _, err := s.cron.AddFunc("0 0 4 * * 0", s.cleanupAuditJob); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
		}
		s.logger.Info("Scheduled: audit log cleanup (Sundays at 4:00 AM)")
	}

	if s.throttle != nil {
		if _, err := s.cron.AddFunc("0 15 * * * *", s.cleanupLoginAttemptsJob); err != nil {
			return fmt.Errorf("failed to schedule login attempt cleanup job: %w", err)
		}
		s.logger.Info("Scheduled: login attempt cleanup (hourly)")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) backupSyncJob() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	path, err := s.backupSvc.Sync(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Snapshot sync failed")
		return
	}
	s.logger.WithFields(logrus.Fields{"path": path, "duration": time.Since(start)}).Info("[CRON] Snapshot written")
}

func (s *CronService) cleanupAuditJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.auditSvc.CleanupOldAuditLogs(ctx, auditRetention)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Audit cleanup failed")
		return
	}
	s.logger.WithField("removed", removed).Info("[CRON] Audit logs cleaned up")
}

func (s *CronService) cleanupLoginAttemptsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.throttle.Cleanup(ctx); err != nil {
		s.logger.WithError(err).Error("[CRON] Login attempt cleanup failed")
	}
}

// RunBackupSyncNow runs the snapshot sync immediately
func (s *CronService) RunBackupSyncNow() {
	s.backupSyncJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
