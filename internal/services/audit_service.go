package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/database"
	"github.com/dukemzone/kpi-portal/internal/utils"
)

// AuditWriter persists audit rows
type AuditWriter interface {
	Insert(ctx context.Context, log database.AuditLog, details map[string]interface{}) error
	Recent(ctx context.Context, userID string, limit int) ([]database.AuditLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditService handles audit logging for security and approval events
type AuditService struct {
	repo   AuditWriter
	logger logrus.FieldLogger
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditWriter, logger logrus.FieldLogger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     string // empty for pre-authentication events
	Action     string // login_success, login_failed, passcode_set, entry_rejected, ...
	EntityType string // user, entry, kpi, snapshot
	EntityID   string
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(ctx context.Context, userID, username, ipAddress, userAgent string, success bool) error {
	action := "login_failed"
	if success {
		action = "login_success"
	}

	return s.logEvent(ctx, AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"username": username,
			"success":  success,
		},
	})
}

// LogTokenRefresh logs a refresh token usage event
func (s *AuditService) LogTokenRefresh(ctx context.Context, userID, ipAddress, userAgent string, success bool) error {
	action := "token_refresh_success"
	if !success {
		action = "token_refresh_failed"
	}

	return s.logEvent(ctx, AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "token",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"success": success},
	})
}

// LogCredentialChange logs a passcode being set or changed
func (s *AuditService) LogCredentialChange(ctx context.Context, userID, action, ipAddress, userAgent string, success bool) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "credential",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"success": success},
	})
}

// LogDecision logs an approval pipeline decision on an entry or a KPI
func (s *AuditService) LogDecision(ctx context.Context, actorID, action, entityType, entityID, ipAddress, userAgent string, details map[string]interface{}) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogSnapshot logs an export or import of the record set
func (s *AuditService) LogSnapshot(ctx context.Context, actorID, action, ipAddress, userAgent string, success bool) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     actorID,
		Action:     action,
		EntityType: "snapshot",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    map[string]interface{}{"success": success},
	})
}

// logEvent writes one row; device info is parsed from the user agent
func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	details := event.Details
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(event.UserAgent)

	row := database.AuditLog{
		UserID:     nullable(event.UserID),
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   nullable(event.EntityID),
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
	}

	if err := s.repo.Insert(ctx, row, details); err != nil {
		s.logger.WithError(err).WithField("action", event.Action).Warn("Audit write failed")
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for a user; an empty userID lists all users
func (s *AuditService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]database.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.Recent(ctx, userID, limit)
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-olderThan))
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
