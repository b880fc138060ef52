package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Identifier kinds tracked by the login throttle
const (
	AttemptByUsername = "username"
	AttemptByIP       = "ip"
)

// LoginAttemptStore persists failed login attempts
type LoginAttemptStore interface {
	Attempts(ctx context.Context, identifier, kind string, since time.Time) ([]time.Time, error)
	RecordAttempt(ctx context.Context, identifier, kind string, at time.Time) error
	ClearAttempts(ctx context.Context, identifier, kind string) error
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitConfig holds login throttling limits
type RateLimitConfig struct {
	MaxUsernameAttempts int           // Max failed logins per username
	UsernameWindow      time.Duration // Time window for the username limit
	MaxIPAttempts       int           // Max failed logins per IP
	IPWindow            time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default login throttling configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxUsernameAttempts: 5,
		UsernameWindow:      15 * time.Minute,
		MaxIPAttempts:       20,
		IPWindow:            time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimitService throttles repeated failed logins
type RateLimitService struct {
	store  LoginAttemptStore
	config RateLimitConfig
	now    func() time.Time
	logger logrus.FieldLogger
}

// NewRateLimitService creates a new rate limit service. Zero limits fall back to the defaults.
func NewRateLimitService(store LoginAttemptStore, config RateLimitConfig, logger logrus.FieldLogger) *RateLimitService {
	defaults := DefaultRateLimitConfig()
	if config.MaxUsernameAttempts <= 0 {
		config.MaxUsernameAttempts = defaults.MaxUsernameAttempts
	}
	if config.UsernameWindow <= 0 {
		config.UsernameWindow = defaults.UsernameWindow
	}
	if config.MaxIPAttempts <= 0 {
		config.MaxIPAttempts = defaults.MaxIPAttempts
	}
	if config.IPWindow <= 0 {
		config.IPWindow = defaults.IPWindow
	}

	return &RateLimitService{
		store:  store,
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source
func (s *RateLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// CheckLogin returns a *RateLimitError when the username or IP is locked out
func (s *RateLimitService) CheckLogin(ctx context.Context, username, ip string) error {
	username = normalizeIdentifier(username)

	if username != "" {
		if err := s.check(ctx, username, AttemptByUsername, s.config.MaxUsernameAttempts, s.config.UsernameWindow,
			"Too many failed logins for this account"); err != nil {
			return err
		}
	}

	if ip != "" {
		if err := s.check(ctx, ip, AttemptByIP, s.config.MaxIPAttempts, s.config.IPWindow,
			"Too many failed logins from this IP address"); err != nil {
			return err
		}
	}

	return nil
}

func (s *RateLimitService) check(ctx context.Context, identifier, kind string, max int, window time.Duration, message string) error {
	attempts, err := s.store.Attempts(ctx, identifier, kind, s.now().Add(-window))
	if err != nil {
		return fmt.Errorf("failed to check %s rate limit: %w", kind, err)
	}

	if len(attempts) < max {
		return nil
	}

	// The lockout lifts once the oldest counted attempt leaves the window.
	retryAfter := attempts[max-1].Add(window)
	return &RateLimitError{
		Message:    fmt.Sprintf("%s. Please try again after %s", message, retryAfter.UTC().Format("15:04:05")),
		RetryAfter: retryAfter,
		Type:       kind,
	}
}

// RecordFailure counts a failed login against both the username and the IP
func (s *RateLimitService) RecordFailure(ctx context.Context, username, ip string) error {
	now := s.now()
	username = normalizeIdentifier(username)

	if username != "" {
		if err := s.store.RecordAttempt(ctx, username, AttemptByUsername, now); err != nil {
			return fmt.Errorf("failed to record username attempt: %w", err)
		}
	}

	if ip != "" {
		if err := s.store.RecordAttempt(ctx, ip, AttemptByIP, now); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

// Reset clears the username counter after a successful login
func (s *RateLimitService) Reset(ctx context.Context, username string) error {
	username = normalizeIdentifier(username)
	if username == "" {
		return nil
	}
	return s.store.ClearAttempts(ctx, username, AttemptByUsername)
}

// Cleanup removes attempts older than the longest window
func (s *RateLimitService) Cleanup(ctx context.Context) (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.UsernameWindow > maxWindow {
		maxWindow = s.config.UsernameWindow
	}

	removed, err := s.store.DeleteAttemptsBefore(ctx, s.now().Add(-maxWindow))
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Expired login attempts cleaned up")
	}
	return removed, nil
}

func normalizeIdentifier(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
