package database

import (
	"context"
	"fmt"
	"time"
)

// LoginAttemptRepository records failed logins per username and per IP
type LoginAttemptRepository struct {
	db DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// Attempts returns the attempt times after since, newest first
func (r *LoginAttemptRepository) Attempts(ctx context.Context, identifier, kind string, since time.Time) ([]time.Time, error) {
	query := r.db.Rebind(`
		SELECT created_at
		FROM login_attempts
		WHERE identifier = ?
		  AND identifier_type = ?
		  AND created_at > ?
		ORDER BY created_at DESC
	`)

	times := []time.Time{}
	if err := r.db.SelectContext(ctx, &times, query, identifier, kind, since); err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return times, nil
}

// RecordAttempt inserts one attempt
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, identifier, kind string, at time.Time) error {
	query := r.db.Rebind(`
		INSERT INTO login_attempts (identifier, identifier_type, created_at)
		VALUES (?, ?, ?)
	`)

	if _, err := r.db.ExecContext(ctx, query, identifier, kind, at); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// ClearAttempts forgets the attempts of one identifier
func (r *LoginAttemptRepository) ClearAttempts(ctx context.Context, identifier, kind string) error {
	query := r.db.Rebind(`DELETE FROM login_attempts WHERE identifier = ? AND identifier_type = ?`)
	if _, err := r.db.ExecContext(ctx, query, identifier, kind); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

// DeleteAttemptsBefore removes attempts created before the cutoff
func (r *LoginAttemptRepository) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM login_attempts WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
