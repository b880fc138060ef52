package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// CollectionRepository stores each portal collection as one JSON payload row
type CollectionRepository struct {
	db  DB
	now func() time.Time
}

// NewCollectionRepository creates a new CollectionRepository
func NewCollectionRepository(db DB) *CollectionRepository {
	return &CollectionRepository{db: db, now: time.Now}
}

// Load returns the payload of a collection, or nil if it has never been saved
func (r *CollectionRepository) Load(ctx context.Context, name string) ([]byte, error) {
	query := r.db.Rebind(`SELECT payload FROM portal_collections WHERE name = ?`)

	var payload string
	err := r.db.GetContext(ctx, &payload, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
	}

	return []byte(payload), nil
}

// SaveAll upserts every collection inside one transaction
func (r *CollectionRepository) SaveAll(ctx context.Context, collections map[string][]byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.db.Rebind(`
		INSERT INTO portal_collections (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`)

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	now := r.now().UTC()
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, query, name, string(collections[name]), now); err != nil {
			return fmt.Errorf("failed to save collection %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collections: %w", err)
	}

	return nil
}

// Clear deletes every stored collection
func (r *CollectionRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portal_collections`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear collections: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
