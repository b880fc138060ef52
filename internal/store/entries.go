package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListEntries returns every daily entry
func (s *Store) ListEntries() []models.DailyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.entries, models.DailyEntry.Clone)
}

// GetEntry returns a daily entry by id
func (s *Store) GetEntry(id string) (*models.DailyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.entries, func(e *models.DailyEntry) bool { return e.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	e := s.state.entries[i].Clone()
	return &e, nil
}

// CreateEntry appends a daily entry
func (s *Store) CreateEntry(ctx context.Context, entry models.DailyEntry) error {
	return s.mutate(ctx, func(st *state) error {
		st.entries = append(st.entries, entry.Clone())
		return nil
	})
}

// UpdateEntries applies fn to every entry and persists once; fn reports whether it changed the entry
func (s *Store) UpdateEntries(ctx context.Context, fn func(*models.DailyEntry) bool) (int, error) {
	changed := 0
	err := s.mutate(ctx, func(st *state) error {
		for i := range st.entries {
			if fn(&st.entries[i]) {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// UpdateEntry applies fn to one entry
func (s *Store) UpdateEntry(ctx context.Context, id string, fn func(*models.DailyEntry) error) (*models.DailyEntry, error) {
	var updated models.DailyEntry
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.entries, func(e *models.DailyEntry) bool { return e.ID == id })
		if i < 0 {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		if err := fn(&st.entries[i]); err != nil {
			return err
		}
		updated = st.entries[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RejectEntry deletes an entry and delivers the notice built by notify in a single write.
// Either both changes are persisted or neither is. An error from notify leaves the entry in place.
func (s *Store) RejectEntry(ctx context.Context, id string, notify func(models.DailyEntry) (models.Message, error)) (*models.Message, error) {
	var notice models.Message
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.entries, func(e *models.DailyEntry) bool { return e.ID == id })
		if i < 0 {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		var err error
		notice, err = notify(st.entries[i].Clone())
		if err != nil {
			return err
		}
		st.entries = append(st.entries[:i], st.entries[i+1:]...)
		st.messages = append(st.messages, notice.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &notice, nil
}
