package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListFeedback returns every feedback item including replies
func (s *Store) ListFeedback() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.feedback, models.Feedback.Clone)
}

// GetFeedback returns a feedback item by id
func (s *Store) GetFeedback(id string) (*models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.feedback, func(f *models.Feedback) bool { return f.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("feedback %s: %w", id, ErrNotFound)
	}
	f := s.state.feedback[i].Clone()
	return &f, nil
}

// CreateFeedback appends a feedback item
func (s *Store) CreateFeedback(ctx context.Context, f models.Feedback) error {
	return s.mutate(ctx, func(st *state) error {
		st.feedback = append(st.feedback, f.Clone())
		return nil
	})
}

// UpdateFeedback applies fn to one feedback item
func (s *Store) UpdateFeedback(ctx context.Context, id string, fn func(*models.Feedback) error) (*models.Feedback, error) {
	var updated models.Feedback
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.feedback, func(f *models.Feedback) bool { return f.ID == id })
		if i < 0 {
			return fmt.Errorf("feedback %s: %w", id, ErrNotFound)
		}
		if err := fn(&st.feedback[i]); err != nil {
			return err
		}
		updated = st.feedback[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateFeedbackWhere applies fn to every feedback item and persists once
func (s *Store) UpdateFeedbackWhere(ctx context.Context, fn func(*models.Feedback) bool) (int, error) {
	changed := 0
	err := s.mutate(ctx, func(st *state) error {
		for i := range st.feedback {
			if fn(&st.feedback[i]) {
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

// DeleteFeedback removes an item and its direct replies, returning how many were removed
func (s *Store) DeleteFeedback(ctx context.Context, id string) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(st *state) error {
		if find(st.feedback, func(f *models.Feedback) bool { return f.ID == id }) < 0 {
			return fmt.Errorf("feedback %s: %w", id, ErrNotFound)
		}
		before := len(st.feedback)
		st.feedback = filter(st.feedback, func(f *models.Feedback) bool {
			return f.ID != id && f.ParentID != id
		})
		removed = before - len(st.feedback)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
