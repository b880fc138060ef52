package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListMessages returns every message
func (s *Store) ListMessages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.messages, models.Message.Clone)
}

// GetMessage returns a message by id
func (s *Store) GetMessage(id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.messages, func(m *models.Message) bool { return m.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	m := s.state.messages[i].Clone()
	return &m, nil
}

// CreateMessage appends a message
func (s *Store) CreateMessage(ctx context.Context, m models.Message) error {
	return s.mutate(ctx, func(st *state) error {
		st.messages = append(st.messages, m.Clone())
		return nil
	})
}

// UpdateMessage applies fn to one message
func (s *Store) UpdateMessage(ctx context.Context, id string, fn func(*models.Message) error) (*models.Message, error) {
	var updated models.Message
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.messages, func(m *models.Message) bool { return m.ID == id })
		if i < 0 {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		if err := fn(&st.messages[i]); err != nil {
			return err
		}
		updated = st.messages[i].Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMessage removes a message
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	return s.mutate(ctx, func(st *state) error {
		i := find(st.messages, func(m *models.Message) bool { return m.ID == id })
		if i < 0 {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		st.messages = append(st.messages[:i], st.messages[i+1:]...)
		return nil
	})
}
