package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListTodos returns the todos of one staff member
func (s *Store) ListTodos(staffID string) []models.TodoItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.state.todos, func(t *models.TodoItem) bool { return t.StaffID == staffID })
}

// CreateTodo appends a todo
func (s *Store) CreateTodo(ctx context.Context, todo models.TodoItem) error {
	return s.mutate(ctx, func(st *state) error {
		st.todos = append(st.todos, todo)
		return nil
	})
}

// UpdateTodo applies fn to one todo owned by staffID
func (s *Store) UpdateTodo(ctx context.Context, staffID, id string, fn func(*models.TodoItem)) (*models.TodoItem, error) {
	var updated models.TodoItem
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.todos, func(t *models.TodoItem) bool { return t.ID == id && t.StaffID == staffID })
		if i < 0 {
			return fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		fn(&st.todos[i])
		updated = st.todos[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTodo removes a todo owned by staffID
func (s *Store) DeleteTodo(ctx context.Context, staffID, id string) error {
	return s.mutate(ctx, func(st *state) error {
		i := find(st.todos, func(t *models.TodoItem) bool { return t.ID == id && t.StaffID == staffID })
		if i < 0 {
			return fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		st.todos = append(st.todos[:i], st.todos[i+1:]...)
		return nil
	})
}

// ListBackupLogs returns the backup audit trail
func (s *Store) ListBackupLogs() []models.BackupLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.backups, identity[models.BackupLog])
}

// AppendBackupLog records a backup event
func (s *Store) AppendBackupLog(ctx context.Context, status string) (models.BackupLog, error) {
	entry := models.BackupLog{Date: s.now(), Status: status}
	err := s.mutate(ctx, func(st *state) error {
		st.backups = append(st.backups, entry)
		return nil
	})
	return entry, err
}
