package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// TodoService manages the private todo list of each user
type TodoService struct {
	todos TodoStore
	clock Clock
}

// NewTodoService creates a new todo service
func NewTodoService(todos TodoStore, clock Clock) *TodoService {
	return &TodoService{todos: todos, clock: clock}
}

// List returns the user's todos
func (s *TodoService) List(staffID string) []models.TodoItem {
	return s.todos.ListTodos(staffID)
}

// Add creates an open todo
func (s *TodoService) Add(ctx context.Context, staffID, task string) (*models.TodoItem, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, invalid("task is required")
	}

	todo := models.TodoItem{
		ID:        uuid.NewString(),
		StaffID:   staffID,
		Task:      task,
		CreatedAt: s.clock.Now(),
	}
	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to save todo: %w", err)
	}
	return &todo, nil
}

// Toggle flips the completed flag
func (s *TodoService) Toggle(ctx context.Context, staffID, id string) (*models.TodoItem, error) {
	return s.todos.UpdateTodo(ctx, staffID, id, func(t *models.TodoItem) {
		t.Completed = !t.Completed
	})
}

// Delete removes a todo
func (s *TodoService) Delete(ctx context.Context, staffID, id string) error {
	return s.todos.DeleteTodo(ctx, staffID, id)
}
