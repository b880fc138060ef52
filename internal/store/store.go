// Package store keeps every portal collection in memory and writes the whole
// state back to a Backend after each mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ErrNotFound is returned when a record id does not exist
var ErrNotFound = errors.New("record not found")

// Backend is durable storage for named collections
type Backend interface {
	// Load returns the stored payload of a collection, or nil if it was never written
	Load(ctx context.Context, name string) ([]byte, error)
	// SaveAll replaces every given collection in one write
	SaveAll(ctx context.Context, collections map[string][]byte) error
}

type state struct {
	users       []models.User
	kpis        []models.KPIConfig
	entries     []models.DailyEntry
	feedback    []models.Feedback
	messages    []models.Message
	todos       []models.TodoItem
	backups     []models.BackupLog
	credentials []models.Credential
}

func (s *state) clone() state {
	return state{
		users:       cloneSlice(s.users, models.User.Clone),
		kpis:        cloneSlice(s.kpis, cloneKPI),
		entries:     cloneSlice(s.entries, models.DailyEntry.Clone),
		feedback:    cloneSlice(s.feedback, models.Feedback.Clone),
		messages:    cloneSlice(s.messages, models.Message.Clone),
		todos:       cloneSlice(s.todos, identity[models.TodoItem]),
		backups:     cloneSlice(s.backups, identity[models.BackupLog]),
		credentials: cloneSlice(s.credentials, identity[models.Credential]),
	}
}

func (s *state) encode() (map[string][]byte, error) {
	values := map[string]any{
		models.CollectionUsers:       s.users,
		models.CollectionKPIs:        s.kpis,
		models.CollectionEntries:     s.entries,
		models.CollectionFeedback:    s.feedback,
		models.CollectionMessages:    s.messages,
		models.CollectionTodos:       s.todos,
		models.CollectionBackups:     s.backups,
		models.CollectionCredentials: s.credentials,
	}

	out := make(map[string][]byte, len(values))
	for name, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// Store is the in-memory record set backed by a Backend
type Store struct {
	mu      sync.RWMutex
	backend Backend
	logger  logrus.FieldLogger
	now     func() time.Time
	state   state
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store; call Load to read the backend
func New(backend Backend, logger logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		state:   emptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads it from the backend
func Open(ctx context.Context, backend Backend, logger logrus.FieldLogger, opts ...Option) (*Store, error) {
	s := New(backend, logger, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func emptyState() state {
	return state{
		users:       models.SeedUsers(),
		kpis:        []models.KPIConfig{},
		entries:     []models.DailyEntry{},
		feedback:    []models.Feedback{},
		messages:    []models.Message{},
		todos:       []models.TodoItem{},
		backups:     []models.BackupLog{},
		credentials: []models.Credential{},
	}
}

// Load reads every collection from the backend.
// Missing or malformed collections start empty; users start from the seed accounts.
func (s *Store) Load(ctx context.Context) error {
	next := emptyState()

	targets := map[string]any{
		models.CollectionUsers:       &next.users,
		models.CollectionKPIs:        &next.kpis,
		models.CollectionEntries:     &next.entries,
		models.CollectionFeedback:    &next.feedback,
		models.CollectionMessages:    &next.messages,
		models.CollectionTodos:       &next.todos,
		models.CollectionBackups:     &next.backups,
		models.CollectionCredentials: &next.credentials,
	}

	for _, name := range models.Collections {
		data, err := s.backend.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		if data == nil {
			continue
		}
		if err := decodeCollection(data, targets[name]); err != nil {
			s.logger.WithFields(logrus.Fields{
				"collection": name,
				"error":      err.Error(),
			}).Warn("Ignoring malformed stored collection")
		}
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"users":    len(next.users),
		"kpis":     len(next.kpis),
		"entries":  len(next.entries),
		"feedback": len(next.feedback),
		"messages": len(next.messages),
	}).Info("Store loaded")

	return nil
}

// decodeCollection unmarshals into a temporary value so a malformed payload leaves dst untouched
func decodeCollection(data []byte, dst any) error {
	switch target := dst.(type) {
	case *[]models.User:
		return decodeInto(data, target)
	case *[]models.KPIConfig:
		return decodeInto(data, target)
	case *[]models.DailyEntry:
		return decodeInto(data, target)
	case *[]models.Feedback:
		return decodeInto(data, target)
	case *[]models.Message:
		return decodeInto(data, target)
	case *[]models.TodoItem:
		return decodeInto(data, target)
	case *[]models.BackupLog:
		return decodeInto(data, target)
	case *[]models.Credential:
		return decodeInto(data, target)
	}
	return fmt.Errorf("unknown collection type %T", dst)
}

func decodeInto[T any](data []byte, dst *[]T) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	*dst = items
	return nil
}

// mutate applies fn to the live state and persists the result.
// If fn or the write fails the state is restored to what was last persisted.
func (s *Store) mutate(ctx context.Context, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.clone()
	if err := fn(&s.state); err != nil {
		s.state = prev
		return err
	}

	if err := s.persistLocked(ctx); err != nil {
		s.state = prev
		return err
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	payload, err := s.state.encode()
	if err != nil {
		return err
	}
	if err := s.backend.SaveAll(ctx, payload); err != nil {
		s.logger.WithError(err).Error("Failed to persist store, changes rolled back")
		return fmt.Errorf("failed to persist store: %w", err)
	}
	return nil
}

// Persist writes the current state to the backend without changing it
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked(ctx)
}

// Now returns the store clock's current time
func (s *Store) Now() time.Time {
	return s.now()
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	out := make([]T, len(in))
	for i := range in {
		out[i] = clone(in[i])
	}
	return out
}

func identity[T any](v T) T { return v }

func cloneKPI(k models.KPIConfig) models.KPIConfig {
	if k.SignedAt != nil {
		t := *k.SignedAt
		k.SignedAt = &t
	}
	return k
}

func find[T any](items []T, match func(*T) bool) int {
	for i := range items {
		if match(&items[i]) {
			return i
		}
	}
	return -1
}

func filter[T any](items []T, keep func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}
