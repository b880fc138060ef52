package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// Export serializes users, KPIs, entries, feedback, messages and todos with a capture timestamp.
// Credentials and backup logs never leave the store.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	st := s.state.clone()
	s.mu.RUnlock()

	captured, err := json.Marshal(s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot time: %w", err)
	}

	doc := models.Snapshot{
		Users:     &st.users,
		KPIs:      &st.kpis,
		Entries:   &st.entries,
		Feedback:  &st.feedback,
		Messages:  &st.messages,
		Todos:     &st.todos,
		Timestamp: captured,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Import replaces every collection present in the document.
// Missing keys leave their collection untouched. It returns false without
// changing anything when the document cannot be parsed.
func (s *Store) Import(ctx context.Context, data []byte) (bool, error) {
	var doc models.Snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).Warn("Rejected malformed snapshot")
		return false, nil
	}

	err := s.mutate(ctx, func(st *state) error {
		if doc.Users != nil {
			st.users = nonNil(*doc.Users)
		}
		if doc.KPIs != nil {
			st.kpis = nonNil(*doc.KPIs)
		}
		if doc.Entries != nil {
			st.entries = nonNil(*doc.Entries)
		}
		if doc.Feedback != nil {
			st.feedback = nonNil(*doc.Feedback)
		}
		if doc.Messages != nil {
			st.messages = nonNil(*doc.Messages)
			for i := range st.messages {
				if st.messages[i].ReadBy == nil {
					st.messages[i].ReadBy = []string{}
				}
			}
		}
		if doc.Todos != nil {
			st.todos = nonNil(*doc.Todos)
		}
		linkAssignees(st)
		return nil
	})
	if err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"captured_at": string(doc.Timestamp),
		"users":       doc.Users != nil,
		"kpis":        doc.KPIs != nil,
		"entries":     doc.Entries != nil,
	}).Info("Snapshot imported")

	return true, nil
}

// linkAssignees fills in the assignee id of KPIs that only carry an email,
// which is how older snapshots reference the assigned user
func linkAssignees(st *state) {
	byEmail := make(map[string]string, len(st.users))
	for _, u := range st.users {
		byEmail[u.Email] = u.ID
	}
	for i := range st.kpis {
		if st.kpis[i].AssignedToID != "" {
			continue
		}
		if id, ok := byEmail[st.kpis[i].AssignedToEmail]; ok {
			st.kpis[i].AssignedToID = id
		}
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
