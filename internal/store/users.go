package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListUsers returns every user
func (s *Store) ListUsers() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.users, models.User.Clone)
}

// GetUser returns a user by id
func (s *Store) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.users, func(u *models.User) bool { return u.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	u := s.state.users[i].Clone()
	return &u, nil
}

// GetUserByUsername returns a user by login name
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.users, func(u *models.User) bool { return u.Username == username })
	if i < 0 {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	u := s.state.users[i].Clone()
	return &u, nil
}

// CreateUser appends a user
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	return s.mutate(ctx, func(st *state) error {
		st.users = append(st.users, user.Clone())
		return nil
	})
}

// UpdateUser applies fn to a user and refreshes the display copies kept on their KPIs
func (s *Store) UpdateUser(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	var updated models.User
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.users, func(u *models.User) bool { return u.ID == id })
		if i < 0 {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		if err := fn(&st.users[i]); err != nil {
			return err
		}
		updated = st.users[i].Clone()

		for k := range st.kpis {
			if st.kpis[k].AssignedToID == id {
				st.kpis[k].AssignedToEmail = updated.Email
				st.kpis[k].AssignedToName = updated.Name
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes a user together with the records that only make sense while they exist:
// their credential, todos, assigned KPIs and daily entries. Subordinates lose their supervisor.
// Feedback and messages are kept as communication history.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(ctx, func(st *state) error {
		i := find(st.users, func(u *models.User) bool { return u.ID == id })
		if i < 0 {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}

		st.users = append(st.users[:i], st.users[i+1:]...)
		for k := range st.users {
			if st.users[k].SupervisorID == id {
				st.users[k].SupervisorID = ""
			}
		}
		st.credentials = filter(st.credentials, func(c *models.Credential) bool { return c.UserID != id })
		st.todos = filter(st.todos, func(t *models.TodoItem) bool { return t.StaffID != id })
		st.kpis = filter(st.kpis, func(k *models.KPIConfig) bool { return k.AssignedToID != id })
		st.entries = filter(st.entries, func(e *models.DailyEntry) bool { return e.StaffID != id })
		return nil
	})
}

// GetCredential returns the stored passcode hash of a user
func (s *Store) GetCredential(userID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.credentials, func(c *models.Credential) bool { return c.UserID == userID })
	if i < 0 {
		return nil, fmt.Errorf("credential for %s: %w", userID, ErrNotFound)
	}
	c := s.state.credentials[i]
	return &c, nil
}

// SetCredential stores a passcode hash and marks the user's passcode as set in the same write
func (s *Store) SetCredential(ctx context.Context, userID, hash string) error {
	return s.mutate(ctx, func(st *state) error {
		u := find(st.users, func(u *models.User) bool { return u.ID == userID })
		if u < 0 {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		st.users[u].PasscodeSet = true

		cred := models.Credential{UserID: userID, Hash: hash, UpdatedAt: s.now()}
		if i := find(st.credentials, func(c *models.Credential) bool { return c.UserID == userID }); i >= 0 {
			st.credentials[i] = cred
		} else {
			st.credentials = append(st.credentials, cred)
		}
		return nil
	})
}
