package store

import (
	"context"
	"fmt"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// ListKPIs returns every KPI assignment
func (s *Store) ListKPIs() []models.KPIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.state.kpis, cloneKPI)
}

// GetKPI returns a KPI by id
func (s *Store) GetKPI(id string) (*models.KPIConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := find(s.state.kpis, func(k *models.KPIConfig) bool { return k.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("kpi %s: %w", id, ErrNotFound)
	}
	k := cloneKPI(s.state.kpis[i])
	return &k, nil
}

// CreateKPI appends a KPI after checking the assignee exists.
// Display fields are copied from the assignee.
func (s *Store) CreateKPI(ctx context.Context, kpi models.KPIConfig) (*models.KPIConfig, error) {
	err := s.mutate(ctx, func(st *state) error {
		u := find(st.users, func(u *models.User) bool { return u.ID == kpi.AssignedToID })
		if u < 0 {
			return fmt.Errorf("assignee %s: %w", kpi.AssignedToID, ErrNotFound)
		}
		kpi.AssignedToEmail = st.users[u].Email
		kpi.AssignedToName = st.users[u].Name
		st.kpis = append(st.kpis, cloneKPI(kpi))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &kpi, nil
}

// UpdateKPI applies fn to one KPI
func (s *Store) UpdateKPI(ctx context.Context, id string, fn func(*models.KPIConfig) error) (*models.KPIConfig, error) {
	var updated models.KPIConfig
	err := s.mutate(ctx, func(st *state) error {
		i := find(st.kpis, func(k *models.KPIConfig) bool { return k.ID == id })
		if i < 0 {
			return fmt.Errorf("kpi %s: %w", id, ErrNotFound)
		}
		if err := fn(&st.kpis[i]); err != nil {
			return err
		}
		updated = cloneKPI(st.kpis[i])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateKPIs applies fn to every KPI and persists once; fn reports whether it changed the KPI
func (s *Store) UpdateKPIs(ctx context.Context, fn func(*models.KPIConfig) bool) (int, error) {
	changed := 0
	err := s.mutate(ctx, func(st *state) error {
		for i := range st.kpis {
			if fn(&st.kpis[i]) {
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

// DeleteKPI removes a KPI
func (s *Store) DeleteKPI(ctx context.Context, id string) error {
	return s.mutate(ctx, func(st *state) error {
		i := find(st.kpis, func(k *models.KPIConfig) bool { return k.ID == id })
		if i < 0 {
			return fmt.Errorf("kpi %s: %w", id, ErrNotFound)
		}
		st.kpis = append(st.kpis[:i], st.kpis[i+1:]...)
		return nil
	})
}
