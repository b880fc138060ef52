package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/store"
)

// Seeded account ids
const (
	meronID   = "1"
	sanbataID = "2"
	managerID = "6"
	dawitID   = "7"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.NewMemoryBackend(), nullLogger(),
		store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

// addStaff creates a staff member supervised by supervisorID outside the default override table
func addStaff(t *testing.T, s *store.Store, id, username, supervisorID string) models.User {
	t.Helper()
	u := models.User{
		ID:           id,
		Username:     username,
		Name:         username + " Tesfaye",
		Email:        username + "@dukem.com",
		Role:         models.RoleStaff,
		SupervisorID: supervisorID,
		Permissions:  []string{},
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func addKPI(t *testing.T, s *store.Store, id, assigneeID, name string, target float64, status models.KPIStatus) models.KPIConfig {
	t.Helper()
	k, err := s.CreateKPI(context.Background(), models.KPIConfig{
		ID:           id,
		Name:         name,
		Target:       target,
		AssignedToID: assigneeID,
		TimeFrame:    models.TimeFrameYearly,
		Status:       status,
	})
	require.NoError(t, err)
	return *k
}

func addEntry(t *testing.T, s *store.Store, id, staffID, date string, status models.EntryStatus, metrics map[string]float64) models.DailyEntry {
	t.Helper()
	e := models.DailyEntry{ID: id, StaffID: staffID, StaffName: "staff " + staffID, Date: date, Metrics: metrics, Status: status}
	require.NoError(t, s.CreateEntry(context.Background(), e))
	return e
}

func defaultOverrides() access.Overrides {
	return access.DefaultOverrides()
}

// storeFixture exposes the store behind a service under test
type storeFixture struct {
	*store.Store
}
