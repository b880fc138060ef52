package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *MemoryBackend, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	backend := NewMemoryBackend()
	s, err := Open(context.Background(), backend, logger, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s, backend, hook
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Backend Seeds Users", func(t *testing.T) {
		s, _, _ := newTestStore(t)

		users := s.ListUsers()
		assert.Len(t, users, 6)
		assert.Equal(t, "meron", users[0].Username)
		assert.Empty(t, s.ListKPIs())
		assert.Empty(t, s.ListEntries())
	})

	t.Run("Malformed Collection Is Treated As Absent", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		backend := NewMemoryBackend()
		backend.Put(models.CollectionUsers, []byte(`{not json`))
		backend.Put(models.CollectionTodos, []byte(`[{"id":"t1","staffId":"1","task":"call","completed":false,"createdAt":"2026-01-01T00:00:00Z"}]`))

		s, err := Open(ctx, backend, logger)
		require.NoError(t, err)

		assert.Len(t, s.ListUsers(), 6)
		assert.Len(t, s.ListTodos("1"), 1)
		warned := false
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel && entry.Data["collection"] == models.CollectionUsers {
				warned = true
			}
		}
		assert.True(t, warned)
	})

	t.Run("Reload Reads Persisted State", func(t *testing.T) {
		s, backend, _ := newTestStore(t)
		require.NoError(t, s.CreateTodo(ctx, models.TodoItem{ID: "t1", StaffID: "1", Task: "visit", CreatedAt: fixedNow}))

		logger, _ := test.NewNullLogger()
		reopened, err := Open(ctx, backend, logger)
		require.NoError(t, err)
		assert.Equal(t, s.ListTodos("1"), reopened.ListTodos("1"))
	})
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s, backend, _ := newTestStore(t)

	backend.FailWith = errors.New("disk full")
	err := s.CreateTodo(ctx, models.TodoItem{ID: "t1", StaffID: "1", Task: "visit"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist store")
	assert.Empty(t, s.ListTodos("1"))

	_, err = s.UpdateUser(ctx, "1", func(u *models.User) error {
		u.Name = "Changed"
		return nil
	})
	require.Error(t, err)
	u, err := s.GetUser("1")
	require.NoError(t, err)
	assert.Equal(t, "Meron Getahun", u.Name)

	backend.FailWith = nil
	require.NoError(t, s.CreateTodo(ctx, models.TodoItem{ID: "t2", StaffID: "1", Task: "visit"}))
	assert.Len(t, s.ListTodos("1"), 1)
}

func TestReadsReturnCopies(t *testing.T) {
	s, _, _ := newTestStore(t)

	users := s.ListUsers()
	users[0].Name = "Mutated"
	users[0].Permissions[0] = "mutated"

	u, err := s.GetUser(users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Meron Getahun", u.Name)
	assert.Equal(t, models.PermissionViewNotes, u.Permissions[0])
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("Update Refreshes KPI Display Fields", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		_, err := s.CreateKPI(ctx, models.KPIConfig{ID: "k1", Name: "POS Merchant", AssignedToID: "1"})
		require.NoError(t, err)

		_, err = s.UpdateUser(ctx, "1", func(u *models.User) error {
			u.Email = "meron@dukem.com"
			return nil
		})
		require.NoError(t, err)

		k, err := s.GetKPI("k1")
		require.NoError(t, err)
		assert.Equal(t, "meron@dukem.com", k.AssignedToEmail)
		assert.Equal(t, "Meron Getahun", k.AssignedToName)
	})

	t.Run("Delete Cascades", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		_, err := s.CreateKPI(ctx, models.KPIConfig{ID: "k1", AssignedToID: "1"})
		require.NoError(t, err)
		_, err = s.CreateKPI(ctx, models.KPIConfig{ID: "k2", AssignedToID: "2"})
		require.NoError(t, err)
		require.NoError(t, s.CreateEntry(ctx, models.DailyEntry{ID: "e1", StaffID: "1"}))
		require.NoError(t, s.CreateTodo(ctx, models.TodoItem{ID: "t1", StaffID: "1"}))
		require.NoError(t, s.CreateFeedback(ctx, models.Feedback{ID: "f1", StaffID: "1", Target: "MANAGER"}))
		require.NoError(t, s.SetCredential(ctx, "1", "hash"))

		require.NoError(t, s.DeleteUser(ctx, "1"))

		_, err = s.GetUser("1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetCredential("1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, s.ListKPIs(), 1)
		assert.Empty(t, s.ListEntries())
		assert.Empty(t, s.ListTodos("1"))
		assert.Len(t, s.ListFeedback(), 1)
	})

	t.Run("Delete Clears Supervisor", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		require.NoError(t, s.DeleteUser(ctx, "7"))

		u, err := s.GetUser("1")
		require.NoError(t, err)
		assert.Empty(t, u.SupervisorID)
	})

	t.Run("Set Credential Marks Passcode", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		require.NoError(t, s.SetCredential(ctx, "2", "first"))
		require.NoError(t, s.SetCredential(ctx, "2", "second"))

		u, err := s.GetUser("2")
		require.NoError(t, err)
		assert.True(t, u.PasscodeSet)

		c, err := s.GetCredential("2")
		require.NoError(t, err)
		assert.Equal(t, "second", c.Hash)
		assert.Equal(t, fixedNow, c.UpdatedAt)
	})

	t.Run("Unknown User", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		assert.ErrorIs(t, s.DeleteUser(ctx, "missing"), ErrNotFound)
		assert.ErrorIs(t, s.SetCredential(ctx, "missing", "x"), ErrNotFound)
	})
}

func TestCreateKPIRequiresAssignee(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.CreateKPI(context.Background(), models.KPIConfig{ID: "k1", AssignedToID: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.ListKPIs())
}

func TestRejectEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes Entry And Adds Message Together", func(t *testing.T) {
		s, backend, _ := newTestStore(t)
		require.NoError(t, s.CreateEntry(ctx, models.DailyEntry{ID: "e1", StaffID: "1", Date: "2026-03-14"}))
		writes := backend.Writes()

		msg, err := s.RejectEntry(ctx, "e1", func(e models.DailyEntry) (models.Message, error) {
			return models.Message{ID: "m1", ToID: e.StaffID, Content: "rejected " + e.Date, ReadBy: []string{}}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "rejected 2026-03-14", msg.Content)
		assert.Equal(t, writes+1, backend.Writes())
		assert.Empty(t, s.ListEntries())
		assert.Len(t, s.ListMessages(), 1)
	})

	t.Run("Failed Write Keeps Entry And Drops Message", func(t *testing.T) {
		s, backend, _ := newTestStore(t)
		require.NoError(t, s.CreateEntry(ctx, models.DailyEntry{ID: "e1", StaffID: "1"}))

		backend.FailWith = errors.New("unavailable")
		_, err := s.RejectEntry(ctx, "e1", func(e models.DailyEntry) (models.Message, error) {
			return models.Message{ID: "m1", ToID: e.StaffID}, nil
		})
		require.Error(t, err)
		assert.Len(t, s.ListEntries(), 1)
		assert.Empty(t, s.ListMessages())
	})

	t.Run("Refused Notice Keeps Entry", func(t *testing.T) {
		s, backend, _ := newTestStore(t)
		require.NoError(t, s.CreateEntry(ctx, models.DailyEntry{ID: "e1", StaffID: "1", Status: models.EntryStatusAuthorized}))
		writes := backend.Writes()

		refused := errors.New("entry is already authorized")
		_, err := s.RejectEntry(ctx, "e1", func(models.DailyEntry) (models.Message, error) {
			return models.Message{}, refused
		})
		assert.ErrorIs(t, err, refused)
		assert.Equal(t, writes, backend.Writes())
		assert.Len(t, s.ListEntries(), 1)
		assert.Empty(t, s.ListMessages())
	})

	t.Run("Unknown Entry", func(t *testing.T) {
		s, _, _ := newTestStore(t)
		_, err := s.RejectEntry(ctx, "nope", func(models.DailyEntry) (models.Message, error) { return models.Message{}, nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteFeedbackCascadesOneLevel(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	require.NoError(t, s.CreateFeedback(ctx, models.Feedback{ID: "p"}))
	require.NoError(t, s.CreateFeedback(ctx, models.Feedback{ID: "r1", ParentID: "p"}))
	require.NoError(t, s.CreateFeedback(ctx, models.Feedback{ID: "r2", ParentID: "r1"}))
	require.NoError(t, s.CreateFeedback(ctx, models.Feedback{ID: "other"}))

	removed, err := s.DeleteFeedback(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining := s.ListFeedback()
	require.Len(t, remaining, 2)
	assert.Equal(t, "r2", remaining[0].ID)
	assert.Equal(t, "other", remaining[1].ID)
}

func TestTodosAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)
	require.NoError(t, s.CreateTodo(ctx, models.TodoItem{ID: "t1", StaffID: "1", Task: "call"}))

	_, err := s.UpdateTodo(ctx, "2", "t1", func(t *models.TodoItem) { t.Completed = true })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTodo(ctx, "2", "t1"), ErrNotFound)

	todo, err := s.UpdateTodo(ctx, "1", "t1", func(t *models.TodoItem) { t.Completed = !t.Completed })
	require.NoError(t, err)
	assert.True(t, todo.Completed)
}

func TestBackupLogs(t *testing.T) {
	s, _, _ := newTestStore(t)

	entry, err := s.AppendBackupLog(context.Background(), "export")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, entry.Date)
	assert.Equal(t, []models.BackupLog{{Date: fixedNow, Status: "export"}}, s.ListBackupLogs())
}
