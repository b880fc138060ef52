package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukemzone/kpi-portal/internal/models"
)

func entryIDs(entries []models.DailyEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func testUsers() []models.User {
	return []models.User{
		{ID: "1", Username: "meron", Role: models.RoleStaff, SupervisorID: "7"},
		{ID: "2", Username: "sanbata", Role: models.RoleStaff, SupervisorID: "8"},
		{ID: "3", Username: "abel", Role: models.RoleStaff, SupervisorID: "7"},
		{ID: "5", Username: "lidya", Role: models.RoleStaff, SupervisorID: "8"},
		{ID: "6", Username: "manager", Role: models.RoleManager},
		{ID: "7", Username: "dawit", Role: models.RoleCSM},
		{ID: "8", Username: "hana", Role: models.RoleCSM},
	}
}

func TestVisibleStaff(t *testing.T) {
	users := testUsers()

	t.Run("Manager Sees Everyone Else", func(t *testing.T) {
		got := VisibleStaff(&users[4], users)
		assert.Len(t, got, len(users)-1)
		for _, u := range got {
			assert.NotEqual(t, "6", u.ID)
		}
	})

	t.Run("CSM Sees Direct Reports", func(t *testing.T) {
		got := VisibleStaff(&users[6], users)
		assert.Len(t, got, 2)
		assert.Equal(t, "2", got[0].ID)
		assert.Equal(t, "5", got[1].ID)
	})

	t.Run("Staff Sees Nobody", func(t *testing.T) {
		assert.Empty(t, VisibleStaff(&users[0], users))
	})
}

func TestPendingQueue(t *testing.T) {
	users := testUsers()
	entries := []models.DailyEntry{
		{ID: "e1", StaffID: "1", Status: models.EntryStatusPending},
		{ID: "e2", StaffID: "2", Status: models.EntryStatusPending},
		{ID: "e3", StaffID: "3", Status: models.EntryStatusPending},
		{ID: "e4", StaffID: "5", Status: models.EntryStatusPending},
		{ID: "e5", StaffID: "1", Status: models.EntryStatusAuthorized},
		{ID: "e6", StaffID: "gone", Status: models.EntryStatusPending},
	}
	overrides := DefaultOverrides()

	t.Run("Manager Gets Full Pending Set", func(t *testing.T) {
		got := PendingQueue(&users[4], entries, users, overrides)
		assert.Equal(t, []string{"e1", "e2", "e3", "e4", "e6"}, entryIDs(got))
	})

	t.Run("CSM Without Override Uses Supervisor", func(t *testing.T) {
		got := PendingQueue(&users[6], entries, users, overrides)
		assert.Equal(t, []string{"e2", "e4"}, entryIDs(got))
		for _, e := range got {
			var staff models.User
			for _, u := range users {
				if u.ID == e.StaffID {
					staff = u
				}
			}
			assert.Equal(t, users[6].ID, staff.SupervisorID)
		}
	})

	t.Run("CSM With Override Uses Allow List", func(t *testing.T) {
		got := PendingQueue(&users[5], entries, users, overrides)
		// abel reports to dawit but is not on the allow-list; sanbata is listed but reports to hana
		assert.Equal(t, []string{"e1", "e2"}, entryIDs(got))
	})

	t.Run("No Override Table", func(t *testing.T) {
		got := PendingQueue(&users[5], entries, users, nil)
		assert.Equal(t, []string{"e1", "e3"}, entryIDs(got))
	})

	t.Run("Staff Gets Nothing", func(t *testing.T) {
		assert.Empty(t, PendingQueue(&users[0], entries, users, overrides))
	})
}

func TestKPIQueue(t *testing.T) {
	users := testUsers()
	kpis := []models.KPIConfig{
		{ID: "k1", AssignedToID: "1"},
		{ID: "k2", AssignedToID: "2"},
		{ID: "k3", AssignedToID: "3"},
	}

	assert.Len(t, KPIQueue(&users[4], kpis, users), 3)

	got := KPIQueue(&users[5], kpis, users)
	assert.Len(t, got, 2)
	assert.Equal(t, "k1", got[0].ID)
	assert.Equal(t, "k3", got[1].ID)

	assert.Empty(t, KPIQueue(&users[0], kpis, users))
}

func TestInDomain(t *testing.T) {
	users := testUsers()
	overrides := Overrides{"hana": {"meron"}}

	assert.True(t, InDomain(&users[4], &users[1], overrides))
	assert.True(t, InDomain(&users[6], &users[0], overrides))
	assert.False(t, InDomain(&users[6], &users[1], overrides))
	assert.True(t, InDomain(&users[5], &users[2], overrides))
	assert.False(t, InDomain(&users[0], &users[0], overrides))
}
