package access

import "github.com/dukemzone/kpi-portal/internal/models"

// Overrides maps a supervisor username to the staff usernames that make up
// their approval queue. A supervisor listed here sees exactly that list
// instead of the staff whose supervisorId points at them.
type Overrides map[string][]string

// DefaultOverrides returns the built-in override table
func DefaultOverrides() Overrides {
	return Overrides{
		"dawit": {"meron", "sanbata", "selima", "genet"},
	}
}

// AllowList returns the override list of a supervisor and whether one exists
func (o Overrides) AllowList(username string) ([]string, bool) {
	if o == nil {
		return nil, false
	}
	list, ok := o[username]
	return list, ok
}

// VisibleStaff returns the users a requester manages on staff screens.
// Managers see everyone but themselves, CSMs see their direct reports.
func VisibleStaff(user *models.User, users []models.User) []models.User {
	result := make([]models.User, 0)
	switch user.Role {
	case models.RoleManager:
		for _, u := range users {
			if u.ID != user.ID {
				result = append(result, u)
			}
		}
	case models.RoleCSM:
		for _, u := range users {
			if u.SupervisorID == user.ID {
				result = append(result, u)
			}
		}
	}
	return result
}

// Supervises reports whether staff falls under the requester's supervisor relationship
func Supervises(requester, staff *models.User) bool {
	switch requester.Role {
	case models.RoleManager:
		return true
	case models.RoleCSM:
		return staff.SupervisorID == requester.ID
	}
	return false
}

// InDomain reports whether the requester may approve work of the staff member.
// A CSM with an override row is limited to the usernames in it.
func InDomain(requester, staff *models.User, overrides Overrides) bool {
	switch requester.Role {
	case models.RoleManager:
		return true
	case models.RoleCSM:
		if list, ok := overrides.AllowList(requester.Username); ok {
			for _, username := range list {
				if username == staff.Username {
					return true
				}
			}
			return false
		}
		return staff.SupervisorID == requester.ID
	}
	return false
}

func indexUsers(users []models.User) map[string]*models.User {
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID
}

// PendingQueue returns the pending entries the requester may authorize.
// Entries whose staff no longer exists are only shown to managers.
func PendingQueue(requester *models.User, entries []models.DailyEntry, users []models.User, overrides Overrides) []models.DailyEntry {
	byID := indexUsers(users)
	result := make([]models.DailyEntry, 0)
	for _, e := range entries {
		if e.Status != models.EntryStatusPending {
			continue
		}
		if requester.Role == models.RoleManager {
			result = append(result, e)
			continue
		}
		if staff, ok := byID[e.StaffID]; ok && InDomain(requester, staff, overrides) {
			result = append(result, e)
		}
	}
	return result
}

// KPIQueue returns the KPIs the requester manages, by supervisor relationship only
func KPIQueue(requester *models.User, kpis []models.KPIConfig, users []models.User) []models.KPIConfig {
	byID := indexUsers(users)
	result := make([]models.KPIConfig, 0)
	for _, k := range kpis {
		if requester.Role == models.RoleManager {
			result = append(result, k)
			continue
		}
		if staff, ok := byID[k.AssignedToID]; ok && Supervises(requester, staff) {
			result = append(result, k)
		}
	}
	return result
}
