package models

// Role is the portal role of a user
type Role string

const (
	RoleStaff   Role = "STAFF"
	RoleManager Role = "MANAGER"
	RoleCSM     Role = "CSM"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleManager, RoleCSM:
		return true
	}
	return false
}

// Supervises reports whether the role can own a staff domain (approve entries, assign KPIs)
func (r Role) Supervises() bool {
	return r == RoleManager || r == RoleCSM
}

// Permission flags toggled from the admin screens
const (
	PermissionViewNotes = "can_view_notes"
	PermissionViewVault = "can_view_vault"
	PermissionAllAccess = "all_access"
)

// DefaultPermissions is assigned to every newly created user
var DefaultPermissions = []string{PermissionViewNotes, PermissionViewVault}

// User represents a portal account
type User struct {
	ID                string   `json:"id"`
	Username          string   `json:"username"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	RecoveryEmail     string   `json:"recoveryEmail,omitempty"`
	Role              Role     `json:"role"`
	PasscodeSet       bool     `json:"passcodeSet"`
	AgreementAccepted bool     `json:"agreementAccepted"`
	EmailLinked       bool     `json:"emailLinked"`
	ProfilePic        string   `json:"profilePic,omitempty"`
	Branch            string   `json:"branch,omitempty"`
	Permissions       []string `json:"permissions"`
	SupervisorID      string   `json:"supervisorId,omitempty"`
}

// HasPermission checks if the user holds the given permission flag
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the permissions slice
func (u User) Clone() User {
	if u.Permissions != nil {
		u.Permissions = append([]string{}, u.Permissions...)
	}
	return u
}

// UserInput is the admin payload for creating or editing a user
type UserInput struct {
	Username     string `json:"username" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Role         Role   `json:"role" binding:"required"`
	Branch       string `json:"branch"`
	SupervisorID string `json:"supervisorId"`
}

// UserUpdate carries the editable profile fields; nil fields are left unchanged
type UserUpdate struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Role   *Role   `json:"role"`
	Branch *string `json:"branch"`
}
