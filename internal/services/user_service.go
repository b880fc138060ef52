package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/store"
	"github.com/dukemzone/kpi-portal/pkg/validator"
)

// UserService manages portal accounts
type UserService struct {
	users     UserStore
	validator *validator.AccountValidator
	logger    logrus.FieldLogger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, logger logrus.FieldLogger) *UserService {
	return &UserService{
		users:     users,
		validator: validator.NewAccountValidator(),
		logger:    logger,
	}
}

// requireAdmin resolves the actor and checks they may administer accounts
func (s *UserService) requireAdmin(actorID string) (*models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if a.Role != models.RoleManager && !a.HasPermission(models.PermissionAllAccess) {
		return nil, forbidden("account administration requires a manager")
	}
	return a, nil
}

// List returns every user
func (s *UserService) List() []models.User {
	return s.users.ListUsers()
}

// Get returns a user by id
func (s *UserService) Get(id string) (*models.User, error) {
	return s.users.GetUser(id)
}

// StaffUsers returns users with the STAFF role
func (s *UserService) StaffUsers() []models.User {
	return s.byRole(models.RoleStaff)
}

// StaffAndCSMUsers returns users with the STAFF or CSM role
func (s *UserService) StaffAndCSMUsers() []models.User {
	return s.byRole(models.RoleStaff, models.RoleCSM)
}

func (s *UserService) byRole(roles ...models.Role) []models.User {
	result := make([]models.User, 0)
	for _, u := range s.users.ListUsers() {
		for _, r := range roles {
			if u.Role == r {
				result = append(result, u)
				break
			}
		}
	}
	return result
}

// VisibleStaff returns the users the actor oversees
func (s *UserService) VisibleStaff(actorID string) ([]models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	return access.VisibleStaff(a, s.users.ListUsers()), nil
}

// Create adds a user
func (s *UserService) Create(ctx context.Context, actorID string, input models.UserInput) (*models.User, error) {
	if _, err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}

	username, err := s.validator.Username(input.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email, err := s.validator.Email(input.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !input.Role.Valid() {
		return nil, invalid("unknown role %q", input.Role)
	}

	if _, err := s.users.GetUserByUsername(username); err == nil {
		return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if input.SupervisorID != "" {
		if err := s.checkSupervisor(input.SupervisorID); err != nil {
			return nil, err
		}
	}

	branch := strings.TrimSpace(input.Branch)
	if branch == "" {
		branch = models.DefaultBranch
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         name,
		Email:        email,
		Role:         input.Role,
		Branch:       branch,
		Permissions:  append([]string{}, models.DefaultPermissions...),
		SupervisorID: input.SupervisorID,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	return &user, nil
}

// Update edits profile fields. Users may edit their own name and email; role and branch need an admin.
func (s *UserService) Update(ctx context.Context, actorID, id string, update models.UserUpdate) (*models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}

	isAdmin := a.Role == models.RoleManager || a.HasPermission(models.PermissionAllAccess)
	if a.ID != id && !isAdmin {
		return nil, forbidden("cannot edit another user")
	}
	if (update.Role != nil || update.Branch != nil) && !isAdmin {
		return nil, forbidden("role and branch are managed by an admin")
	}

	var name, email string
	if update.Name != nil {
		if name = strings.TrimSpace(*update.Name); name == "" {
			return nil, invalid("name is required")
		}
	}
	if update.Email != nil {
		if email, err = s.validator.Email(*update.Email); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, invalid("unknown role %q", *update.Role)
	}

	return s.users.UpdateUser(ctx, id, func(u *models.User) error {
		if update.Name != nil {
			u.Name = name
		}
		if update.Email != nil {
			u.Email = email
		}
		if update.Role != nil {
			u.Role = *update.Role
		}
		if update.Branch != nil {
			u.Branch = strings.TrimSpace(*update.Branch)
		}
		return nil
	})
}

// TogglePermission adds the permission flag if missing, otherwise removes it
func (s *UserService) TogglePermission(ctx context.Context, actorID, id, permission string) (*models.User, error) {
	if _, err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	switch permission {
	case models.PermissionViewNotes, models.PermissionViewVault, models.PermissionAllAccess:
	default:
		return nil, invalid("unknown permission %q", permission)
	}

	return s.users.UpdateUser(ctx, id, func(u *models.User) error {
		kept := make([]string, 0, len(u.Permissions)+1)
		found := false
		for _, p := range u.Permissions {
			if p == permission {
				found = true
				continue
			}
			kept = append(kept, p)
		}
		if !found {
			kept = append(kept, permission)
		}
		u.Permissions = kept
		return nil
	})
}

// UpdateSupervisor assigns the user to a CSM or manager; an empty id clears it
func (s *UserService) UpdateSupervisor(ctx context.Context, actorID, id, supervisorID string) (*models.User, error) {
	if _, err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	if supervisorID == id {
		return nil, invalid("a user cannot supervise themselves")
	}
	if supervisorID != "" {
		if err := s.checkSupervisor(supervisorID); err != nil {
			return nil, err
		}
	}

	return s.users.UpdateUser(ctx, id, func(u *models.User) error {
		u.SupervisorID = supervisorID
		return nil
	})
}

func (s *UserService) checkSupervisor(id string) error {
	sup, err := s.users.GetUser(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("supervisor %s does not exist", id)
		}
		return err
	}
	if !sup.Role.Supervises() {
		return invalid("supervisor must be a CSM or manager")
	}
	return nil
}

// UpdateProfilePic stores the picture as given (typically a data URI); empty clears it
func (s *UserService) UpdateProfilePic(ctx context.Context, actorID, id, pic string) (*models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if a.ID != id && a.Role != models.RoleManager {
		return nil, forbidden("cannot change another user's picture")
	}

	return s.users.UpdateUser(ctx, id, func(u *models.User) error {
		u.ProfilePic = pic
		return nil
	})
}

// Delete removes a user and the records owned by them
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	a, err := s.requireAdmin(actorID)
	if err != nil {
		return err
	}
	if a.ID == id {
		return invalid("cannot delete your own account")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "deleted_by": a.ID}).Info("User deleted")
	return nil
}
