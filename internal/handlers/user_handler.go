package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
)

// UserHandler handles account administration
type UserHandler struct {
	userService *services.UserService
	audit       auditTrail
	logger      logrus.FieldLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, auditService *services.AuditService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		userService: userService,
		audit:       newAuditTrail(auditService, logger),
		logger:      logger,
	}
}

// PermissionRequest names the permission flag to toggle
type PermissionRequest struct {
	Permission string `json:"permission" binding:"required"`
}

// SupervisorRequest assigns a supervisor; empty clears it
type SupervisorRequest struct {
	SupervisorID string `json:"supervisorId"`
}

// ProfilePicRequest carries a picture as a data URI or URL; empty clears it
type ProfilePicRequest struct {
	ProfilePic string `json:"profilePic"`
}

// List handles GET /api/v1/users
// ?role=staff narrows to STAFF, ?role=staff_csm to STAFF and CSM
func (h *UserHandler) List(c *gin.Context) {
	switch c.Query("role") {
	case "staff":
		c.JSON(http.StatusOK, h.userService.StaffUsers())
	case "staff_csm":
		c.JSON(http.StatusOK, h.userService.StaffAndCSMUsers())
	default:
		c.JSON(http.StatusOK, h.userService.List())
	}
}

// VisibleStaff handles GET /api/v1/users/visible
func (h *UserHandler) VisibleStaff(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := h.userService.VisibleStaff(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UserInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "user_created", "user", user.ID, map[string]interface{}{"username": user.Username, "role": user.Role})
	c.JSON(http.StatusCreated, user)
}

// Update handles PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.UserUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// TogglePermission handles POST /api/v1/users/:id/permissions
func (h *UserHandler) TogglePermission(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req PermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.TogglePermission(c.Request.Context(), userID, c.Param("id"), req.Permission)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "permission_toggled", "user", user.ID, map[string]interface{}{"permission": req.Permission})
	c.JSON(http.StatusOK, user)
}

// UpdateSupervisor handles PUT /api/v1/users/:id/supervisor
func (h *UserHandler) UpdateSupervisor(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SupervisorRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateSupervisor(c.Request.Context(), userID, c.Param("id"), req.SupervisorID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfilePic handles PUT /api/v1/users/:id/avatar
func (h *UserHandler) UpdateProfilePic(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProfilePicRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfilePic(c.Request.Context(), userID, c.Param("id"), req.ProfilePic)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.userService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "user_deleted", "user", id, nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}
