package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/utils"
)

// AuthHandler handles login, token refresh and the caller's own account settings
type AuthHandler struct {
	authService  *services.AuthService
	userService  *services.UserService
	entryService *services.EntryService
	throttle     *services.RateLimitService
	audit        auditTrail
	logger       logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	userService *services.UserService,
	entryService *services.EntryService,
	auditService *services.AuditService,
	logger logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		entryService: entryService,
		audit:        newAuditTrail(auditService, logger),
		logger:       logger,
	}
}

// WithLoginThrottle enables failed-login throttling
func (h *AuthHandler) WithLoginThrottle(throttle *services.RateLimitService) *AuthHandler {
	h.throttle = throttle
	return h
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Passcode string `json:"passcode" binding:"required"`
}

// LoginResponse represents the response after a successful login
type LoginResponse struct {
	services.TokenPair
	User                  *models.User `json:"user"`
	RequiresPasscodeSetup bool         `json:"requires_passcode_setup"`
	RequiresAgreement     bool         `json:"requires_agreement"`
}

// RefreshRequest represents the refresh token request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SetPasscodeRequest sets the first passcode of the caller
type SetPasscodeRequest struct {
	Passcode string `json:"passcode" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

// ChangeSecretRequest replaces the caller's passcode
type ChangeSecretRequest struct {
	OldSecret string `json:"old_secret" binding:"required"`
	NewSecret string `json:"new_secret" binding:"required"`
}

// LinkEmailRequest stores a recovery email
type LinkEmailRequest struct {
	RecoveryEmail string `json:"recovery_email" binding:"required"`
}

// MeResponse is the caller's account with their dashboard flags
type MeResponse struct {
	User              *models.User `json:"user"`
	KPISubmittedToday bool         `json:"kpi_submitted_today"`
	RequiresPasscode  bool         `json:"requires_passcode_setup"`
	RequiresAgreement bool         `json:"requires_agreement"`
	RequiresRecovery  bool         `json:"requires_recovery_email"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if !h.checkThrottle(c, req.Username) {
		return
	}

	user, err := h.authService.Login(ctx, req.Username, req.Passcode)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.audit.login(c, "", req.Username, false)
			if h.throttle != nil {
				if err := h.throttle.RecordFailure(ctx, req.Username, utils.ClientIP(c)); err != nil {
					h.logger.WithError(err).Warn("Failed to record login attempt")
				}
			}
		}
		respondError(c, h.logger, err)
		return
	}

	if h.throttle != nil {
		if err := h.throttle.Reset(ctx, req.Username); err != nil {
			h.logger.WithError(err).Warn("Failed to reset login attempts")
		}
	}

	tokens, err := h.authService.IssueTokens(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.login(c, user.ID, user.Username, true)
	h.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		TokenPair:             *tokens,
		User:                  user,
		RequiresPasscodeSetup: !user.PasscodeSet,
		RequiresAgreement:     !user.AgreementAccepted,
	})
}

// checkThrottle writes 429 and returns false while the caller is locked out.
// Store failures do not block logins.
func (h *AuthHandler) checkThrottle(c *gin.Context, username string) bool {
	if h.throttle == nil {
		return true
	}

	err := h.throttle.CheckLogin(c.Request.Context(), username, utils.ClientIP(c))
	if err == nil {
		return true
	}

	var rateErr *services.RateLimitError
	if !errors.As(err, &rateErr) {
		h.logger.WithError(err).Warn("Login throttle check failed")
		return true
	}

	retry := int(time.Until(rateErr.RetryAfter).Seconds())
	if retry < 1 {
		retry = 1
	}
	c.Header("Retry-After", strconv.Itoa(retry))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   "rate_limited",
		Message: rateErr.Message,
		Code:    "TOO_MANY_ATTEMPTS",
	})
	return false
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, user, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		h.audit.tokenRefresh(c, "", false)
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_refresh_token",
				Message: "Refresh token is invalid or expired",
				Code:    "INVALID_REFRESH_TOKEN",
			})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	h.audit.tokenRefresh(c, user.ID, true)
	c.JSON(http.StatusOK, tokens)
}

// SetPasscode handles POST /api/v1/auth/passcode
func (h *AuthHandler) SetPasscode(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SetPasscodeRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.authService.SetPasscode(c.Request.Context(), userID, req.Passcode, req.Confirm)
	h.audit.credential(c, userID, "passcode_set", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Passcode set"})
}

// ChangeSecret handles POST /api/v1/auth/change-secret
func (h *AuthHandler) ChangeSecret(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ChangeSecretRequest
	if !bindJSON(c, &req) {
		return
	}

	changed, err := h.authService.ChangeSecret(c.Request.Context(), userID, req.OldSecret, req.NewSecret)
	h.audit.credential(c, userID, "passcode_changed", err == nil && changed)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !changed {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "secret_mismatch",
			Message: "Current passcode is incorrect",
			Code:    "SECRET_MISMATCH",
		})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Passcode changed"})
}

// AcceptAgreement handles POST /api/v1/auth/agreement
func (h *AuthHandler) AcceptAgreement(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.AcceptAgreement(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// LinkEmail handles POST /api/v1/auth/link-email
func (h *AuthHandler) LinkEmail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req LinkEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.LinkEmail(c.Request.Context(), userID, req.RecoveryEmail)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User:              user,
		KPISubmittedToday: h.entryService.HasSubmittedToday(userID),
		RequiresPasscode:  !user.PasscodeSet,
		RequiresAgreement: !user.AgreementAccepted,
		RequiresRecovery:  !user.EmailLinked,
	})
}
