package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
)

// EntryHandler handles daily metric submissions and their authorization
type EntryHandler struct {
	entryService *services.EntryService
	coachService *services.CoachService
	audit        auditTrail
	logger       logrus.FieldLogger
}

// NewEntryHandler creates a new entry handler. coachService may be nil, which disables the focus alert.
func NewEntryHandler(entryService *services.EntryService, coachService *services.CoachService, auditService *services.AuditService, logger logrus.FieldLogger) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		coachService: coachService,
		audit:        newAuditTrail(auditService, logger),
		logger:       logger,
	}
}

// SubmitResponse returns the stored entry and the coach's confirmation
type SubmitResponse struct {
	Entry      *models.DailyEntry `json:"entry"`
	FocusAlert string             `json:"focusAlert,omitempty"`
}

// SubmittedTodayResponse reports whether the caller has submitted today
type SubmittedTodayResponse struct {
	Submitted bool `json:"submitted"`
}

// Submit handles POST /api/v1/entries
func (h *EntryHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.EntryInput
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.entryService.Submit(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := SubmitResponse{Entry: entry}
	if h.coachService != nil {
		alert, err := h.coachService.FocusAlert(c.Request.Context(), userID, entry.Metrics)
		if err != nil {
			h.logger.WithError(err).Warn("Focus alert unavailable")
		}
		resp.FocusAlert = alert
	}

	c.JSON(http.StatusCreated, resp)
}

// Mine handles GET /api/v1/entries/mine
func (h *EntryHandler) Mine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.entryService.EntriesForStaff(userID))
}

// ForStaff handles GET /api/v1/entries/staff/:staffId
func (h *EntryHandler) ForStaff(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.entryService.ForStaff(userID, c.Param("staffId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Pending handles GET /api/v1/entries/pending
func (h *EntryHandler) Pending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.entryService.Pending(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Authorize handles POST /api/v1/entries/:id/authorize
func (h *EntryHandler) Authorize(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	entry, err := h.entryService.Authorize(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "entry_authorized", "entry", entry.ID, map[string]interface{}{"staff_id": entry.StaffID, "date": entry.Date})
	c.JSON(http.StatusOK, entry)
}

// ApproveAll handles POST /api/v1/entries/approve-all
func (h *EntryHandler) ApproveAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.entryService.ApproveAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "entry_authorized_all", "entry", "", map[string]interface{}{"count": count})
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

// Reject handles POST /api/v1/entries/:id/reject
// The entry is removed and the staff member receives the reason as a message.
func (h *EntryHandler) Reject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.RejectInput
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	msg, err := h.entryService.Reject(c.Request.Context(), userID, id, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "entry_rejected", "entry", id, map[string]interface{}{"reason": req.Reason, "staff_id": msg.ToID})
	c.JSON(http.StatusOK, msg)
}

// Totals handles GET /api/v1/entries/totals?staffId=&from=&to=
// staffId defaults to the caller; from and to are inclusive YYYY-MM-DD bounds.
func (h *EntryHandler) Totals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	staffID := c.DefaultQuery("staffId", userID)
	totals, err := h.entryService.Totals(userID, staffID, c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// SubmittedToday handles GET /api/v1/entries/submitted-today?kpi=
// Without a kpi it reports whether any entry was submitted today.
func (h *EntryHandler) SubmittedToday(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if kpi := c.Query("kpi"); kpi != "" {
		c.JSON(http.StatusOK, SubmittedTodayResponse{Submitted: h.entryService.IsKPISubmittedToday(userID, kpi)})
		return
	}
	c.JSON(http.StatusOK, SubmittedTodayResponse{Submitted: h.entryService.HasSubmittedToday(userID)})
}
