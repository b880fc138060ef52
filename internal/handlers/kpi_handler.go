package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/internal/services"
)

// KPIHandler handles KPI assignment and its signature/approval lifecycle
type KPIHandler struct {
	kpiService *services.KPIService
	audit      auditTrail
	logger     logrus.FieldLogger
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(kpiService *services.KPIService, auditService *services.AuditService, logger logrus.FieldLogger) *KPIHandler {
	return &KPIHandler{
		kpiService: kpiService,
		audit:      newAuditTrail(auditService, logger),
		logger:     logger,
	}
}

// TargetRequest updates the target of a KPI
type TargetRequest struct {
	Target float64 `json:"target" binding:"required"`
}

// Templates handles GET /api/v1/kpis/templates
func (h *KPIHandler) Templates(c *gin.Context) {
	c.JSON(http.StatusOK, h.kpiService.Templates())
}

// Mine handles GET /api/v1/kpis/mine
func (h *KPIHandler) Mine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpis, err := h.kpiService.Mine(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// ForStaff handles GET /api/v1/kpis/staff/:staffId
func (h *KPIHandler) ForStaff(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpis, err := h.kpiService.ForStaff(userID, c.Param("staffId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// Queue handles GET /api/v1/kpis/queue
func (h *KPIHandler) Queue(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpis, err := h.kpiService.Queue(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// Pending handles GET /api/v1/kpis/pending
func (h *KPIHandler) Pending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpis, err := h.kpiService.Pending(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// Create handles POST /api/v1/kpis
func (h *KPIHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.KPIInput
	if !bindJSON(c, &req) {
		return
	}

	kpi, err := h.kpiService.Add(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "kpi_assigned", "kpi", kpi.ID, map[string]interface{}{
		"name":        kpi.Name,
		"target":      kpi.Target,
		"assigned_to": kpi.AssignedToID,
	})
	c.JSON(http.StatusCreated, kpi)
}

// Sign handles POST /api/v1/kpis/:id/sign
func (h *KPIHandler) Sign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpi, err := h.kpiService.Sign(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "kpi_signed", "kpi", kpi.ID, nil)
	c.JSON(http.StatusOK, kpi)
}

// Approve handles POST /api/v1/kpis/:id/approve
func (h *KPIHandler) Approve(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	kpi, err := h.kpiService.Approve(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "kpi_approved", "kpi", kpi.ID, nil)
	c.JSON(http.StatusOK, kpi)
}

// ApproveAll handles POST /api/v1/kpis/approve-all
func (h *KPIHandler) ApproveAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.kpiService.ApproveAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "kpi_approved_all", "kpi", "", map[string]interface{}{"count": count})
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

// UpdateTarget handles PUT /api/v1/kpis/:id
func (h *KPIHandler) UpdateTarget(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TargetRequest
	if !bindJSON(c, &req) {
		return
	}

	kpi, err := h.kpiService.UpdateTarget(c.Request.Context(), userID, c.Param("id"), req.Target)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, kpi)
}

// Delete handles DELETE /api/v1/kpis/:id
func (h *KPIHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.kpiService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.decision(c, userID, "kpi_deleted", "kpi", id, nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "KPI deleted"})
}
