package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/services"
)

// maxSnapshotBytes caps an uploaded snapshot document
const maxSnapshotBytes = 32 << 20

// BackupHandler handles snapshot export/import, the backup trail and the audit log
type BackupHandler struct {
	backupService *services.BackupService
	cronService   *services.CronService
	auditService  *services.AuditService
	audit         auditTrail
	logger        logrus.FieldLogger
}

// NewBackupHandler creates a new backup handler. cronService may be nil when scheduling is disabled.
func NewBackupHandler(backupService *services.BackupService, cronService *services.CronService, auditService *services.AuditService, logger logrus.FieldLogger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		cronService:   cronService,
		auditService:  auditService,
		audit:         newAuditTrail(auditService, logger),
		logger:        logger,
	}
}

// ImportResponse reports whether the snapshot was applied
type ImportResponse struct {
	Imported bool   `json:"imported"`
	Message  string `json:"message"`
}

// SyncResponse names the snapshot file written by a manual sync
type SyncResponse struct {
	Path string `json:"path"`
}

// Export handles GET /api/v1/backups/export
func (h *BackupHandler) Export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	data, filename, err := h.backupService.Export(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.snapshot(c, userID, "snapshot_exported", true)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import handles POST /api/v1/backups/import with the snapshot document as the body
func (h *BackupHandler) Import(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Failed to read snapshot"})
		return
	}

	imported, err := h.backupService.Import(c.Request.Context(), userID, data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.snapshot(c, userID, "snapshot_imported", imported)
	if !imported {
		c.JSON(http.StatusBadRequest, ImportResponse{Imported: false, Message: "Snapshot is not a valid portal document"})
		return
	}
	c.JSON(http.StatusOK, ImportResponse{Imported: true, Message: "Snapshot imported"})
}

// Logs handles GET /api/v1/backups/logs
func (h *BackupHandler) Logs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	logs, err := h.backupService.Logs(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// SyncNow handles POST /api/v1/backups/sync
func (h *BackupHandler) SyncNow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	path, err := h.backupService.Sync(c.Request.Context())
	h.audit.snapshot(c, userID, "snapshot_synced", err == nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Path: path})
}

// JobStatus handles GET /api/v1/backups/jobs
func (h *BackupHandler) JobStatus(c *gin.Context) {
	if h.cronService == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "job_count": 0, "jobs": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}

// AuditEvents handles GET /api/v1/audit?userId=&limit=
func (h *BackupHandler) AuditEvents(c *gin.Context) {
	if h.auditService == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "Audit log is not configured"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.auditService.GetRecentEvents(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
