package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/utils"
)

// auditTrail writes audit events without failing the request; a nil service disables it
type auditTrail struct {
	service *services.AuditService
	logger  logrus.FieldLogger
}

func newAuditTrail(service *services.AuditService, logger logrus.FieldLogger) auditTrail {
	return auditTrail{service: service, logger: logger}
}

func (a auditTrail) report(operation string, err error) {
	if err != nil {
		a.logger.WithError(err).WithField("operation", operation).Warn("Audit write failed")
	}
}

// detached keeps the audit write alive after the client disconnects
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (a auditTrail) login(c *gin.Context, userID, username string, success bool) {
	if a.service == nil {
		return
	}
	a.report("LogLogin", a.service.LogLogin(detached(c), userID, username, utils.ClientIP(c), utils.UserAgent(c), success))
}

func (a auditTrail) tokenRefresh(c *gin.Context, userID string, success bool) {
	if a.service == nil {
		return
	}
	a.report("LogTokenRefresh", a.service.LogTokenRefresh(detached(c), userID, utils.ClientIP(c), utils.UserAgent(c), success))
}

func (a auditTrail) credential(c *gin.Context, userID, action string, success bool) {
	if a.service == nil {
		return
	}
	a.report("LogCredentialChange", a.service.LogCredentialChange(detached(c), userID, action, utils.ClientIP(c), utils.UserAgent(c), success))
}

func (a auditTrail) decision(c *gin.Context, actorID, action, entityType, entityID string, details map[string]interface{}) {
	if a.service == nil {
		return
	}
	a.report("LogDecision", a.service.LogDecision(detached(c), actorID, action, entityType, entityID, utils.ClientIP(c), utils.UserAgent(c), details))
}

func (a auditTrail) snapshot(c *gin.Context, actorID, action string, success bool) {
	if a.service == nil {
		return
	}
	a.report("LogSnapshot", a.service.LogSnapshot(detached(c), actorID, action, utils.ClientIP(c), utils.UserAgent(c), success))
}
