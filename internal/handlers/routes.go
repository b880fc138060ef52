package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/middleware"
	"github.com/dukemzone/kpi-portal/internal/models"
	"github.com/dukemzone/kpi-portal/pkg/jwt"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	Ping() error
}

// Handlers groups every route handler of the API
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	KPIs     *KPIHandler
	Entries  *EntryHandler
	Feedback *FeedbackHandler
	Messages *MessageHandler
	Todos    *TodoHandler
	Backups  *BackupHandler
	Reports  *ReportHandler
	Coach    *CoachHandler
}

// HealthCheck handles GET /health. A nil db reports the in-memory backend.
func HealthCheck(db Pinger, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		dbStatus := "memory"

		if db != nil {
			dbStatus = "connected"
			if err := db.Ping(); err != nil {
				status = "unhealthy"
				dbStatus = "disconnected"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"database":  dbStatus,
		})
	}
}

// RegisterRoutes mounts /health and the /api/v1 group on the router
func RegisterRoutes(router *gin.Engine, h Handlers, jwtService *jwt.Service, db Pinger, version string, logger logrus.FieldLogger) {
	router.GET("/health", HealthCheck(db, version))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService, logger))

	supervisors := middleware.RequireRole(models.RoleManager, models.RoleCSM)
	managers := middleware.RequireRole(models.RoleManager)

	account := protected.Group("/auth")
	{
		account.POST("/passcode", h.Auth.SetPasscode)
		account.POST("/change-secret", h.Auth.ChangeSecret)
		account.POST("/agreement", h.Auth.AcceptAgreement)
		account.POST("/link-email", h.Auth.LinkEmail)
	}
	protected.GET("/me", h.Auth.Me)

	users := protected.Group("/users")
	{
		users.GET("", h.Users.List)
		users.GET("/visible", h.Users.VisibleStaff)
		users.GET("/:id", h.Users.Get)
		users.POST("", h.Users.Create)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
		users.POST("/:id/permissions", h.Users.TogglePermission)
		users.PUT("/:id/supervisor", h.Users.UpdateSupervisor)
		users.PUT("/:id/avatar", h.Users.UpdateProfilePic)
	}

	kpis := protected.Group("/kpis")
	{
		kpis.GET("/templates", h.KPIs.Templates)
		kpis.GET("/mine", h.KPIs.Mine)
		kpis.GET("/staff/:staffId", h.KPIs.ForStaff)
		kpis.GET("/queue", supervisors, h.KPIs.Queue)
		kpis.GET("/pending", supervisors, h.KPIs.Pending)
		kpis.POST("", supervisors, h.KPIs.Create)
		kpis.POST("/approve-all", supervisors, h.KPIs.ApproveAll)
		kpis.POST("/:id/sign", h.KPIs.Sign)
		kpis.POST("/:id/approve", supervisors, h.KPIs.Approve)
		kpis.PUT("/:id", supervisors, h.KPIs.UpdateTarget)
		kpis.DELETE("/:id", supervisors, h.KPIs.Delete)
	}

	entries := protected.Group("/entries")
	{
		entries.POST("", h.Entries.Submit)
		entries.GET("/mine", h.Entries.Mine)
		entries.GET("/submitted-today", h.Entries.SubmittedToday)
		entries.GET("/totals", h.Entries.Totals)
		entries.GET("/staff/:staffId", h.Entries.ForStaff)
		entries.GET("/pending", supervisors, h.Entries.Pending)
		entries.POST("/approve-all", supervisors, h.Entries.ApproveAll)
		entries.POST("/:id/authorize", supervisors, h.Entries.Authorize)
		entries.POST("/:id/reject", supervisors, h.Entries.Reject)
	}

	feedback := protected.Group("/feedback")
	{
		feedback.GET("", h.Feedback.List)
		feedback.GET("/hub", supervisors, h.Feedback.Hub)
		feedback.POST("/hub/viewed", supervisors, h.Feedback.MarkHubViewed)
		feedback.GET("/counts", h.Feedback.Counts)
		feedback.POST("", h.Feedback.Create)
		feedback.GET("/:id/replies", h.Feedback.Replies)
		feedback.PUT("/:id", h.Feedback.Update)
		feedback.DELETE("/:id", h.Feedback.Delete)
		feedback.POST("/:id/react", h.Feedback.React)
		feedback.POST("/:id/viewed", h.Feedback.MarkViewed)
	}

	messages := protected.Group("/messages")
	{
		messages.GET("", h.Messages.Inbox)
		messages.GET("/sent", h.Messages.Sent)
		messages.GET("/unread-count", h.Messages.UnreadCount)
		messages.POST("", h.Messages.Send)
		messages.PUT("/:id", h.Messages.Update)
		messages.DELETE("/:id", h.Messages.Delete)
		messages.POST("/:id/read", h.Messages.MarkRead)
	}

	todos := protected.Group("/todos")
	{
		todos.GET("", h.Todos.List)
		todos.POST("", h.Todos.Add)
		todos.POST("/:id/toggle", h.Todos.Toggle)
		todos.DELETE("/:id", h.Todos.Delete)
	}

	// Export, import and logs also admit holders of the all_access permission
	backups := protected.Group("/backups")
	{
		backups.GET("/export", h.Backups.Export)
		backups.POST("/import", h.Backups.Import)
		backups.GET("/logs", h.Backups.Logs)
		backups.POST("/sync", managers, h.Backups.SyncNow)
		backups.GET("/jobs", managers, h.Backups.JobStatus)
	}
	protected.GET("/audit", managers, h.Backups.AuditEvents)

	reports := protected.Group("/reports")
	{
		reports.GET("/matrix/:staffId", h.Reports.Matrix)
		reports.GET("/aggregate", supervisors, h.Reports.Aggregate)
	}

	coach := protected.Group("/coach")
	{
		coach.GET("/advice", h.Coach.Advice)
		coach.GET("/analysis", supervisors, h.Coach.Analysis)
		coach.GET("/kpis/:id/tips", h.Coach.KPITips)
		coach.GET("/staff/:staffId", supervisors, h.Coach.StaffDirective)
		coach.POST("/audio", h.Coach.Audio)
	}
}
