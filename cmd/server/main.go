package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dukemzone/kpi-portal/internal/config"
	"github.com/dukemzone/kpi-portal/internal/database"
	"github.com/dukemzone/kpi-portal/internal/handlers"
	"github.com/dukemzone/kpi-portal/internal/logging"
	"github.com/dukemzone/kpi-portal/internal/middleware"
	"github.com/dukemzone/kpi-portal/internal/services"
	"github.com/dukemzone/kpi-portal/internal/store"
	"github.com/dukemzone/kpi-portal/pkg/gemini"
	"github.com/dukemzone/kpi-portal/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New(config.LogConfig{Level: "info"}).Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log)
	logger.Info("Starting Dukem Industry Zone KPI portal")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.WithField("driver", db.DriverName()).Info("Database connection established")

	// Load the portal collections
	portal, err := store.Open(context.Background(), database.NewCollectionRepository(db), logger)
	if err != nil {
		logger.Fatalf("Failed to load portal data: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var auditService *services.AuditService
	if cfg.Security.EnableAuditLog {
		auditService = services.NewAuditService(database.NewAuditRepository(db), logger)
	}

	ai, err := gemini.NewClient(context.Background(), gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
	if err != nil {
		logger.Fatalf("Failed to create Gemini client: %v", err)
	}
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, coaching returns fallback texts")
	}

	overrides := cfg.DomainOverrides
	authService := services.NewAuthService(portal, jwtService, services.AuthOptions{
		LoginDelay:          cfg.Auth.LoginDelay,
		AllowLegacyDefaults: cfg.Auth.AllowLegacyDefaults,
		BcryptCost:          cfg.Security.BcryptCost,
	}, logger)
	userService := services.NewUserService(portal, logger)
	kpiService := services.NewKPIService(portal, portal, logger)
	entryService := services.NewEntryService(portal, portal, portal, overrides, logger)
	feedbackService := services.NewFeedbackService(portal, portal, logger)
	messageService := services.NewMessageService(portal, portal, logger)
	todoService := services.NewTodoService(portal, portal)
	backupService := services.NewBackupService(portal, portal, cfg.Backup.Dir, logger)
	reportService := services.NewReportService(portal, portal, portal)
	coachService := services.NewCoachService(ai, services.CoachModels{
		Text:   cfg.Gemini.TextModel,
		Pro:    cfg.Gemini.ProModel,
		Speech: cfg.Gemini.TTSModel,
		Voice:  cfg.Gemini.Voice,
	}, portal, portal, portal, overrides, logger)

	loginThrottle := services.NewRateLimitService(database.NewLoginAttemptRepository(db), services.RateLimitConfig{
		MaxUsernameAttempts: cfg.Security.MaxLoginAttempts,
		UsernameWindow:      cfg.Security.LoginWindow,
		MaxIPAttempts:       cfg.Security.MaxIPAttempts,
		IPWindow:            cfg.Security.IPWindow,
	}, logger)

	// Initialize and start cron service. Cleanup jobs always run; snapshot sync only when enabled.
	syncSchedule := ""
	if cfg.Backup.Enabled {
		syncSchedule = cfg.Backup.Schedule
	}
	cronService := services.NewCronService(backupService, auditService, syncSchedule, logger).
		WithLoginThrottle(loginThrottle)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.WithField("snapshot_sync", cfg.Backup.Enabled).Info("✓ Cron service started")

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 1 && cfg.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService, userService, entryService, auditService, logger).WithLoginThrottle(loginThrottle),
		Users:    handlers.NewUserHandler(userService, auditService, logger),
		KPIs:     handlers.NewKPIHandler(kpiService, auditService, logger),
		Entries:  handlers.NewEntryHandler(entryService, coachService, auditService, logger),
		Feedback: handlers.NewFeedbackHandler(feedbackService, logger),
		Messages: handlers.NewMessageHandler(messageService, logger),
		Todos:    handlers.NewTodoHandler(todoService, logger),
		Backups:  handlers.NewBackupHandler(backupService, cronService, auditService, logger),
		Reports:  handlers.NewReportHandler(reportService, logger),
		Coach:    handlers.NewCoachHandler(coachService, logger),
	}, jwtService, db, version, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
