package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"stock-service/internal/config"
	"stock-service/internal/events"
	"stock-service/internal/handlers"
	"stock-service/internal/importer"
	"stock-service/internal/jobs"
	"stock-service/internal/metrics"
	"stock-service/internal/middleware"
	"stock-service/internal/models"
	"stock-service/internal/notifier"
	"stock-service/internal/repository"
	"stock-service/internal/services"
	"stock-service/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Item{},
		&models.UploadHistory{},
		&models.ActivityLog{},
		&models.User{},
		&models.WebhookSettings{},
		&models.SystemSettings{},
	); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	// Redis is optional: without it item lists are not cached and logout only clears the cookie.
	redisClient, err := config.InitRedis(cfg)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without cache and token denylist")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize NATS event publisher, continuing without events")
			publisher = nil
		} else {
			logger.Info("Connected to NATS JetStream for event publishing")
			defer publisher.Close()
		}
	} else {
		logger.Info("NATS_URL not configured, event publishing disabled")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	archive, closeArchive, err := storage.OpenArchive(ctx, cfg.ArchiveBackend, cfg.ArchiveDir, cfg.GCSBucket)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open upload archive")
	}
	defer closeArchive()

	// Repositories
	itemRepo := repository.NewItemRepository(db, redisClient, logger)
	uploadRepo := repository.NewUploadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	auditService := services.NewAuditService(activityRepo, logger)
	settingsService, err := services.LoadSettingsService(ctx, settingsRepo, cfg.DefaultTimezone)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load settings")
	}
	authService := services.NewAuthService(userRepo, services.NewRedisDenylist(redisClient), auditService,
		cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	notificationService := services.NewNotificationService(itemRepo, settingsService,
		notifier.NewClient(cfg.WebhookTimeout, logger), auditService, logger)
	importService := importer.NewService(itemRepo, uploadRepo, archive, auditService, publisher, importer.Options{
		MaxRows: cfg.ImportMaxRows,
		Timeout: cfg.ImportTimeout,
		TempDir: cfg.UploadTempDir,
	}, logger)

	// Handlers
	pagination := handlers.Pagination{DefaultLimit: cfg.DefaultPageSize, MaxLimit: cfg.MaxPageSize}
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction(), logger)
	itemHandler := handlers.NewItemHandler(itemRepo, auditService, pagination, logger)
	importHandler := handlers.NewImportHandler(importService, cfg.ImportMaxFileBytes, "/", logger)
	historyHandler := handlers.NewHistoryHandler(uploadRepo, auditService, archive, settingsService, pagination, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, auditService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	healthHandler := handlers.NewHealthHandler()
	healthHandler.AddCheck("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if redisClient != nil {
		healthHandler.AddCheck("redis", itemRepo.RedisHealth)
	}
	if publisher != nil {
		healthHandler.AddCheck("nats", func(context.Context) error {
			if !publisher.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.Readiness)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", middleware.JWTAuth(authService))
	anyRole := middleware.RequireRole(models.RoleStaffGudang, models.RoleManajer)
	staff := middleware.RequireRole(models.RoleStaffGudang)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	auth := protected.Group("/auth")
	{
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authHandler.Me)
		auth.PUT("/password", authHandler.ChangePassword)
	}

	items := protected.Group("/items")
	{
		items.GET("", anyRole, itemHandler.ListItems)
		items.POST("", staff, itemHandler.CreateItem)
		items.DELETE("", adminOnly, itemHandler.DeleteAllItems)
		items.GET("/export", anyRole, itemHandler.ExportItems)
		items.POST("/reset/:field", adminOnly, itemHandler.ResetField)
		items.GET("/:id", anyRole, itemHandler.GetItem)
		items.PUT("/:id", staff, itemHandler.UpdateItem)
		items.DELETE("/:id", staff, itemHandler.DeleteItem)
		items.PUT("/:id/minimum-stock", staff, itemHandler.SetMinimumStock)
		items.DELETE("/:id/minimum-stock", staff, itemHandler.ClearMinimumStock)
		items.PUT("/:id/transfer-stock", staff, itemHandler.SetTransferStock)
		items.DELETE("/:id/transfer-stock", staff, itemHandler.ClearTransferStock)
		items.PUT("/:id/expiry-date", staff, itemHandler.SetExpiryDate)
		items.PUT("/:id/latest-price", adminOnly, itemHandler.SetLatestPrice)
	}

	imports := protected.Group("/imports")
	{
		imports.POST("/:flavor", staff, importHandler.Import)
		imports.GET("/:flavor/template", anyRole, importHandler.Template)
	}

	protected.GET("/uploads", anyRole, historyHandler.ListUploads)
	protected.GET("/uploads/:id/download", anyRole, historyHandler.DownloadUpload)
	protected.GET("/activity-logs", anyRole, historyHandler.ListActivity)

	settings := protected.Group("/settings", adminOnly)
	{
		settings.GET("/webhooks", settingsHandler.GetWebhooks)
		settings.PUT("/webhooks", settingsHandler.UpdateWebhooks)
		settings.PUT("/webhooks/:category", settingsHandler.UpdateWebhook)
		settings.GET("/timezone", settingsHandler.GetTimezone)
		settings.PUT("/timezone", settingsHandler.UpdateTimezone)
	}

	protected.POST("/notifications/:category", anyRole, notificationHandler.Send)

	purgeJob := jobs.NewArchivePurgeJob(archive, cfg.ArchivePurgeInterval, cfg.ArchiveRetention, logger)
	go purgeJob.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Stock service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down stock-service...")

	purgeJob.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	logger.Info("Stock service stopped")
}
