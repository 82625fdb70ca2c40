package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hvac-backend/internal/auth"
	"hvac-backend/internal/cache"
	"hvac-backend/internal/config"
	"hvac-backend/internal/database"
	"hvac-backend/internal/db"
	"hvac-backend/internal/email"
	h "hvac-backend/internal/http"
	"hvac-backend/internal/handlers"
	"hvac-backend/internal/health"
	"hvac-backend/internal/logger"
	"hvac-backend/internal/middleware"
	"hvac-backend/internal/repositories"
	"hvac-backend/internal/services"
	"hvac-backend/internal/sms"
	"hvac-backend/internal/storage"
	"hvac-backend/migrations"
)

func main() {
	cfg := config.Load()
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	log := logger.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()
	log.WithField("host", cfg.Database.Host).Info("connected to database")

	// Run database migrations
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.NewMigrator(pool, migrations.FS).RunMigrations(migrateCtx); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to run migrations")
	}
	cancel()

	// Redis is optional: without it quote views are uncached and transition
	// locks fall back to the conditional update.
	store, err := cache.Init(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, running without cache")
	} else {
		log.Info("redis connected")
	}
	defer store.Close()
	locker := cache.NewLocker(store, 10*time.Second, 3*time.Second)

	var mailer email.Sender = email.NewMockEmailService()
	if cfg.Email.ResendAPIKey != "" {
		mailer = email.NewResendService(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.ReplyTo)
	} else {
		log.Warn("RESEND_API_KEY not set, emails are logged only")
	}

	var texter sms.Sender = sms.NewMockSMSService()
	if cfg.SMS.TwilioAccountSID != "" && cfg.SMS.TwilioAuthToken != "" {
		texter = sms.NewTwilioService(cfg.SMS.TwilioAccountSID, cfg.SMS.TwilioAuthToken, cfg.SMS.From, cfg.SMS.DefaultRegion)
	} else {
		log.Warn("Twilio not configured, SMS are logged only")
	}

	uploader, err := storage.NewS3Uploader(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to configure object storage")
	}

	// Repositories
	quoteRepo := repositories.NewQuoteRepository(pool)
	clientRepo := repositories.NewClientRepository(pool)
	inventoryRepo := repositories.NewInventoryRepository(pool)
	reportRepo := repositories.NewTechReportRepository(pool)
	prospectRepo := repositories.NewProspectRepository(pool)
	outboxRepo := repositories.NewOutboxRepository(pool)
	settingRepo := repositories.NewSystemSettingRepository(pool)
	profileRepo := repositories.NewProfileRepository(pool)
	actionLogRepo := repositories.NewAdminActionLogRepository(pool)

	// Services
	settingService := services.NewSystemSettingService(settingRepo, store, cfg)
	quoteService := services.NewQuoteService(quoteRepo, clientRepo, inventoryRepo, settingService,
		mailer, store, locker, services.QuoteOptionsFromConfig(cfg))
	reportService := services.NewTechReportService(reportRepo, quoteRepo, clientRepo, inventoryRepo,
		settingService, uploader, store)
	clientService := services.NewClientService(clientRepo, cfg.SMS.DefaultRegion)
	prospectService := services.NewProspectService(prospectRepo, cfg.SMS.DefaultRegion)
	inventoryService := services.NewInventoryService(inventoryRepo)
	auditService := services.NewAdminActionLogService(actionLogRepo)

	dispatcher := services.NewNotificationDispatcher(outboxRepo, mailer, texter, cfg)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// HTTP
	jwtManager := auth.NewJWTManager(cfg)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, profileRepo)
	router := h.NewRouter(
		handlers.NewQuoteHandler(quoteService, auditService, handlers.RedirectsFromConfig(cfg)),
		handlers.NewTechReportHandler(reportService, auditService),
		handlers.NewClientHandler(clientService),
		handlers.NewProspectHandler(prospectService),
		handlers.NewInventoryHandler(inventoryService),
		handlers.NewSystemSettingHandler(settingService, auditService),
		handlers.NewAdminActionLogHandler(auditService),
		handlers.NewHealthHandler(health.NewHealthChecker(pool, store, outboxRepo)),
		authMiddleware,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.NewCORS(cfg)(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
