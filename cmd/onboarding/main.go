package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/selfcast/onboarding/internal/application"
	"github.com/selfcast/onboarding/internal/calendly"
	"github.com/selfcast/onboarding/internal/config"
	httptransport "github.com/selfcast/onboarding/internal/http"
	"github.com/selfcast/onboarding/internal/ingest"
	"github.com/selfcast/onboarding/internal/mailer"
	"github.com/selfcast/onboarding/internal/persistence"
	"github.com/selfcast/onboarding/internal/persistence/sqlite"
	"github.com/selfcast/onboarding/internal/tasks"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString

	projectRepo := sqlite.NewProjectRepository(pool)
	bookingRepo := sqlite.NewBookingRepository(pool)

	reconciler := application.NewReconciler(projectRepo, bookingRepo, time.Now, logger)
	codeGenerator := application.NewProjectCodeGenerator(projectRepo, nil, nil, logger)
	ingestService := application.NewIngestService(bookingRepo, reconciler, idGenerator, nil, logger)

	var providerClient *calendly.Client
	var syncService *application.SyncService
	if cfg.ProviderConfigured() {
		providerClient = calendly.NewClient(cfg.CalendlyToken, nil)
		pollSource := ingest.NewPollSource(providerClient, logger)
		syncService = application.NewSyncService(pollSource, ingestService, cfg.SyncLookback, cfg.SyncLookahead, nil, logger)
	} else {
		logger.Warn("no provider token configured, the poll and sync paths are disabled")
	}

	taskHandlers := &tasks.Handlers{Sweeper: reconciler, Logger: logger}
	if syncService != nil {
		taskHandlers.Syncer = syncService
	}
	if cfg.MailConfigured() {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, logger)
		if err != nil {
			logger.Error("failed to configure mailer", "error", err)
			os.Exit(1)
		}
		taskHandlers.Mailer = smtpMailer
	} else {
		logger.Warn("no SMTP host configured, welcome emails are disabled")
	}

	var enqueuer tasks.Enqueuer
	if cfg.RedisAddr != "" {
		queue := tasks.NewQueueEnqueuer(cfg.RedisAddr)
		defer queue.Close()
		worker := tasks.NewWorker(cfg.RedisAddr, taskHandlers)
		go func() {
			if err := worker.Run(); err != nil {
				logger.Error("task worker stopped", "error", err)
			}
		}()
		defer worker.Shutdown()
		enqueuer = queue
	} else {
		enqueuer = tasks.NewInlineDispatcher(taskHandlers, time.Minute, logger)
	}

	onboardingService := application.NewOnboardingService(
		projectRepo,
		codeGenerator,
		reconciler,
		enqueuer,
		application.DefaultFormOptions(),
		idGenerator,
		nil,
		nil,
		logger,
	)

	if cfg.MailboxConfigured() {
		mailbox := ingest.NewMailboxSource(ingest.MailboxConfig{
			Addr:           cfg.IMAPAddr,
			Username:       cfg.IMAPUsername,
			Password:       cfg.IMAPPassword,
			FromAddress:    cfg.NotificationSender,
			BookingAddress: cfg.BookingAddress,
		}, logger)
		go runMailboxLoop(ctx, mailbox, ingestService, logger)
	}

	var webhookHandler *httptransport.WebhookHandler
	if providerClient != nil {
		webhookHandler, err = httptransport.NewWebhookHandler(ingestService, providerClient, cfg.WebhookSigningKey, nil, logger)
	} else {
		webhookHandler, err = httptransport.NewWebhookHandler(ingestService, nil, cfg.WebhookSigningKey, nil, logger)
	}
	if err != nil {
		logger.Error("failed to build webhook handler", "error", err)
		os.Exit(1)
	}

	var adminHandler *httptransport.AdminHandler
	if syncService != nil {
		adminHandler = httptransport.NewAdminHandler(syncService, reconciler, logger)
	} else {
		adminHandler = httptransport.NewAdminHandler(nil, reconciler, logger)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Onboarding: httptransport.NewOnboardingHandler(onboardingService, logger),
		Webhook:    webhookHandler,
		Admin:      adminHandler,
		Metrics:    promhttp.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("onboarding API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// runMailboxLoop periodically drains the notification mailbox into the
// ingest pipeline until the context is cancelled.
func runMailboxLoop(ctx context.Context, mailbox *ingest.MailboxSource, ingestService *application.IngestService, logger *slog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		events, err := mailbox.FetchNotifications(ctx)
		if err != nil {
			logger.Error("mailbox fetch failed", "error", err)
		}
		for _, event := range events {
			if _, err := ingestService.NormalizeAndStore(ctx, event, persistence.BookingSourceEmail); err != nil {
				logger.Error("failed to ingest mailbox notification", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
