package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"salesintake/internal/backend"
	"salesintake/internal/config"
	"salesintake/internal/disclosure"
	"salesintake/internal/handler"
	"salesintake/internal/intake"
	"salesintake/internal/logger"
	"salesintake/internal/notify"
	"salesintake/internal/port"
	"salesintake/internal/repository/postgres"
	"salesintake/internal/router"
	"salesintake/internal/session"
	s3storage "salesintake/internal/storage/s3"
	"salesintake/internal/upload"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backend gateway
	client := backend.New(cfg.Backend, cfg.Auth.SessionCookie, zl)
	resolver, err := session.NewResolver(cfg.Auth, client, zl)
	if err != nil {
		return fmt.Errorf("failed to build session resolver: %w", err)
	}

	// Upload journal
	var (
		db      *sqlx.DB
		journal port.UploadJournal
	)
	if cfg.Journal.Enabled {
		db, err = postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		journal = postgres.NewUploadJournalRepo(db)
	}

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.Storage.Enabled() {
		storage, err = s3storage.NewS3Client(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		zl.Warn("main: storage bucket not configured, uploads are disabled")
	}

	notifier, err := notify.New(&cfg.Notify, client, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	var trigger port.PipelineTrigger
	if cfg.Pipeline.TriggerURL != "" {
		trigger = notify.NewHTTPTrigger(cfg.Pipeline.TriggerURL, nil)
	}

	orchestrator := upload.NewOrchestrator(upload.Deps{
		Storage:  storage,
		Registry: client,
		Notifier: notifier,
		Journal:  journal,
		Pipeline: trigger,
		Logger:   zl,
	}, upload.Options{
		ReportType: cfg.Intake.ReportType,
		SourceTag:  cfg.Storage.SourceTag,
	})

	pipeline := intake.NewPipeline(cfg.Intake, zl)
	policy := disclosure.NewPolicy(cfg.Disclosure)

	// Initialize handlers
	h := router.Handlers{
		Auth:     handler.NewAuthHandler(client, resolver, policy, cfg.Auth, cfg.Server.Environment == "production", zl),
		Intake:   handler.NewIntakeHandler(pipeline, upload.NewWorkspace(), orchestrator, client, policy, zl),
		Upload:   handler.NewUploadHandler(client),
		Report:   handler.NewReportHandler(client, router.APIPrefix),
		Admin:    handler.NewAdminHandler(journal),
		Template: handler.NewTemplateHandler(cfg.Templates.BasePath, cfg.Intake.AcceptedExtensions),
		Health:   handler.NewHealthHandler(db),
	}

	// Setup router
	r := router.Setup(cfg, resolver, orchestrator.Enabled, h, zl)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("main: server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("auth_mode", cfg.Auth.Mode),
			zap.Bool("uploads_enabled", orchestrator.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	zl.Info("main: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("main: server shutdown failed", zap.Error(err))
	}

	// Let pending notifications and pipeline triggers finish.
	orchestrator.Close()
	return nil
}

func shutdownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}
