package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	assetsapp "pipeline-dashboard/internal/assets/application"
	assetrepo "pipeline-dashboard/internal/assets/infrastructure/postgres"
	assethttp "pipeline-dashboard/internal/assets/interfaces/http"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/auth"
	"pipeline-dashboard/internal/config"
	importapp "pipeline-dashboard/internal/importing/application"
	importhttp "pipeline-dashboard/internal/importing/interfaces/http"
	"pipeline-dashboard/internal/observability/logging"
	"pipeline-dashboard/internal/observability/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline-dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	metrics.Init(db, cfg.AssetsTable, logger)
	auditRepo := audit.NewRepository(db, audit.WithTable(cfg.AuditTable))
	assetRepo := assetrepo.NewAssetRepository(db, assetrepo.WithAssetTable(cfg.AssetsTable))

	assetService, err := assetsapp.NewService(assetRepo,
		assetsapp.WithAudit(auditRepo),
		assetsapp.WithLogger(logger.With("component", "assets")),
	)
	if err != nil {
		return err
	}
	importService, err := importapp.NewService(assetService, cfg.Import.ColumnAliases,
		importapp.WithAudit(auditRepo),
		importapp.WithLogger(logger.With("component", "import")),
		importapp.WithWorkers(cfg.Import.Workers),
		importapp.WithMaxBytes(cfg.Import.MaxBytes),
	)
	if err != nil {
		return err
	}

	assetHandler, err := assethttp.NewHandler(assetService, auditRepo, logger.With("component", "assets_http"))
	if err != nil {
		return err
	}
	importHandler, err := importhttp.NewHandler(importService, cfg.Import.MaxBytes, logger.With("component", "import_http"))
	if err != nil {
		return err
	}
	ingestHandler, err := importhttp.NewIngestHandler(importService)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Recalculate.Schedule != "" {
		scheduler, err := assetsapp.NewScheduler(assetService, cfg.Recalculate.Schedule, logger.With("component", "recalc_scheduler"))
		if err != nil {
			return fmt.Errorf("recalculate schedule: %w", err)
		}
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				logger.Error("recalculation scheduler stopped", "error", err)
			}
		}()
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware(
		[]byte(cfg.IngestSecret),
		time.Duration(cfg.IngestSkewSeconds)*time.Second,
		cfg.Import.MaxBytes,
	)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/assets", assetHandler)
	mux.Handle("/api/v1/assets/", assetHandler)
	mux.Handle("/api/v1/scoring/calculate", assethttp.NewCalculateHandler())
	mux.Handle("/api/v1/imports", importHandler)
	mux.Handle("/api/v1/imports/", importHandler)
	mux.Handle("/ingest/assets", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(audit.Middleware(authMiddleware.Wrap(mux)), logger.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler, logger *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
