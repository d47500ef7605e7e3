package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	assetsapp "pipeline-dashboard/internal/assets/application"
	assetrepo "pipeline-dashboard/internal/assets/infrastructure/postgres"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/observability/logging"
)

type config struct {
	dbURL      string
	table      string
	auditTable string
	actor      string
	timeout    time.Duration
}

func main() {
	cfg := parseFlags()
	if cfg.dbURL == "" {
		fmt.Fprintln(os.Stderr, "missing -db (or DATABASE_URL/PG_DSN)")
		os.Exit(2)
	}
	logger, err := logging.New(getenvDefault("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(2)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	service, err := assetsapp.NewService(
		assetrepo.NewAssetRepository(db, assetrepo.WithAssetTable(cfg.table)),
		assetsapp.WithAudit(audit.NewRepository(db, audit.WithTable(cfg.auditTable))),
		assetsapp.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "service: %v\n", err)
		os.Exit(2)
	}
	report, err := service.RecalculateAll(ctx, cfg.actor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recalculate: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.StringVar(&cfg.table, "table", getenvDefault("ASSETS_TABLE", "assets"), "assets table")
	flag.StringVar(&cfg.auditTable, "audit-table", getenvDefault("AUDIT_TABLE", "audit_logs"), "audit table")
	flag.StringVar(&cfg.actor, "actor", "tools/recalculate", "actor recorded in the audit log")
	flag.DurationVar(&cfg.timeout, "timeout", 10*time.Minute, "overall timeout")
	flag.Parse()
	return cfg
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
