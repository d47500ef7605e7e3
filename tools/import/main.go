package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	assetsapp "pipeline-dashboard/internal/assets/application"
	assets "pipeline-dashboard/internal/assets/domain"
	"pipeline-dashboard/internal/assets/infrastructure/memory"
	assetrepo "pipeline-dashboard/internal/assets/infrastructure/postgres"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/auth"
	importapp "pipeline-dashboard/internal/importing/application"
	importhttp "pipeline-dashboard/internal/importing/interfaces/http"
	"pipeline-dashboard/internal/observability/logging"
)

type config struct {
	file     string
	template string
	dryRun   bool
	dbURL    string
	table    string
	pushURL  string
	secret   string
	actor    string
	workers  int
	timeout  time.Duration
}

func main() {
	cfg := parseFlags()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	switch {
	case cfg.template != "":
		if err := writeTemplate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "template: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("template written to %s\n", cfg.template)
	case cfg.file == "":
		fmt.Fprintln(os.Stderr, "missing -file or -template")
		os.Exit(2)
	case cfg.pushURL != "":
		if err := push(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "push: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := importLocal(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "import: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.file, "file", "", "spreadsheet to import (.xlsx or .csv)")
	flag.StringVar(&cfg.template, "template", "", "write the import template to this path and exit")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "transform and report without saving")
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN; empty uses an in-memory store")
	flag.StringVar(&cfg.table, "table", getenvDefault("ASSETS_TABLE", "assets"), "assets table")
	flag.StringVar(&cfg.pushURL, "push", "", "send the file to a running server's /ingest/assets instead of importing locally")
	flag.StringVar(&cfg.secret, "secret", getenvDefault("INGEST_HMAC_SECRET", ""), "ingest HMAC secret used with -push")
	flag.StringVar(&cfg.actor, "actor", "tools/import", "actor recorded in the audit log")
	flag.IntVar(&cfg.workers, "workers", 4, "transform workers")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Minute, "overall timeout")
	flag.Parse()
	return cfg
}

func newServices(cfg config) (*importapp.Service, func(), error) {
	logger, err := logging.New(getenvDefault("LOG_MODE", "development"))
	if err != nil {
		return nil, nil, err
	}
	var (
		repo    assets.Repository = memory.NewAssetRepository()
		auditor audit.Logger      = audit.NewMemoryLog()
		closer                    = func() { logger.Sync() }
	)
	if cfg.dbURL != "" {
		db, err := sql.Open("pgx", cfg.dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		repo = assetrepo.NewAssetRepository(db, assetrepo.WithAssetTable(cfg.table))
		auditor = audit.NewRepository(db)
		closer = func() {
			_ = db.Close()
			logger.Sync()
		}
	}
	assetService, err := assetsapp.NewService(repo, assetsapp.WithAudit(auditor), assetsapp.WithLogger(logger))
	if err != nil {
		closer()
		return nil, nil, err
	}
	service, err := importapp.NewService(assetService, nil,
		importapp.WithAudit(auditor),
		importapp.WithLogger(logger),
		importapp.WithWorkers(cfg.workers),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return service, closer, nil
}

func writeTemplate(cfg config) error {
	service, closer, err := newServices(config{workers: 1})
	if err != nil {
		return err
	}
	defer closer()
	f, err := os.Create(cfg.template)
	if err != nil {
		return err
	}
	defer f.Close()
	return service.WriteTemplate(f)
}

func importLocal(ctx context.Context, cfg config) error {
	service, closer, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer closer()
	f, err := os.Open(cfg.file)
	if err != nil {
		return err
	}
	defer f.Close()
	report, err := service.Import(ctx, importapp.Request{
		Filename: filepath.Base(cfg.file),
		Body:     f,
		DryRun:   cfg.dryRun || cfg.dbURL == "",
		Actor:    cfg.actor,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func push(ctx context.Context, cfg config) error {
	if cfg.secret == "" {
		return fmt.Errorf("missing -secret (or INGEST_HMAC_SECRET)")
	}
	body, err := os.ReadFile(cfg.file)
	if err != nil {
		return err
	}
	target := strings.TrimSuffix(cfg.pushURL, "/") + "/ingest/assets"
	if cfg.dryRun {
		target += "?dry_run=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(auth.HeaderIngestTimestamp, timestamp)
	req.Header.Set(auth.HeaderIngestSignature, auth.SignIngest([]byte(cfg.secret), timestamp, body))
	req.Header.Set(importhttp.HeaderImportFilename, filepath.Base(cfg.file))

	client := &http.Client{Timeout: cfg.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	_, err = os.Stdout.Write(payload)
	return err
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
