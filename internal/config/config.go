package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration. Environment variables set defaults;
// the YAML file named by PIPELINE_CONFIG overrides them.
type Config struct {
	DatabaseURL       string            `yaml:"database_url"`
	HTTPAddr          string            `yaml:"http_addr"`
	JWTSecret         string            `yaml:"jwt_secret"`
	IngestSecret      string            `yaml:"ingest_secret"`
	IngestSkewSeconds int               `yaml:"ingest_max_skew_seconds"`
	LogMode           string            `yaml:"log_mode"`
	Import            ImportConfig      `yaml:"import"`
	Recalculate       RecalculateConfig `yaml:"recalculate"`
	AssetsTable       string            `yaml:"assets_table"`
	AuditTable        string            `yaml:"audit_table"`
	ShutdownTimeout   time.Duration     `yaml:"shutdown_timeout"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	Workers  int   `yaml:"workers"`
	MaxBytes int64 `yaml:"max_bytes"`
	// ColumnAliases maps extra spreadsheet headers to canonical field names.
	ColumnAliases map[string]string `yaml:"column_aliases"`
}

// RecalculateConfig schedules portfolio recalculation.
type RecalculateConfig struct {
	// Schedule is a cron expression; empty disables the scheduler.
	Schedule string `yaml:"schedule"`
}

// Load reads configuration from the environment and the optional YAML file.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
		LogMode:           getenvDefault("LOG_MODE", "development"),
		Import: ImportConfig{
			Workers:  getenvIntDefault("IMPORT_WORKERS", 4),
			MaxBytes: int64(getenvIntDefault("IMPORT_MAX_BYTES", 20<<20)),
		},
		Recalculate: RecalculateConfig{
			Schedule: getenvDefault("RECALC_SCHEDULE", ""),
		},
		AssetsTable:     getenvDefault("ASSETS_TABLE", "assets"),
		AuditTable:      getenvDefault("AUDIT_TABLE", "audit_logs"),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if path := os.Getenv("PIPELINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = 1
	}
	if cfg.Import.MaxBytes <= 0 {
		cfg.Import.MaxBytes = 20 << 20
	}
	if cfg.AssetsTable == "" {
		cfg.AssetsTable = "assets"
	}
	if cfg.AuditTable == "" {
		cfg.AuditTable = "audit_logs"
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	if !validTableName(c.AssetsTable) || !validTableName(c.AuditTable) {
		return errors.New("config: invalid table name")
	}
	return nil
}

func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r != '_' && r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return !strings.HasPrefix(name, ".")
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
