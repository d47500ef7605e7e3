package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	assetsapp "pipeline-dashboard/internal/assets/application"
	"pipeline-dashboard/internal/audit"
	importing "pipeline-dashboard/internal/importing/domain"
	"pipeline-dashboard/internal/importing/infrastructure/spreadsheet"
	"pipeline-dashboard/internal/observability/logging"
	"pipeline-dashboard/internal/observability/metrics"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("import: file too large")

// Row outcomes recorded in metrics.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Request describes one import run.
type Request struct {
	Filename string
	Body     io.Reader
	DryRun   bool
	Actor    string
}

// Report summarizes an import run.
type Report struct {
	Filename        string               `json:"filename"`
	DryRun          bool                 `json:"dry_run"`
	TotalRows       int                  `json:"total_rows"`
	Inserted        []string             `json:"inserted"`
	Updated         []string             `json:"updated"`
	Invalid         []importing.RowError `json:"invalid"`
	Errors          []importing.RowError `json:"errors"`
	UnmappedColumns []string             `json:"unmapped_columns"`
	Preview         []importing.Record   `json:"preview,omitempty"`
	DurationMS      int64                `json:"duration_ms"`
}

// Service runs spreadsheet imports into the asset store.
type Service struct {
	assets      *assetsapp.Service
	transformer *importing.Transformer
	aliases     *importing.Aliases
	audit       audit.Logger
	logger      *logging.Logger
	workers     int
	maxBytes    int64
}

// Option configures the import service.
type Option func(*Service)

// WithAudit records import runs.
func WithAudit(logger audit.Logger) Option {
	return func(s *Service) { s.audit = logger }
}

// WithLogger sets the service logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithWorkers bounds concurrent row transforms.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxBytes caps the accepted file size.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewService constructs an import service. extraAliases extend the column alias table.
func NewService(assets *assetsapp.Service, extraAliases map[string]string, opts ...Option) (*Service, error) {
	if assets == nil {
		return nil, errors.New("import service: nil asset service")
	}
	aliases, err := importing.NewAliases(extraAliases)
	if err != nil {
		return nil, err
	}
	transformer, err := importing.NewTransformer(aliases, assets.Now)
	if err != nil {
		return nil, err
	}
	s := &Service{
		assets:      assets,
		transformer: transformer,
		aliases:     aliases,
		workers:     4,
		maxBytes:    20 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WriteTemplate writes the XLSX import template.
func (s *Service) WriteTemplate(w io.Writer) error {
	return spreadsheet.WriteTemplate(w, importing.Headers())
}

// Import reads a file, transforms its rows and upserts them by asset name.
// Row failures are reported, not returned.
func (s *Service) Import(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	report, err := s.run(ctx, req)
	result := metrics.ResultOf(err)
	metrics.ObserveImport(result, time.Since(start))
	if err != nil {
		s.logger.Warn("import failed", "filename", req.Filename, "error", err)
		return nil, err
	}
	report.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info("import finished",
		"filename", req.Filename,
		"dry_run", req.DryRun,
		"rows", report.TotalRows,
		"inserted", len(report.Inserted),
		"updated", len(report.Updated),
		"invalid", len(report.Invalid),
		"errors", len(report.Errors),
	)
	if !req.DryRun {
		s.record(ctx, req, report)
	}
	return report, nil
}

func (s *Service) run(ctx context.Context, req Request) (*Report, error) {
	if req.Body == nil {
		return nil, errors.New("import: empty body")
	}
	if _, err := spreadsheet.DetectFormat(req.Filename); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("import: read body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	sheet, err := spreadsheet.Read(req.Filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	batch, err := s.transformer.TransformBatch(ctx, sheet.Rows, sheet.Lines, s.workers)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Filename:        req.Filename,
		DryRun:          req.DryRun,
		TotalRows:       len(sheet.Rows),
		Inserted:        []string{},
		Updated:         []string{},
		Invalid:         batch.Invalid,
		Errors:          batch.Errors,
		UnmappedColumns: s.unmapped(sheet.Headers),
	}
	for _, rowErr := range batch.Errors {
		s.logger.Warn("import row failed", "filename", req.Filename, "row", rowErr.Row, "error", rowErr.Msg)
	}

	if req.DryRun {
		report.Preview = batch.Valid
		seen := make(map[string]bool, len(batch.Valid))
		for _, rec := range batch.Valid {
			key := strings.ToLower(strings.TrimSpace(rec.Name()))
			if seen[key] {
				report.Updated = append(report.Updated, rec.Name())
				continue
			}
			seen[key] = true
			existing, err := s.assets.FindByName(ctx, rec.Name())
			if err != nil {
				return nil, err
			}
			if existing == nil {
				report.Inserted = append(report.Inserted, rec.Name())
			} else {
				report.Updated = append(report.Updated, rec.Name())
			}
		}
		return report, nil
	}

	for _, rec := range batch.Valid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asset, created, err := s.assets.Upsert(ctx, rec.Fields, req.Actor)
		if err != nil {
			rowErr := importing.RowError{Row: rec.Row, Err: err, Msg: err.Error()}
			report.Errors = append(report.Errors, rowErr)
			s.logger.Warn("import row failed", "filename", req.Filename, "row", rec.Row, "error", err)
			continue
		}
		if created {
			report.Inserted = append(report.Inserted, asset.Name)
		} else {
			report.Updated = append(report.Updated, asset.Name)
		}
	}
	sort.SliceStable(report.Errors, func(i, j int) bool { return report.Errors[i].Row < report.Errors[j].Row })

	metrics.AddImportRows(OutcomeInserted, len(report.Inserted))
	metrics.AddImportRows(OutcomeUpdated, len(report.Updated))
	metrics.AddImportRows(OutcomeInvalid, len(report.Invalid))
	metrics.AddImportRows(OutcomeError, len(report.Errors))
	return report, nil
}

func (s *Service) unmapped(headers []string) []string {
	out := []string{}
	for _, header := range headers {
		if header == "" {
			continue
		}
		if _, ok := s.aliases.Resolve(header); !ok {
			out = append(out, header)
		}
	}
	return out
}

func (s *Service) record(ctx context.Context, req Request, report *Report) {
	if s.audit == nil {
		return
	}
	err := s.audit.Log(ctx, audit.Entry{
		Actor:        req.Actor,
		Action:       audit.ActionImport,
		ResourceType: "import",
		ResourceID:   req.Filename,
		Metadata: audit.Metadata(map[string]any{
			"rows":     report.TotalRows,
			"inserted": len(report.Inserted),
			"updated":  len(report.Updated),
			"invalid":  len(report.Invalid),
			"errors":   len(report.Errors),
		}),
	})
	if err != nil {
		s.logger.Warn("audit log failed", "action", audit.ActionImport, "error", err)
	}
}
