package importing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	assets "pipeline-dashboard/internal/assets/domain"
	scoring "pipeline-dashboard/internal/scoring/domain"
)

var (
	// ErrMissingName marks a row without an asset name.
	ErrMissingName = errors.New("importing: missing project name")
	// ErrRowPanic marks a row whose transform panicked.
	ErrRowPanic = errors.New("importing: row transform panicked")
)

// RowError ties a failure to a 1-based source row number.
type RowError struct {
	Row int    `json:"row"`
	Err error  `json:"-"`
	Msg string `json:"error"`
}

func newRowError(row int, err error) *RowError {
	return &RowError{Row: row, Err: err, Msg: err.Error()}
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Record is one transformed row: the canonical fields it carried and the
// asset they score to on their own.
type Record struct {
	Row    int            `json:"row"`
	Fields map[string]any `json:"fields"`
	Asset  *assets.Asset  `json:"asset"`
}

// Name returns the asset name of the record.
func (r Record) Name() string {
	if r.Asset == nil {
		return ""
	}
	return r.Asset.Name
}

// Transformer maps raw rows to records.
type Transformer struct {
	aliases *Aliases
	now     func() time.Time
}

// NewTransformer constructs a Transformer. A nil aliases table uses the defaults.
func NewTransformer(aliases *Aliases, now func() time.Time) (*Transformer, error) {
	if aliases == nil {
		var err error
		if aliases, err = NewAliases(nil); err != nil {
			return nil, err
		}
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Transformer{aliases: aliases, now: now}, nil
}

// TransformRow maps a raw row keyed by column header. Missing cells are
// dropped, so only present values reach the record. Unknown headers are ignored.
func (t *Transformer) TransformRow(row map[string]any, rowNum int) (*Record, error) {
	headers := make([]string, 0, len(row))
	for header := range row {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	fields := make(map[string]any, len(row))
	for _, header := range headers {
		field, ok := t.aliases.Resolve(header)
		if !ok {
			continue
		}
		if _, seen := fields[field]; seen {
			continue
		}
		cell := scoring.Clean(row[header])
		if cell.IsMissing() {
			continue
		}
		fields[field] = cell.String()
	}
	if _, ok := fields["name"]; !ok {
		return nil, newRowError(rowNum, ErrMissingName)
	}

	asset := &assets.Asset{}
	if err := asset.Apply(fields); err != nil {
		return nil, newRowError(rowNum, err)
	}
	asset.Recompute(t.now())
	return &Record{Row: rowNum, Fields: fields, Asset: asset}, nil
}

// TransformRow maps a row with the default aliases.
func TransformRow(row map[string]any, rowNum int, now time.Time) (*Record, error) {
	t, err := NewTransformer(nil, func() time.Time { return now })
	if err != nil {
		return nil, err
	}
	return t.TransformRow(row, rowNum)
}

// BatchResult splits a batch into scored records, rows without a name,
// and rows that failed otherwise. Each list keeps input order.
type BatchResult struct {
	Valid   []Record   `json:"valid"`
	Invalid []RowError `json:"invalid"`
	Errors  []RowError `json:"errors"`
}

// TransformBatch transforms rows with at most workers goroutines. lines[i]
// numbers rows[i] in errors; without lines, rows number 1-based by position.
// A row failure never stops the batch.
func (t *Transformer) TransformBatch(ctx context.Context, rows []map[string]any, lines []int, workers int) (BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}
	records := make([]*Record, len(rows))
	failures := make([]*RowError, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], failures[i] = t.safeTransform(rows[i], rowNumber(lines, i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Valid: []Record{}, Invalid: []RowError{}, Errors: []RowError{}}
	for i := range rows {
		switch {
		case records[i] != nil:
			result.Valid = append(result.Valid, *records[i])
		case failures[i] == nil:
		case errors.Is(failures[i].Err, ErrMissingName):
			result.Invalid = append(result.Invalid, *failures[i])
		default:
			result.Errors = append(result.Errors, *failures[i])
		}
	}
	return result, nil
}

func rowNumber(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1
}

func (t *Transformer) safeTransform(row map[string]any, rowNum int) (rec *Record, rowErr *RowError) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			rowErr = newRowError(rowNum, fmt.Errorf("%w: %v", ErrRowPanic, r))
		}
	}()
	rec, err := t.TransformRow(row, rowNum)
	if err != nil {
		var re *RowError
		if errors.As(err, &re) {
			return nil, re
		}
		return nil, newRowError(rowNum, err)
	}
	return rec, nil
}
