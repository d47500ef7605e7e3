package importing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	scoring "pipeline-dashboard/internal/scoring/domain"
)

var importNow = time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)

type explodingCell struct{}

func (explodingCell) String() string { panic("bad cell") }

func TestAliasesResolve(t *testing.T) {
	aliases, err := NewAliases(map[string]string{"Plant": "name"})
	if err != nil {
		t.Fatalf("new aliases: %v", err)
	}
	cases := map[string]string{
		"Project Name":          "name",
		"  Envionmental Score ": "environmental_score",
		"poi voltage (kv)":      "poi_voltage_kv",
		"Market Score":          "redevelopment_market_score",
		"Markets Score":         "market_score",
		"capacity_mw":           "capacity_mw",
		"Plant":                 "name",
	}
	for header, want := range cases {
		got, ok := aliases.Resolve(header)
		if !ok || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", header, want, got, ok)
		}
	}
	if _, ok := aliases.Resolve("Thermal Operating Score"); ok {
		t.Fatalf("derived columns must not resolve")
	}
	if _, err := NewAliases(map[string]string{"Score": "overall_score"}); err == nil {
		t.Fatalf("expected error for derived alias target")
	}
}

func TestTransformRowScoresRawValues(t *testing.T) {
	row := map[string]any{
		"Project Name":         " Keystone ",
		"ISO":                  "PJM",
		"Legacy COD (Year)":    "1995",
		"Capacity Factor (%)":  "8.5",
		"Transactability":      "1",
		"Thermal Optimization": "#N/A",
		"Envionmental Score":   2,
		"Market Score":         3,
		"Infra":                3,
		"IX":                   2,
		"Co-Locate/Repower":    "Repower",
		"Legacy Capacity (MW)": "=XLOOKUP(A2,B:B,C:C)",
		"Unrelated Column":     "ignored",
	}
	rec, err := TransformRow(row, 4, importNow)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	a := rec.Asset
	if a.Name != "Keystone" || rec.Row != 4 {
		t.Fatalf("unexpected identity: %q row %d", a.Name, rec.Row)
	}
	if a.MarketScore.Float() != 3 || a.PlantCODScore.Float() != 3 || a.TransactabilityScore.Float() != 3 || a.CapacityFactorScore.Float() != 3 {
		t.Fatalf("unexpected categorical scores: %+v", a)
	}
	if _, ok := rec.Fields["thermal_optimization_score"]; ok {
		t.Fatalf("missing cells must be dropped")
	}
	if _, ok := rec.Fields["capacity_mw"]; ok {
		t.Fatalf("formula cells must be dropped")
	}
	// thermal: 3*.2 + 3*.3 + 3*.3 + 0 + 2*.15 = 2.7; redev: 2.7*.75 = 2.025 -> 2.03
	if a.ThermalScore.Float() != 2.7 || a.RedevelopmentScore.Float() != 2.03 || a.OverallScore.Float() != 4.73 {
		t.Fatalf("unexpected derived scores: %s %s %s", a.ThermalScore, a.RedevelopmentScore, a.OverallScore)
	}
	if a.OverallRating != scoring.RatingStrong || a.Status != scoring.StatusOperating {
		t.Fatalf("unexpected rating/status: %s %s", a.OverallRating, a.Status)
	}
}

func TestTransformRowMissingName(t *testing.T) {
	_, err := TransformRow(map[string]any{"Project Name": "#N/A", "ISO": "PJM"}, 7, importNow)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 7 || !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected missing name row error, got %v", err)
	}
}

func TestTransformBatchKeepsOrderAndCollectsFailures(t *testing.T) {
	rows := make([]map[string]any, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, map[string]any{"Project Name": fmt.Sprintf("Asset %02d", i), "ISO": "SPP"})
	}
	rows[5] = map[string]any{"ISO": "PJM"}
	rows[9] = map[string]any{"Project Name": "Boom", "Fuel": explodingCell{}}

	tr, err := NewTransformer(nil, func() time.Time { return importNow })
	if err != nil {
		t.Fatalf("new transformer: %v", err)
	}
	result, err := tr.TransformBatch(context.Background(), rows, nil, 4)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(result.Valid) != 38 || len(result.Invalid) != 1 || len(result.Errors) != 1 {
		t.Fatalf("unexpected split: %d valid, %d invalid, %d errors", len(result.Valid), len(result.Invalid), len(result.Errors))
	}
	for i := 1; i < len(result.Valid); i++ {
		if result.Valid[i-1].Row >= result.Valid[i].Row {
			t.Fatalf("valid records out of order at %d", i)
		}
	}
	if result.Invalid[0].Row != 6 {
		t.Fatalf("expected invalid row 6, got %d", result.Invalid[0].Row)
	}
	if result.Errors[0].Row != 10 || !errors.Is(result.Errors[0].Err, ErrRowPanic) {
		t.Fatalf("expected recovered panic on row 10, got %+v", result.Errors[0])
	}
}

func TestTransformBatchCanceled(t *testing.T) {
	tr, _ := NewTransformer(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.TransformBatch(ctx, []map[string]any{{"Project Name": "A"}}, nil, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTransformBatchUsesSourceLines(t *testing.T) {
	rows := []map[string]any{
		{"Project Name": "A"},
		{"ISO": "PJM"},
	}
	tr, _ := NewTransformer(nil, func() time.Time { return importNow })
	result, err := tr.TransformBatch(context.Background(), rows, []int{2, 5}, 1)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(result.Valid) != 1 || result.Valid[0].Row != 2 {
		t.Fatalf("expected valid row 2, got %+v", result.Valid)
	}
	if len(result.Invalid) != 1 || result.Invalid[0].Row != 5 {
		t.Fatalf("expected invalid row 5, got %+v", result.Invalid)
	}
}
