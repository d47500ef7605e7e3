package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	assets "pipeline-dashboard/internal/assets/domain"
	"pipeline-dashboard/internal/assets/infrastructure/memory"
	"pipeline-dashboard/internal/audit"
	scoring "pipeline-dashboard/internal/scoring/domain"
)

var fixedNow = time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.AssetRepository, *audit.MemoryLog) {
	t.Helper()
	repo := memory.NewAssetRepository()
	log := audit.NewMemoryLog()
	seq := 0
	svc, err := NewService(repo,
		WithAudit(log),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("asset-%d", seq)
		}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, log
}

func scenarioFields(name string) map[string]any {
	return map[string]any{
		"name":                       name,
		"plant_cod_score":            3,
		"market_score":               3,
		"transactability_score":      2,
		"thermal_optimization_score": 1,
		"environmental_score":        2,
		"redevelopment_market_score": 3,
		"infrastructure_score":       3,
		"interconnection_score":      2,
		"co_location_mode":           "Codevelopment",
	}
}

func TestServiceCreateScoresAsset(t *testing.T) {
	svc, _, log := newTestService(t)
	asset, err := svc.Create(context.Background(), scenarioFields("Alpha"), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if asset.ID != "asset-1" || !asset.IsActive || asset.UpdatedBy != "alice" {
		t.Fatalf("unexpected bookkeeping: %+v", asset)
	}
	if asset.ThermalScore.Float() != 2.45 || asset.RedevelopmentScore.Float() != 2.7 {
		t.Fatalf("unexpected scores: %v %v", asset.ThermalScore, asset.RedevelopmentScore)
	}
	if asset.OverallScore.Float() != 5.15 || asset.OverallRating != scoring.RatingStrong {
		t.Fatalf("unexpected overall: %v %s", asset.OverallScore, asset.OverallRating)
	}
	entries := log.Entries()
	if len(entries) != 1 || entries[0].Action != audit.ActionAssetCreate || entries[0].ResourceID != "asset-1" {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	fields := scenarioFields("")
	fields["transactability_score"] = 0
	fields["poi_voltage_kv"] = 2000
	fields["legacy_cod"] = "1700"
	_, err := svc.Create(context.Background(), fields, "alice")
	verr, ok := IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	got := map[string]bool{}
	for _, f := range verr.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"name", "transactability_score", "poi_voltage_kv", "legacy_cod"} {
		if !got[want] {
			t.Fatalf("expected %s in %+v", want, verr.Fields)
		}
	}
	if repo.Len() != 0 {
		t.Fatalf("invalid asset was stored")
	}
}

func TestServiceCreateAcceptsDateLikeCOD(t *testing.T) {
	svc, _, _ := newTestService(t)
	fields := scenarioFields("Dated")
	delete(fields, "plant_cod_score")
	fields["legacy_cod"] = "06/15/1998"
	fields["redev_cod"] = "Q3 2031"
	asset, err := svc.Create(context.Background(), fields, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if asset.PlantCODScore.Float() != 3 || asset.Status != scoring.StatusFuture {
		t.Fatalf("unexpected cod score %v status %s", asset.PlantCODScore, asset.Status)
	}

	fields["legacy_cod"] = "06/15/2301"
	_, err = svc.Create(context.Background(), fields, "alice")
	verr, ok := IsValidation(err)
	if !ok || len(verr.Fields) != 1 || verr.Fields[0].Field != "legacy_cod" {
		t.Fatalf("expected legacy_cod validation error, got %v", err)
	}
}

func TestServicePatchClearingISOClearsMarketScore(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	fields := scenarioFields("Alpha")
	delete(fields, "market_score")
	fields["iso"] = "PJM"
	created, err := svc.Create(ctx, fields, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.MarketScore.Float() != 3 || created.ThermalScore.Float() != 2.45 {
		t.Fatalf("unexpected scores: %v %v", created.MarketScore, created.ThermalScore)
	}

	patched, err := svc.Patch(ctx, created.ID, map[string]any{"iso": ""}, "bob")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.MarketScore.IsPresent() || patched.ThermalScore.IsPresent() || patched.OverallRating != scoring.RatingNA {
		t.Fatalf("expected N/A after clearing iso, got market=%v thermal=%v rating=%s",
			patched.MarketScore, patched.ThermalScore, patched.OverallRating)
	}

	patched, err = svc.Patch(ctx, created.ID, map[string]any{"market_score": 2}, "bob")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if patched.MarketScore.Float() != 2 || patched.ThermalScore.Float() != 2.15 {
		t.Fatalf("expected manual market score used, got %v / %v", patched.MarketScore, patched.ThermalScore)
	}
}

func TestServicePatchAndReplace(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, scenarioFields("Alpha"), "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	patched, err := svc.Patch(ctx, created.ID, map[string]any{"infrastructure_score": 0}, "bob")
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !patched.RedevelopmentScore.IsZero() || patched.OverallScore.Float() != 2.45 {
		t.Fatalf("expected zero short circuit, got %v / %v", patched.RedevelopmentScore, patched.OverallScore)
	}
	if patched.MarketScore.Float() != 3 {
		t.Fatalf("patch must keep untouched fields")
	}

	replaced, err := svc.Replace(ctx, created.ID, map[string]any{"name": "Alpha", "environmental_score": 1}, "bob")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.MarketScore.IsPresent() || replaced.ThermalScore.IsPresent() || replaced.OverallRating != scoring.RatingNA {
		t.Fatalf("replace must clear omitted fields: %+v", replaced)
	}

	if _, err := svc.Patch(ctx, "missing", map[string]any{"owner": "x"}, "bob"); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Patch(ctx, created.ID, map[string]any{"nope": 1}, "bob"); !errors.Is(err, assets.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, scenarioFields("Alpha"), "alice")
	if err := svc.Delete(ctx, created.ID, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID, "admin"); !errors.Is(err, assets.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestServiceUpsertByName(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	first, created, err := svc.Upsert(ctx, map[string]any{"name": "Alpha", "iso": "PJM", "owner": "Talen"}, "import")
	if err != nil || !created {
		t.Fatalf("expected insert, got created=%v err=%v", created, err)
	}
	second, created, err := svc.Upsert(ctx, map[string]any{"name": " ALPHA ", "iso": "ERCOT"}, "import")
	if err != nil || created {
		t.Fatalf("expected update, got created=%v err=%v", created, err)
	}
	if second.ID != first.ID || second.Owner != "Talen" || !second.MarketScore.IsZero() {
		t.Fatalf("unexpected merge: %+v", second)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one stored asset, got %d", repo.Len())
	}
	if _, _, err := svc.Upsert(ctx, map[string]any{"name": "#N/A"}, "import"); !errors.Is(err, assets.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestServiceListAndStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	for i, name := range []string{"Charlie", "alpha", "Bravo"} {
		fields := scenarioFields(name)
		if i == 2 {
			fields["environmental_score"] = nil
		}
		if _, err := svc.Create(ctx, fields, "alice"); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	page, err := svc.List(ctx, assets.ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || page.Items[0].Name != "alpha" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if _, err := svc.List(ctx, assets.ListFilter{SortBy: "password"}); !errors.Is(err, assets.ErrInvalidSort) {
		t.Fatalf("expected ErrInvalidSort, got %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.ByRating["Strong"] != 2 || stats.ByRating["N/A"] != 1 || stats.WithNA != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestServiceRecalculateAll(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, scenarioFields("Alpha"), "alice")
	if _, err := svc.Create(ctx, scenarioFields("Bravo"), "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale, _ := repo.Get(ctx, created.ID)
	stale.ThermalScore = scoring.Missing()
	stale.OverallRating = scoring.RatingNA
	if err := repo.Save(ctx, stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	report, err := svc.RecalculateAll(ctx, "admin")
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if report.Total != 2 || report.Updated != 1 || report.Unchanged != 1 || len(report.Failed) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	fixed, _ := repo.Get(ctx, created.ID)
	if fixed.ThermalScore.Float() != 2.45 || fixed.OverallRating != scoring.RatingStrong {
		t.Fatalf("expected restored scores, got %v %s", fixed.ThermalScore, fixed.OverallRating)
	}

	again, _ := svc.RecalculateAll(ctx, "admin")
	if again.Updated != 0 || again.Unchanged != 2 {
		t.Fatalf("expected idempotent second run, got %+v", again)
	}
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := NewScheduler(svc, "not a cron", nil); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := NewScheduler(svc, "0 3 * * *", nil); err != nil {
		t.Fatalf("expected valid schedule, got %v", err)
	}
}
