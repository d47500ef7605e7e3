package assets

import (
	"errors"
	"testing"
	"time"

	scoring "pipeline-dashboard/internal/scoring/domain"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleAsset() *Asset {
	return &Asset{
		ID:                       "asset-1",
		Name:                     "Brandon Shores",
		ISO:                      "PJM",
		LegacyCOD:                "1984",
		Transactability:          "2",
		CapacityFactor:           scoring.ScoreOf(8),
		CapacityMW:               scoring.ScoreOf(1273),
		Fuel:                     "Coal",
		EnvironmentalScore:       scoring.Int(2),
		ThermalOptimizationScore: scoring.Int(1),
		RedevelopmentMarketScore: scoring.Int(3),
		InfrastructureScore:      scoring.Int(3),
		InterconnectionScore:     scoring.Int(2),
		CoLocationMode:           "Repower",
		IsActive:                 true,
	}
}

func TestRecomputeDerivesCategoricalScores(t *testing.T) {
	a := sampleAsset()
	a.Recompute(testNow)

	if a.MarketScore.Float() != 3 || a.PlantCODScore.Float() != 3 {
		t.Fatalf("unexpected categorical scores: market=%v cod=%v", a.MarketScore, a.PlantCODScore)
	}
	if a.TransactabilityScore.Float() != 2 {
		t.Fatalf("expected transactability 2, got %v", a.TransactabilityScore)
	}
	if a.CapacityFactorScore.Float() != 3 || a.CapacitySizeScore.Float() != 1 || !a.FuelScore.IsZero() {
		t.Fatalf("unexpected supplement scores: cf=%v size=%v fuel=%v", a.CapacityFactorScore, a.CapacitySizeScore, a.FuelScore)
	}
	if a.ThermalScore.Float() != 2.45 {
		t.Fatalf("expected thermal 2.45, got %v", a.ThermalScore)
	}
	if a.RedevelopmentScore.Float() != 2.03 {
		t.Fatalf("expected redevelopment 2.03, got %v", a.RedevelopmentScore)
	}
	if a.OverallScore.Float() != 4.48 || a.OverallRating != scoring.RatingModerate {
		t.Fatalf("unexpected overall: %v %s", a.OverallScore, a.OverallRating)
	}
	if a.Status != scoring.StatusOperating || a.HasNA {
		t.Fatalf("unexpected status=%s has_na=%v", a.Status, a.HasNA)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	a := sampleAsset()
	a.Recompute(testNow)
	first := a.Clone()
	a.Recompute(testNow)
	if !DerivedEqual(first, a) || !first.TransactabilityScore.Equal(a.TransactabilityScore) {
		t.Fatalf("recompute changed derived values: %+v vs %+v", first, a)
	}
	if *first != *a {
		t.Fatalf("recompute changed the record")
	}
}

func TestRecomputeKeepsManualScoresWithoutRaw(t *testing.T) {
	a := &Asset{
		ID:                   "asset-2",
		Name:                 "Manual",
		PlantCODScore:        scoring.Int(1),
		MarketScore:          scoring.Int(0),
		TransactabilityScore: scoring.Int(3),
		EnvironmentalScore:   scoring.Int(0),
	}
	a.Recompute(testNow)
	if a.ThermalScore.Float() != 1.1 {
		t.Fatalf("expected thermal 1.1, got %v", a.ThermalScore)
	}
	if a.RedevelopmentScore.IsPresent() || a.OverallRating != scoring.RatingNA || !a.HasNA {
		t.Fatalf("expected N/A redevelopment, got %v %s", a.RedevelopmentScore, a.OverallRating)
	}
	if a.Status != scoring.StatusUnknown {
		t.Fatalf("expected unknown status, got %s", a.Status)
	}
}

func TestRecomputeRedevelopmentCODTakesPrecedence(t *testing.T) {
	a := sampleAsset()
	a.RedevCOD = "2029"
	a.Recompute(testNow)
	if a.Status != scoring.StatusFuture {
		t.Fatalf("expected Future, got %s", a.Status)
	}
}

func TestApplyUsesNormalizer(t *testing.T) {
	a := sampleAsset()
	err := a.Apply(map[string]any{
		"environmental_score": "#N/A",
		"market_score":        "0",
		"owner":               "  Talen ",
		"thermal_score":       99,
		"id":                  "ignored",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.EnvironmentalScore.IsPresent() || !a.MarketScore.IsZero() || a.Owner != "Talen" {
		t.Fatalf("unexpected values: env=%v market=%v owner=%q", a.EnvironmentalScore, a.MarketScore, a.Owner)
	}
	if a.ID != "asset-1" || a.ThermalScore.IsPresent() {
		t.Fatalf("bookkeeping or derived field was written")
	}

	if err := a.Apply(map[string]any{"bogus": 1}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestApplyClearingRawFieldClearsDerivedScore(t *testing.T) {
	a := &Asset{}
	if err := a.Apply(map[string]any{"iso": "PJM", "fuel": "Gas", "legacy_cod": "1998"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	a.Recompute(testNow)
	if a.MarketScore.Float() != 3 || a.FuelScore.Float() != 1 || a.PlantCODScore.Float() != 3 {
		t.Fatalf("unexpected derived inputs: %v %v %v", a.MarketScore, a.FuelScore, a.PlantCODScore)
	}

	if err := a.Apply(map[string]any{"iso": "", "fuel": "#N/A", "legacy_cod": "", "plant_cod_score": 2}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	a.Recompute(testNow)
	if a.MarketScore.IsPresent() || a.FuelScore.IsPresent() {
		t.Fatalf("expected cleared scores, got market=%v fuel=%v", a.MarketScore, a.FuelScore)
	}
	if a.PlantCODScore.Float() != 2 {
		t.Fatalf("expected manual plant COD score kept, got %v", a.PlantCODScore)
	}
}

func TestApplyPercentCapacityFactor(t *testing.T) {
	a := &Asset{}
	if err := a.Apply(map[string]any{"capacity_factor": "1%"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	a.Recompute(testNow)
	if a.CapacityFactor.Float() != 0.01 || a.CapacityFactorScore.Float() != 3 {
		t.Fatalf("expected 0.01 scoring 3, got %v scoring %v", a.CapacityFactor, a.CapacityFactorScore)
	}
}

func TestFieldTableNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Fields() {
		if seen[f.Name] {
			t.Fatalf("duplicate field %s", f.Name)
		}
		seen[f.Name] = true
		if f.Label == "" {
			t.Fatalf("field %s has no label", f.Name)
		}
	}
	if _, ok := FieldByName("overall_rating"); !ok {
		t.Fatalf("expected overall_rating in table")
	}
}

func TestValidate(t *testing.T) {
	if err := (&Asset{ID: "x"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (&Asset{Name: "x"}).Validate(); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}
