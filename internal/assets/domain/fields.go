package assets

import (
	"fmt"
	"strconv"

	scoring "pipeline-dashboard/internal/scoring/domain"
)

// FieldKind classifies a canonical field.
type FieldKind uint8

const (
	// KindText is free text kept as entered.
	KindText FieldKind = iota
	// KindNumber is a raw numeric measurement.
	KindNumber
	// KindScore is a calculator input.
	KindScore
	// KindDerived is computed by Recompute.
	KindDerived
)

// Field describes one canonical asset field.
type Field struct {
	Name  string
	Label string
	Kind  FieldKind

	text    func(*Asset) *string
	score   func(*Asset) *scoring.Score
	derived func(*Asset) string
	parse   func(any) scoring.Score
}

func textField(name, label string, get func(*Asset) *string) Field {
	return Field{Name: name, Label: label, Kind: KindText, text: get}
}

func numberField(name, label string, get func(*Asset) *scoring.Score) Field {
	return Field{Name: name, Label: label, Kind: KindNumber, score: get}
}

// fractionField stores percent text ("1%") as a fraction.
func fractionField(name, label string, get func(*Asset) *scoring.Score) Field {
	return Field{Name: name, Label: label, Kind: KindNumber, score: get, parse: scoring.FractionOf}
}

func scoreField(name, label string, get func(*Asset) *scoring.Score) Field {
	return Field{Name: name, Label: label, Kind: KindScore, score: get}
}

func derivedScore(name, label string, get func(*Asset) *scoring.Score) Field {
	return Field{Name: name, Label: label, Kind: KindDerived, score: get}
}

func derivedText(name, label string, get func(*Asset) string) Field {
	return Field{Name: name, Label: label, Kind: KindDerived, derived: get}
}

var fieldTable = []Field{
	textField("name", "Project Name", func(a *Asset) *string { return &a.Name }),
	textField("codename", "Project Codename", func(a *Asset) *string { return &a.Codename }),
	textField("owner", "Plant Owner", func(a *Asset) *string { return &a.Owner }),
	textField("contact", "Contact", func(a *Asset) *string { return &a.Contact }),
	textField("project_type", "Project Type", func(a *Asset) *string { return &a.ProjectType }),
	textField("iso", "ISO", func(a *Asset) *string { return &a.ISO }),
	textField("zone", "Zone/Submarket", func(a *Asset) *string { return &a.Zone }),
	textField("location", "Location", func(a *Asset) *string { return &a.Location }),
	numberField("capacity_mw", "Legacy Nameplate Capacity (MW)", func(a *Asset) *scoring.Score { return &a.CapacityMW }),
	textField("tech", "Tech", func(a *Asset) *string { return &a.Tech }),
	textField("fuel", "Fuel", func(a *Asset) *string { return &a.Fuel }),
	numberField("heat_rate_btu_kwh", "Heat Rate (Btu/kWh)", func(a *Asset) *scoring.Score { return &a.HeatRate }),
	textField("legacy_cod", "Legacy COD", func(a *Asset) *string { return &a.LegacyCOD }),
	fractionField("capacity_factor", "2024 Capacity Factor", func(a *Asset) *scoring.Score { return &a.CapacityFactor }),
	textField("site_acreage", "Site Acreage", func(a *Asset) *string { return &a.SiteAcreage }),
	numberField("number_of_sites", "Number of Sites", func(a *Asset) *scoring.Score { return &a.NumberOfSites }),
	textField("process_type", "Process (P) or Bilateral (B)", func(a *Asset) *string { return &a.ProcessType }),
	textField("transactability", "Transactability", func(a *Asset) *string { return &a.Transactability }),
	textField("gas_reference", "Gas Reference", func(a *Asset) *string { return &a.GasReference }),
	textField("redev_base_case", "Redev Base Case", func(a *Asset) *string { return &a.RedevBaseCase }),
	textField("redev_tier", "Redev Tier", func(a *Asset) *string { return &a.RedevTier }),
	numberField("redev_capacity_mw", "Redev Capacity (MW)", func(a *Asset) *scoring.Score { return &a.RedevCapacityMW }),
	textField("redev_tech", "Redev Tech", func(a *Asset) *string { return &a.RedevTech }),
	textField("redev_fuel", "Redev Fuel", func(a *Asset) *string { return &a.RedevFuel }),
	numberField("redev_heat_rate_btu_kwh", "Redev Heatrate (Btu/kWh)", func(a *Asset) *scoring.Score { return &a.RedevHeatRate }),
	textField("redev_cod", "Redev COD", func(a *Asset) *string { return &a.RedevCOD }),
	textField("redev_land_control", "Redev Land Control", func(a *Asset) *string { return &a.RedevLandControl }),
	textField("redev_stage_gate", "Redev Stage Gate", func(a *Asset) *string { return &a.RedevStageGate }),
	textField("redev_lead", "Redev Lead", func(a *Asset) *string { return &a.RedevLead }),
	textField("redev_support", "Redev Support", func(a *Asset) *string { return &a.RedevSupport }),
	textField("co_location_mode", "Co-Locate/Repower", func(a *Asset) *string { return &a.CoLocationMode }),
	textField("ma_tier", "M&A Tier", func(a *Asset) *string { return &a.MATier }),
	numberField("poi_voltage_kv", "POI Voltage (KV)", func(a *Asset) *scoring.Score { return &a.POIVoltageKV }),

	scoreField("plant_cod_score", "Plant COD Score", func(a *Asset) *scoring.Score { return &a.PlantCODScore }),
	scoreField("market_score", "Markets Score", func(a *Asset) *scoring.Score { return &a.MarketScore }),
	scoreField("capacity_factor_score", "Capacity Factor Score", func(a *Asset) *scoring.Score { return &a.CapacityFactorScore }),
	scoreField("transactability_score", "Transactability Score", func(a *Asset) *scoring.Score { return &a.TransactabilityScore }),
	scoreField("thermal_optimization_score", "Thermal Optimization", func(a *Asset) *scoring.Score { return &a.ThermalOptimizationScore }),
	scoreField("environmental_score", "Environmental Score", func(a *Asset) *scoring.Score { return &a.EnvironmentalScore }),
	scoreField("redevelopment_market_score", "Market Score", func(a *Asset) *scoring.Score { return &a.RedevelopmentMarketScore }),
	scoreField("infrastructure_score", "Infra", func(a *Asset) *scoring.Score { return &a.InfrastructureScore }),
	scoreField("interconnection_score", "IX", func(a *Asset) *scoring.Score { return &a.InterconnectionScore }),
	scoreField("capacity_size_score", "Capacity Size Score", func(a *Asset) *scoring.Score { return &a.CapacitySizeScore }),
	scoreField("fuel_score", "Fuel Score", func(a *Asset) *scoring.Score { return &a.FuelScore }),

	derivedScore("thermal_score", "Thermal Operating Score", func(a *Asset) *scoring.Score { return &a.ThermalScore }),
	derivedScore("redevelopment_score", "Redevelopment Score", func(a *Asset) *scoring.Score { return &a.RedevelopmentScore }),
	derivedScore("overall_score", "Overall Project Score", func(a *Asset) *scoring.Score { return &a.OverallScore }),
	derivedText("overall_rating", "Overall Rating", func(a *Asset) string { return string(a.OverallRating) }),
	derivedText("status", "Status", func(a *Asset) string { return string(a.Status) }),
	derivedText("has_na", "Has N/A", func(a *Asset) string { return strconv.FormatBool(a.HasNA) }),
}

var fieldIndex = func() map[string]int {
	index := make(map[string]int, len(fieldTable))
	for i, f := range fieldTable {
		index[f.Name] = i
	}
	return index
}()

// bookkeeping fields are accepted in payloads and ignored.
var bookkeeping = map[string]struct{}{
	"id": {}, "is_active": {}, "created_at": {}, "updated_at": {}, "updated_by": {},
}

// Fields returns the canonical field table in display order.
func Fields() []Field {
	out := make([]Field, len(fieldTable))
	copy(out, fieldTable)
	return out
}

// EditableFields returns every field that is not derived.
func EditableFields() []Field {
	out := make([]Field, 0, len(fieldTable))
	for _, f := range fieldTable {
		if f.Kind != KindDerived {
			out = append(out, f)
		}
	}
	return out
}

// FieldByName looks up a canonical field.
func FieldByName(name string) (Field, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return fieldTable[i], true
}

// Set assigns a raw value through the normalizer.
func (f Field) Set(a *Asset, raw any) error {
	switch f.Kind {
	case KindText:
		text, _ := scoring.Clean(raw).Text()
		*f.text(a) = text
	case KindNumber, KindScore:
		parse := f.parse
		if parse == nil {
			parse = scoring.NumberOf
		}
		*f.score(a) = parse(raw)
	default:
		return fmt.Errorf("%w: %s", ErrReadOnlyField, f.Name)
	}
	return nil
}

// Value returns the stored value: a string for text, a Score for numbers.
func (f Field) Value(a *Asset) any {
	switch {
	case f.text != nil:
		return *f.text(a)
	case f.score != nil:
		return *f.score(a)
	default:
		return f.derived(a)
	}
}

// Score returns the numeric value of a numeric field.
func (f Field) Score(a *Asset) (scoring.Score, bool) {
	if f.score == nil {
		return scoring.Missing(), false
	}
	return *f.score(a), true
}

// Display renders the value for exports. Derived scores render "N/A" when
// missing; raw numbers render empty.
func (f Field) Display(a *Asset) string {
	switch {
	case f.text != nil:
		return *f.text(a)
	case f.score != nil:
		s := *f.score(a)
		if f.Kind == KindDerived {
			return scoring.FormatScore(s)
		}
		return scoring.Clean(s).String()
	default:
		return f.derived(a)
	}
}

// IsNumeric reports whether the field holds a number.
func (f Field) IsNumeric() bool { return f.score != nil }

// Apply sets the named fields from raw values. Bookkeeping and derived
// fields are ignored; unknown names fail.
func (a *Asset) Apply(values map[string]any) error {
	for name, raw := range values {
		if _, ok := bookkeeping[name]; ok {
			continue
		}
		f, ok := FieldByName(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		if f.Kind == KindDerived {
			continue
		}
		if err := f.Set(a, raw); err != nil {
			return err
		}
	}
	for rawName, scoreName := range derivedInputs {
		if _, edited := values[rawName]; !edited {
			continue
		}
		if _, given := values[scoreName]; given {
			continue
		}
		if f, _ := FieldByName(rawName); f.isMissing(a) {
			score, _ := FieldByName(scoreName)
			*score.score(a) = scoring.Missing()
		}
	}
	return nil
}

// derivedInputs maps raw upstream fields to the score Recompute derives
// from them. Clearing the raw field clears the score unless the same edit
// supplies it.
var derivedInputs = map[string]string{
	"iso":             "market_score",
	"legacy_cod":      "plant_cod_score",
	"capacity_factor": "capacity_factor_score",
	"transactability": "transactability_score",
	"capacity_mw":     "capacity_size_score",
	"fuel":            "fuel_score",
}

func (f Field) isMissing(a *Asset) bool {
	switch {
	case f.text != nil:
		return scoring.IsNA(*f.text(a))
	case f.score != nil:
		return f.score(a).IsMissing()
	default:
		return false
	}
}

// ResetEditable clears every editable field.
func (a *Asset) ResetEditable() {
	for _, f := range EditableFields() {
		_ = f.Set(a, nil)
	}
}

// Dest returns a scan destination for the stored value, or nil for
// computed text fields.
func (f Field) Dest(a *Asset) any {
	switch {
	case f.text != nil:
		return f.text(a)
	case f.score != nil:
		return f.score(a)
	default:
		return nil
	}
}
