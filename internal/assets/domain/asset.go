package assets

import (
	"strings"
	"time"

	scoring "pipeline-dashboard/internal/scoring/domain"
)

// Asset is a scored power-generation asset.
type Asset struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Codename string `json:"codename"`
	Owner    string `json:"owner"`
	Contact  string `json:"contact"`

	ProjectType    string        `json:"project_type"`
	ISO            string        `json:"iso"`
	Zone           string        `json:"zone"`
	Location       string        `json:"location"`
	CapacityMW     scoring.Score `json:"capacity_mw"`
	Tech           string        `json:"tech"`
	Fuel           string        `json:"fuel"`
	HeatRate       scoring.Score `json:"heat_rate_btu_kwh"`
	LegacyCOD      string        `json:"legacy_cod"`
	CapacityFactor scoring.Score `json:"capacity_factor"`
	SiteAcreage    string        `json:"site_acreage"`
	NumberOfSites  scoring.Score `json:"number_of_sites"`
	ProcessType    string        `json:"process_type"`
	// Transactability is the raw deal-stage code or description.
	Transactability string `json:"transactability"`
	GasReference    string `json:"gas_reference"`

	RedevBaseCase    string        `json:"redev_base_case"`
	RedevTier        string        `json:"redev_tier"`
	RedevCapacityMW  scoring.Score `json:"redev_capacity_mw"`
	RedevTech        string        `json:"redev_tech"`
	RedevFuel        string        `json:"redev_fuel"`
	RedevHeatRate    scoring.Score `json:"redev_heat_rate_btu_kwh"`
	RedevCOD         string        `json:"redev_cod"`
	RedevLandControl string        `json:"redev_land_control"`
	RedevStageGate   string        `json:"redev_stage_gate"`
	RedevLead        string        `json:"redev_lead"`
	RedevSupport     string        `json:"redev_support"`
	CoLocationMode   string        `json:"co_location_mode"`
	MATier           string        `json:"ma_tier"`
	POIVoltageKV     scoring.Score `json:"poi_voltage_kv"`

	PlantCODScore            scoring.Score `json:"plant_cod_score"`
	MarketScore              scoring.Score `json:"market_score"`
	CapacityFactorScore      scoring.Score `json:"capacity_factor_score"`
	TransactabilityScore     scoring.Score `json:"transactability_score"`
	ThermalOptimizationScore scoring.Score `json:"thermal_optimization_score"`
	EnvironmentalScore       scoring.Score `json:"environmental_score"`
	RedevelopmentMarketScore scoring.Score `json:"redevelopment_market_score"`
	InfrastructureScore      scoring.Score `json:"infrastructure_score"`
	InterconnectionScore     scoring.Score `json:"interconnection_score"`
	CapacitySizeScore        scoring.Score `json:"capacity_size_score"`
	FuelScore                scoring.Score `json:"fuel_score"`

	ThermalScore       scoring.Score  `json:"thermal_score"`
	RedevelopmentScore scoring.Score  `json:"redevelopment_score"`
	OverallScore       scoring.Score  `json:"overall_score"`
	OverallRating      scoring.Rating `json:"overall_rating"`
	Status             scoring.Status `json:"status"`
	HasNA              bool           `json:"has_na"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Validate checks asset invariants.
func (a *Asset) Validate() error {
	if a == nil {
		return ErrNilAsset
	}
	if a.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Clone returns a copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	copy := *a
	return &copy
}

// IsPortfolio reports whether the asset spans more than one site.
func (a *Asset) IsPortfolio() bool {
	sites, ok := a.NumberOfSites.Get()
	return ok && sites > 1
}

// ScoreInputs returns the calculator inputs held by the asset.
func (a *Asset) ScoreInputs() scoring.Inputs {
	return scoring.Inputs{
		ThermalInputs: scoring.ThermalInputs{
			PlantCOD:            a.PlantCODScore,
			Market:              a.MarketScore,
			Transactability:     a.TransactabilityScore,
			ThermalOptimization: a.ThermalOptimizationScore,
			Environmental:       a.EnvironmentalScore,
		},
		RedevelopmentInputs: scoring.RedevelopmentInputs{
			Market:          a.RedevelopmentMarketScore,
			Infrastructure:  a.InfrastructureScore,
			Interconnection: a.InterconnectionScore,
			CoLocationMode:  a.CoLocationMode,
		},
	}
}

// Recompute re-derives every derived field. Categorical scores are taken
// from their raw field when it is present; otherwise the stored input is kept.
func (a *Asset) Recompute(now time.Time) {
	if present(a.ISO) {
		a.MarketScore = scoring.MarketScore(a.ISO)
	}
	if present(a.LegacyCOD) {
		a.PlantCODScore = scoring.CODScore(a.LegacyCOD)
	}
	if a.CapacityFactor.IsPresent() {
		a.CapacityFactorScore = scoring.CapacityFactorScore(a.CapacityFactor)
	}
	if present(a.Transactability) {
		a.TransactabilityScore = scoring.TransactabilityScore(a.Transactability)
	}
	if a.CapacityMW.IsPresent() {
		a.CapacitySizeScore = scoring.CapacitySizeScore(a.CapacityMW, a.IsPortfolio())
	}
	if present(a.Fuel) {
		a.FuelScore = scoring.FuelScore(a.Fuel)
	}
	a.Status = scoring.InferStatus(a.LegacyCOD, a.RedevCOD, now)

	result := scoring.Calculate(a.ScoreInputs())
	a.ThermalScore = result.ThermalScore
	a.RedevelopmentScore = result.RedevelopmentScore
	a.OverallScore = result.OverallScore
	a.OverallRating = result.OverallRating
	a.HasNA = result.HasNA
}

// DerivedEqual reports whether two assets carry the same derived values.
func DerivedEqual(a, b *Asset) bool {
	return a.ThermalScore.Equal(b.ThermalScore) &&
		a.RedevelopmentScore.Equal(b.RedevelopmentScore) &&
		a.OverallScore.Equal(b.OverallScore) &&
		a.OverallRating == b.OverallRating &&
		a.Status == b.Status &&
		a.HasNA == b.HasNA
}

func present(raw string) bool { return !scoring.IsNA(raw) }
