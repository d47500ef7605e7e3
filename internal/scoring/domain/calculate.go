package scoring

import "strings"

// Rating is the ordinal classification of the overall score.
type Rating string

const (
	RatingStrong   Rating = "Strong"
	RatingModerate Rating = "Moderate"
	RatingWeak     Rating = "Weak"
	RatingNA       Rating = "N/A"
)

// Rating thresholds; each band includes its lower edge.
const (
	StrongThreshold   = 4.5
	ModerateThreshold = 3.0
)

// ThermalWeights weigh the five thermal components.
type ThermalWeights struct {
	COD                 float64
	Market              float64
	Transactability     float64
	ThermalOptimization float64
	Environmental       float64
}

// RedevelopmentWeights weigh the three redevelopment components.
type RedevelopmentWeights struct {
	Market          float64
	Infrastructure  float64
	Interconnection float64
}

var (
	Thermal = ThermalWeights{
		COD:                 0.20,
		Market:              0.30,
		Transactability:     0.30,
		ThermalOptimization: 0.05,
		Environmental:       0.15,
	}
	Redevelopment = RedevelopmentWeights{
		Market:          0.40,
		Infrastructure:  0.30,
		Interconnection: 0.30,
	}
)

// Co-location multipliers.
const (
	RepowerMultiplier = 0.75
	DefaultMultiplier = 1.0
	repowerMode       = "repower"
)

// ThermalInputs are the thermal score components.
type ThermalInputs struct {
	PlantCOD            Score `json:"plant_cod_score" yaml:"plant_cod_score"`
	Market              Score `json:"market_score" yaml:"market_score"`
	Transactability     Score `json:"transactability_score" yaml:"transactability_score"`
	ThermalOptimization Score `json:"thermal_optimization_score" yaml:"thermal_optimization_score"`
	Environmental       Score `json:"environmental_score" yaml:"environmental_score"`
}

// RedevelopmentInputs are the redevelopment score components.
type RedevelopmentInputs struct {
	Market          Score  `json:"redevelopment_market_score" yaml:"redevelopment_market_score"`
	Infrastructure  Score  `json:"infrastructure_score" yaml:"infrastructure_score"`
	Interconnection Score  `json:"interconnection_score" yaml:"interconnection_score"`
	CoLocationMode  string `json:"co_location_mode" yaml:"co_location_mode"`
}

// Inputs carries every score input of an asset.
type Inputs struct {
	ThermalInputs
	RedevelopmentInputs
}

// Result holds the derived scores.
type Result struct {
	ThermalScore       Score  `json:"thermal_score"`
	RedevelopmentScore Score  `json:"redevelopment_score"`
	OverallScore       Score  `json:"overall_score"`
	OverallRating      Rating `json:"overall_rating"`
	HasNA              bool   `json:"has_na"`
}

// ThermalScore computes the weighted thermal score. A missing thermal
// optimization score counts as 0; any other missing input yields missing.
func ThermalScore(in ThermalInputs) Score {
	cod, ok1 := in.PlantCOD.Get()
	market, ok2 := in.Market.Get()
	transact, ok3 := in.Transactability.Get()
	env, ok4 := in.Environmental.Get()
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Missing()
	}
	opt := in.ThermalOptimization.Or(0)
	w := Thermal
	sum := cod*w.COD + market*w.Market + transact*w.Transactability +
		opt*w.ThermalOptimization + env*w.Environmental
	return ScoreOf(Round2(sum))
}

// RedevelopmentScore computes the weighted redevelopment score. Any input
// equal to 0 forces a score of 0.
func RedevelopmentScore(in RedevelopmentInputs) Score {
	market, ok1 := in.Market.Get()
	infra, ok2 := in.Infrastructure.Get()
	ix, ok3 := in.Interconnection.Get()
	if !ok1 || !ok2 || !ok3 {
		return Missing()
	}
	if market == 0 || infra == 0 || ix == 0 {
		return ScoreOf(0)
	}
	w := Redevelopment
	base := market*w.Market + infra*w.Infrastructure + ix*w.Interconnection
	return ScoreOf(Round2(base * CoLocationMultiplier(in.CoLocationMode)))
}

// CoLocationMultiplier returns the discount for a co-location mode.
func CoLocationMultiplier(mode string) float64 {
	if strings.EqualFold(strings.TrimSpace(mode), repowerMode) {
		return RepowerMultiplier
	}
	return DefaultMultiplier
}

// OverallScore sums the two category scores.
func OverallScore(thermal, redevelopment Score) Score {
	t, ok1 := round2(thermal).Get()
	r, ok2 := round2(redevelopment).Get()
	if !ok1 || !ok2 {
		return Missing()
	}
	return ScoreOf(Round2(t + r))
}

// Classify maps an overall score to a rating.
func Classify(overall Score) Rating {
	v, ok := overall.Get()
	switch {
	case !ok:
		return RatingNA
	case v >= StrongThreshold:
		return RatingStrong
	case v >= ModerateThreshold:
		return RatingModerate
	default:
		return RatingWeak
	}
}

// Calculate runs every calculator over the inputs.
func Calculate(in Inputs) Result {
	thermal := ThermalScore(in.ThermalInputs)
	redev := RedevelopmentScore(in.RedevelopmentInputs)
	overall := OverallScore(thermal, redev)
	return Result{
		ThermalScore:       thermal,
		RedevelopmentScore: redev,
		OverallScore:       overall,
		OverallRating:      Classify(overall),
		HasNA:              thermal.IsMissing() || redev.IsMissing() || overall.IsMissing(),
	}
}

// InputsFromFields reads score inputs from raw values keyed by field name.
func InputsFromFields(fields map[string]any) Inputs {
	mode, _ := Clean(fields["co_location_mode"]).Text()
	return Inputs{
		ThermalInputs: ThermalInputs{
			PlantCOD:            NumberOf(fields["plant_cod_score"]),
			Market:              NumberOf(fields["market_score"]),
			Transactability:     NumberOf(fields["transactability_score"]),
			ThermalOptimization: NumberOf(fields["thermal_optimization_score"]),
			Environmental:       NumberOf(fields["environmental_score"]),
		},
		RedevelopmentInputs: RedevelopmentInputs{
			Market:          NumberOf(fields["redevelopment_market_score"]),
			Infrastructure:  NumberOf(fields["infrastructure_score"]),
			Interconnection: NumberOf(fields["interconnection_score"]),
			CoLocationMode:  mode,
		},
	}
}
