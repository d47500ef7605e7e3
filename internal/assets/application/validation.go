package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	assets "pipeline-dashboard/internal/assets/domain"
	scoring "pipeline-dashboard/internal/scoring/domain"
)

// Range rules for manually edited numeric fields, in validator tag syntax.
var FieldRules = map[string]string{
	"capacity_mw":                "gte=0,lte=50000",
	"redev_capacity_mw":          "gte=0,lte=50000",
	"heat_rate_btu_kwh":          "gte=0,lte=50000",
	"redev_heat_rate_btu_kwh":    "gte=0,lte=50000",
	"poi_voltage_kv":             "gte=0,lte=1500",
	"capacity_factor":            "gte=0,lte=100",
	"number_of_sites":            "gte=0",
	"transactability_score":      "gte=1,lte=3",
	"environmental_score":        "gte=0,lte=3",
	"market_score":               "gte=0,lte=3",
	"plant_cod_score":            "gte=0,lte=3",
	"capacity_factor_score":      "gte=0,lte=3",
	"redevelopment_market_score": "gte=0,lte=3",
	"infrastructure_score":       "gte=0,lte=3",
	"interconnection_score":      "gte=0,lte=3",
	"thermal_optimization_score": "gte=0,lte=2",
	"capacity_size_score":        "gte=0,lte=1",
	"fuel_score":                 "gte=0,lte=1",
}

// yearRule bounds the year token of a commissioning date.
const yearRule = "gte=1850,lte=2200"

var validate = validator.New()

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of an edit.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "assets: validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err carries field errors.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// ValidateAsset checks a manually edited asset. Missing values are allowed
// everywhere except the name.
func ValidateAsset(a *assets.Asset) error {
	var fields []FieldError
	if err := validate.Var(strings.TrimSpace(a.Name), "required"); err != nil {
		fields = append(fields, FieldError{Field: "name", Message: "name is required"})
	}
	for name, rule := range FieldRules {
		f, ok := assets.FieldByName(name)
		if !ok {
			continue
		}
		score, _ := f.Score(a)
		v, present := score.Get()
		if !present {
			continue
		}
		if err := validate.Var(v, rule); err != nil {
			fields = append(fields, FieldError{Field: name, Message: describeRule(rule)})
		}
	}
	for _, name := range []string{"legacy_cod", "redev_cod"} {
		f, _ := assets.FieldByName(name)
		raw, _ := f.Value(a).(string)
		year, ok := scoring.YearToken(raw)
		if !ok {
			continue
		}
		if err := validate.Var(year, yearRule); err != nil {
			fields = append(fields, FieldError{Field: name, Message: describeRule(yearRule)})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &ValidationError{Fields: fields}
}

func describeRule(rule string) string {
	var min, max string
	for _, part := range strings.Split(rule, ",") {
		switch {
		case strings.HasPrefix(part, "gte="):
			min = strings.TrimPrefix(part, "gte=")
		case strings.HasPrefix(part, "lte="):
			max = strings.TrimPrefix(part, "lte=")
		}
	}
	switch {
	case min != "" && max != "":
		return fmt.Sprintf("must be between %s and %s", min, max)
	case min != "":
		return "must be at least " + min
	default:
		return "must be at most " + max
	}
}
