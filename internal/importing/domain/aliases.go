package importing

import (
	"fmt"
	"sort"
	"strings"

	assets "pipeline-dashboard/internal/assets/domain"
)

// DefaultAliases maps spreadsheet headers, current and legacy, to canonical
// asset fields.
var DefaultAliases = map[string]string{
	"Project Name":                   "name",
	"Asset Name":                     "name",
	"Project Codename":               "codename",
	"Plant Owner":                    "owner",
	"Contact":                        "contact",
	"Project Type":                   "project_type",
	"ISO":                            "iso",
	"Zone/Submarket":                 "zone",
	"Location":                       "location",
	"Legacy Capacity (MW)":           "capacity_mw",
	"Legacy Nameplate Capacity (MW)": "capacity_mw",
	"Tech":                           "tech",
	"Fuel":                           "fuel",
	"Heat Rate (Btu/kWh)":            "heat_rate_btu_kwh",
	"Legacy COD (Year)":              "legacy_cod",
	"Legacy COD":                     "legacy_cod",
	"Capacity Factor (%)":            "capacity_factor",
	"2024 Capacity Factor":           "capacity_factor",
	"Site Acreage":                   "site_acreage",
	"Number of Sites":                "number_of_sites",
	"Process Type":                   "process_type",
	"Process (P) or Bilateral (B)":   "process_type",
	"Transactability":                "transactability",
	"Transactability Scores":         "transactability",
	"Gas Reference":                  "gas_reference",
	"Redev Base Case":                "redev_base_case",
	"Redevelopment Base Case":        "redev_base_case",
	"Redev Tier":                     "redev_tier",
	"Redev Capacity (MW)":            "redev_capacity_mw",
	"Redev Tech":                     "redev_tech",
	"Redev Fuel":                     "redev_fuel",
	"Redev Heat Rate":                "redev_heat_rate_btu_kwh",
	"Redev Heatrate (Btu/kWh)":       "redev_heat_rate_btu_kwh",
	"Redev COD":                      "redev_cod",
	"Redev Land Control":             "redev_land_control",
	"Redev Stage Gate":               "redev_stage_gate",
	"Redev Lead":                     "redev_lead",
	"Redev Support":                  "redev_support",
	"Co-Locate/Repower":              "co_location_mode",
	"Thermal Optimization":           "thermal_optimization_score",
	"Environmental Score":            "environmental_score",
	"Envionmental Score":             "environmental_score",
	"Market Score":                   "redevelopment_market_score",
	"Infra":                          "infrastructure_score",
	"IX":                             "interconnection_score",
	"M&A Tier":                       "ma_tier",
	"POI Voltage (kV)":               "poi_voltage_kv",
	"POI Voltage (KV)":               "poi_voltage_kv",
}

// Aliases resolves column headers to canonical field names. Lookup tries the
// trimmed header exactly, then case-insensitively.
type Aliases struct {
	exact map[string]string
	fold  map[string]string
}

// NewAliases builds the alias table from the defaults, the editable field
// labels and the given extras. Extras win over defaults; every target must
// be an editable field.
func NewAliases(extra map[string]string) (*Aliases, error) {
	a := &Aliases{exact: make(map[string]string), fold: make(map[string]string)}
	for _, f := range assets.EditableFields() {
		a.add(f.Label, f.Name)
		a.add(f.Name, f.Name)
	}
	for header, field := range DefaultAliases {
		a.add(header, field)
	}
	headers := make([]string, 0, len(extra))
	for header := range extra {
		headers = append(headers, header)
	}
	sort.Strings(headers)
	for _, header := range headers {
		field := strings.TrimSpace(extra[header])
		f, ok := assets.FieldByName(field)
		if !ok || f.Kind == assets.KindDerived {
			return nil, fmt.Errorf("importing: alias %q targets unknown field %q", header, field)
		}
		a.add(header, field)
	}
	return a, nil
}

func (a *Aliases) add(header, field string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return
	}
	a.exact[header] = field
	a.fold[strings.ToLower(header)] = field
}

// Resolve returns the canonical field for a header.
func (a *Aliases) Resolve(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if field, ok := a.exact[header]; ok {
		return field, true
	}
	field, ok := a.fold[strings.ToLower(header)]
	return field, ok
}

// Headers returns the template header row: one label per editable field.
func Headers() []string {
	fields := assets.EditableFields()
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Label)
	}
	return out
}
