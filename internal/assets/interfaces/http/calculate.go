package http

import (
	"encoding/json"
	"io"
	"net/http"

	scoring "pipeline-dashboard/internal/scoring/domain"
)

// CalculateHandler serves POST /api/v1/scoring/calculate. The body holds
// raw score-input fields keyed by canonical name; an optional "expected"
// object is checked against the computed scores.
type CalculateHandler struct{}

// NewCalculateHandler constructs a CalculateHandler.
func NewCalculateHandler() *CalculateHandler { return &CalculateHandler{} }

type calculateResponse struct {
	scoring.Result
	Display      map[string]string     `json:"display"`
	Verification *scoring.Verification `json:"verification,omitempty"`
}

// ServeHTTP computes derived scores without touching storage.
func (h *CalculateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var expected *scoring.Expected
	if raw, ok := fields["expected"]; ok {
		delete(fields, "expected")
		obj, ok := raw.(map[string]any)
		if !ok {
			http.Error(w, "expected must be an object", http.StatusBadRequest)
			return
		}
		expected = &scoring.Expected{
			Thermal:       obj["thermal"],
			Redevelopment: obj["redevelopment"],
			Overall:       obj["overall"],
			Rating:        obj["rating"],
		}
	}

	inputs := scoring.InputsFromFields(fields)
	resp := calculateResponse{Result: scoring.Calculate(inputs)}
	resp.Display = map[string]string{
		"thermal_score":       scoring.FormatScore(resp.ThermalScore),
		"redevelopment_score": scoring.FormatScore(resp.RedevelopmentScore),
		"overall_score":       scoring.FormatScore(resp.OverallScore),
		"overall_rating":      string(resp.OverallRating),
	}
	if expected != nil {
		v := scoring.Verify(inputs, *expected)
		resp.Verification = &v
	}
	writeJSON(w, http.StatusOK, resp)
}
