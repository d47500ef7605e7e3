package scoring

import (
	"math"
	"strconv"
	"strings"
)

// NotAvailable is the display text for a missing score.
const NotAvailable = "N/A"

// VerifyTolerance is the largest accepted difference against an expected value.
const VerifyTolerance = 0.01

// FormatScore renders a score with two decimals, or "N/A" when missing.
func FormatScore(s Score) string {
	v, ok := s.Get()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

// Expected holds spreadsheet values to check computed scores against.
// Values are raw cells: "N/A", empty or nil expect a missing score.
type Expected struct {
	Thermal       any `json:"thermal" yaml:"thermal"`
	Redevelopment any `json:"redevelopment" yaml:"redevelopment"`
	Overall       any `json:"overall" yaml:"overall"`
	Rating        any `json:"rating" yaml:"rating"`
}

// Verification reports per-score agreement.
type Verification struct {
	Calculated    Result `json:"calculated"`
	Thermal       bool   `json:"thermal_match"`
	Redevelopment bool   `json:"redevelopment_match"`
	Overall       bool   `json:"overall_match"`
	Rating        bool   `json:"rating_match"`
}

// OK reports whether every compared value matched.
func (v Verification) OK() bool {
	return v.Thermal && v.Redevelopment && v.Overall && v.Rating
}

// Verify recomputes the scores and compares them with expected values.
// A nil expected rating is not compared.
func Verify(in Inputs, want Expected) Verification {
	got := Calculate(in)
	return Verification{
		Calculated:    got,
		Thermal:       scoreMatches(got.ThermalScore, want.Thermal),
		Redevelopment: scoreMatches(got.RedevelopmentScore, want.Redevelopment),
		Overall:       scoreMatches(got.OverallScore, want.Overall),
		Rating:        ratingMatches(got.OverallRating, want.Rating),
	}
}

func scoreMatches(got Score, want any) bool {
	expected := Clean(want).Number()
	g, ok := got.Get()
	if !ok {
		return expected.IsMissing()
	}
	e, ok := expected.Get()
	if !ok {
		return false
	}
	return math.Abs(g-e) < VerifyTolerance
}

func ratingMatches(got Rating, want any) bool {
	if want == nil {
		return true
	}
	text, ok := Clean(want).Text()
	if !ok {
		return got == RatingNA
	}
	return strings.EqualFold(text, string(got))
}
