package scoring

import "math"

// Round2 rounds half away from zero at two decimals. The value is first
// snapped to six decimals so 2.0249999... rounds like 2.025.
func Round2(v float64) float64 {
	snapped := math.Round(v*1e6) / 1e4
	return math.Round(snapped) / 100
}

func round2(s Score) Score {
	v, ok := s.Get()
	if !ok {
		return Missing()
	}
	return ScoreOf(Round2(v))
}
