package scoring

import "strings"

// Capacity thresholds in MW above which an asset earns the size point.
const (
	SingleSiteCapacityThreshold = 50.0
	PortfolioCapacityThreshold  = 150.0
)

// FuelKeywords maps fuel substrings to points; unknown fuels score 0.
var FuelKeywords = []tokenRule{
	{Tokens: []string{"gas", "oil"}, Score: 1},
	{Tokens: []string{"solar", "wind", "coal", "bess"}, Score: 0},
}

// CapacitySizeScore awards 1 point to assets above the capacity threshold.
func CapacitySizeScore(raw any, portfolio bool) Score {
	mw, ok := Clean(raw).Number().Get()
	if !ok {
		return Missing()
	}
	threshold := SingleSiteCapacityThreshold
	if portfolio {
		threshold = PortfolioCapacityThreshold
	}
	if mw > threshold {
		return Int(1)
	}
	return Int(0)
}

// FuelScore awards 1 point to gas and oil fired assets.
func FuelScore(raw any) Score {
	text, ok := Clean(raw).Text()
	if !ok {
		return Missing()
	}
	lower := strings.ToLower(text)
	for _, rule := range FuelKeywords {
		for _, token := range rule.Tokens {
			if strings.Contains(lower, token) {
				return Int(rule.Score)
			}
		}
	}
	return Int(0)
}
