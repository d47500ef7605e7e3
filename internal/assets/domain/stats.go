package assets

import scoring "pipeline-dashboard/internal/scoring/domain"

// Stats summarizes a portfolio.
type Stats struct {
	Total          int            `json:"total"`
	ByRating       map[string]int `json:"by_rating"`
	ByStatus       map[string]int `json:"by_status"`
	ByISO          map[string]int `json:"by_iso"`
	WithNA         int            `json:"with_na"`
	AverageOverall scoring.Score  `json:"average_overall_score"`
	AverageThermal scoring.Score  `json:"average_thermal_score"`
	AverageRedev   scoring.Score  `json:"average_redevelopment_score"`
}

// Summarize computes dashboard statistics. Averages skip missing scores.
func Summarize(list []Asset) Stats {
	stats := Stats{
		ByRating: make(map[string]int),
		ByStatus: make(map[string]int),
		ByISO:    make(map[string]int),
	}
	var overall, thermal, redev average
	for i := range list {
		a := &list[i]
		stats.Total++
		stats.ByRating[string(ratingOrNA(a.OverallRating))]++
		status := a.Status
		if status == "" {
			status = scoring.StatusUnknown
		}
		stats.ByStatus[string(status)]++
		iso := a.ISO
		if iso == "" {
			iso = scoring.NotAvailable
		}
		stats.ByISO[iso]++
		if a.HasNA {
			stats.WithNA++
		}
		overall.add(a.OverallScore)
		thermal.add(a.ThermalScore)
		redev.add(a.RedevelopmentScore)
	}
	stats.AverageOverall = overall.value()
	stats.AverageThermal = thermal.value()
	stats.AverageRedev = redev.value()
	return stats
}

func ratingOrNA(r scoring.Rating) scoring.Rating {
	if r == "" {
		return scoring.RatingNA
	}
	return r
}

type average struct {
	sum   float64
	count int
}

func (a *average) add(s scoring.Score) {
	if v, ok := s.Get(); ok {
		a.sum += v
		a.count++
	}
}

func (a *average) value() scoring.Score {
	if a.count == 0 {
		return scoring.Missing()
	}
	return scoring.ScoreOf(scoring.Round2(a.sum / float64(a.count)))
}
