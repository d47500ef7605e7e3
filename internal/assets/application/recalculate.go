package application

import (
	"context"
	"time"

	assets "pipeline-dashboard/internal/assets/domain"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/observability/metrics"
)

// RecalcFailure names an asset that could not be recalculated.
type RecalcFailure struct {
	AssetID string `json:"asset_id"`
	Name    string `json:"name"`
	Error   string `json:"error"`
}

// RecalcReport summarizes a portfolio recalculation.
type RecalcReport struct {
	Total     int             `json:"total"`
	Updated   int             `json:"updated"`
	Unchanged int             `json:"unchanged"`
	Failed    []RecalcFailure `json:"failed"`
	Duration  time.Duration   `json:"duration_ns"`
}

// RecalculateAll recomputes every active asset and saves those whose derived
// values changed. Per-asset failures are collected.
func (s *Service) RecalculateAll(ctx context.Context, actor string) (RecalcReport, error) {
	start := time.Now()
	report := RecalcReport{Failed: []RecalcFailure{}}
	list, err := s.All(ctx, assets.ListFilter{})
	if err != nil {
		metrics.ObserveRecalculate(metrics.ResultError, time.Since(start))
		return report, err
	}

	now := s.now()
	for i := range list {
		if err := ctx.Err(); err != nil {
			metrics.ObserveRecalculate(metrics.ResultError, time.Since(start))
			return report, err
		}
		asset := &list[i]
		report.Total++
		before := asset.Clone()
		asset.Recompute(now)
		if assets.DerivedEqual(before, asset) && sameInputs(before, asset) {
			report.Unchanged++
			continue
		}
		asset.UpdatedAt = now
		asset.UpdatedBy = actor
		if err := s.repo.Save(ctx, asset); err != nil {
			report.Failed = append(report.Failed, RecalcFailure{AssetID: asset.ID, Name: asset.Name, Error: err.Error()})
			s.logger.Error("recalculate asset failed", "asset_id", asset.ID, "name", asset.Name, "error", err)
			continue
		}
		metrics.IncRating(string(asset.OverallRating))
		report.Updated++
	}
	report.Duration = time.Since(start)

	result := metrics.ResultSuccess
	if len(report.Failed) > 0 {
		result = metrics.ResultError
	}
	metrics.ObserveRecalculate(result, report.Duration)
	s.logger.Info("portfolio recalculated",
		"total", report.Total, "updated", report.Updated, "unchanged", report.Unchanged, "failed", len(report.Failed))
	s.record(ctx, audit.ActionAssetRecalculate, "", actor, map[string]int{
		"total": report.Total, "updated": report.Updated, "failed": len(report.Failed),
	})
	return report, nil
}

func sameInputs(a, b *assets.Asset) bool {
	for _, f := range assets.EditableFields() {
		if !f.IsNumeric() {
			continue
		}
		sa, _ := f.Score(a)
		sb, _ := f.Score(b)
		if !sa.Equal(sb) {
			return false
		}
	}
	return true
}
