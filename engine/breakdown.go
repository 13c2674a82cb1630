package engine

import (
	"sort"
)

// trendBand is the relative change below which consumption counts as stable.
const trendBand = 0.10

// ClassifyTrend labels the movement from a previous period's credits to the
// current period's. Changes within +-10% are stable; a zero previous period is
// stable unless consumption appeared from nothing.
func ClassifyTrend(previous, current float64) string {
	if previous == 0 {
		if current > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (current - previous) / previous
	switch {
	case change > trendBand:
		return TrendIncreasing
	case change < -trendBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// FinalizeBreakdown fills the derived fields of a per-model rollup: per-call
// averages and each model's percentage share of the workspace total (summing
// to ~100 across models, modulo rounding). Models come back sorted by credits
// descending.
func FinalizeBreakdown(models []ModelConsumption) []ModelConsumption {
	total := 0.0
	for i := range models {
		total += models[i].Credits
	}
	for i := range models {
		if models[i].Calls > 0 {
			models[i].AvgCreditsPerCall = models[i].Credits / float64(models[i].Calls)
		}
		if total > 0 {
			models[i].Percentage = models[i].Credits / total * 100
		}
	}
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].Credits > models[j].Credits
	})
	return models
}
