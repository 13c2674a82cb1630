package engine

import (
	"fmt"
	"sort"

	"github.com/Laisky/errors/v2"
)

// switchRatio is how far above the workspace median a model's per-call cost
// must sit before a switch to a configured equivalent is suggested.
const switchRatio = 1.5

var recommendationEffort = map[string]string{
	RecommendModelSwitch:  EffortMedium,
	RecommendCaching:      EffortLow,
	RecommendBatching:     EffortHigh,
	RecommendPromptTuning: EffortLow,
}

// Recommend evaluates each optimization heuristic independently against the
// per-model breakdown and returns at most one recommendation per type, sorted
// descending by potential savings. Every emitted recommendation satisfies
// potentialSavings == currentCost - projectedCost > 0.
func Recommend(breakdown []ModelConsumption, policy OptimizationPolicy) ([]OptimizationRecommendation, error) {
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	recommendations := []OptimizationRecommendation{}
	for _, candidate := range []*OptimizationRecommendation{
		recommendModelSwitch(breakdown, policy),
		recommendCaching(breakdown, policy),
		recommendBatching(breakdown, policy),
		recommendPromptTuning(breakdown, policy),
	} {
		if candidate != nil {
			recommendations = append(recommendations, *candidate)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].PotentialSavings > recommendations[j].PotentialSavings
	})
	return recommendations, nil
}

func validatePolicy(policy OptimizationPolicy) error {
	if policy.DuplicateCallRatio < 0 || policy.DuplicateCallRatio > 1 {
		return errors.Wrapf(ErrInvalidConfiguration, "duplicate call ratio must be in [0, 1]: %f", policy.DuplicateCallRatio)
	}
	if policy.BatchOverheadReduction < 0 || policy.BatchOverheadReduction > 1 {
		return errors.Wrapf(ErrInvalidConfiguration, "batch overhead reduction must be in [0, 1]: %f", policy.BatchOverheadReduction)
	}
	if policy.CachingCallThreshold < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "caching call threshold must not be negative: %d", policy.CachingCallThreshold)
	}
	if policy.BatchCallsPerMinute < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "batch calls-per-minute threshold must not be negative: %f", policy.BatchCallsPerMinute)
	}
	if policy.PeriodMinutes < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "period minutes must not be negative: %f", policy.PeriodMinutes)
	}
	for model, equivalent := range policy.ModelEquivalents {
		if equivalent.Model == "" || equivalent.CreditsPerCall <= 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "malformed equivalent for model %q", model)
		}
	}
	for model, rate := range policy.BaselineRates {
		if rate < 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "negative baseline rate for model %q: %f", model, rate)
		}
	}
	return nil
}

// recommendModelSwitch suggests replacing the costliest outlier model with its
// configured cheaper equivalent. A model qualifies when its per-call cost
// exceeds 1.5x the workspace median and an equivalent exists.
func recommendModelSwitch(breakdown []ModelConsumption, policy OptimizationPolicy) *OptimizationRecommendation {
	if len(policy.ModelEquivalents) == 0 {
		return nil
	}
	median := medianPerCallCost(breakdown)
	if median == 0 {
		return nil
	}

	var best *OptimizationRecommendation
	for i := range breakdown {
		m := breakdown[i]
		if m.AvgCreditsPerCall <= switchRatio*median {
			continue
		}
		equivalent, ok := policy.ModelEquivalents[m.Model]
		if !ok {
			continue
		}
		projected := equivalent.CreditsPerCall * float64(m.Calls)
		rec := buildRecommendation(RecommendModelSwitch,
			fmt.Sprintf("Switch %s to %s", m.Model, equivalent.Model),
			fmt.Sprintf("%s costs %.4f credits per call, more than 1.5x the workspace median of %.4f; %s handles equivalent workloads for %.4f per call",
				m.Model, m.AvgCreditsPerCall, median, equivalent.Model, equivalent.CreditsPerCall),
			fmt.Sprintf("Route %s traffic to %s and compare output quality on a sampled subset before full cutover", m.Model, equivalent.Model),
			m.Credits, projected)
		if rec != nil && (best == nil || rec.PotentialSavings > best.PotentialSavings) {
			best = rec
		}
	}
	return best
}

// recommendCaching targets the high-volume model where the caller-estimated
// duplicate-call fraction would be recovered by a response cache.
func recommendCaching(breakdown []ModelConsumption, policy OptimizationPolicy) *OptimizationRecommendation {
	if policy.DuplicateCallRatio == 0 {
		return nil
	}
	var best *OptimizationRecommendation
	for i := range breakdown {
		m := breakdown[i]
		if m.Calls <= policy.CachingCallThreshold {
			continue
		}
		projected := m.Credits * (1 - policy.DuplicateCallRatio)
		rec := buildRecommendation(RecommendCaching,
			fmt.Sprintf("Cache repeated %s calls", m.Model),
			fmt.Sprintf("%s served %d calls this period with an estimated %.0f%% duplicate rate; caching repeat responses avoids re-billing them",
				m.Model, m.Calls, policy.DuplicateCallRatio*100),
			"Key a response cache on normalized request payloads with a short TTL and serve repeats from it",
			m.Credits, projected)
		if rec != nil && (best == nil || rec.PotentialSavings > best.PotentialSavings) {
			best = rec
		}
	}
	return best
}

// recommendBatching fires when a model's sustained call rate clears the
// batchability threshold; batched requests shed a fixed per-call overhead.
func recommendBatching(breakdown []ModelConsumption, policy OptimizationPolicy) *OptimizationRecommendation {
	if policy.BatchCallsPerMinute == 0 || policy.PeriodMinutes == 0 || policy.BatchOverheadReduction == 0 {
		return nil
	}
	var best *OptimizationRecommendation
	for i := range breakdown {
		m := breakdown[i]
		callsPerMinute := float64(m.Calls) / policy.PeriodMinutes
		if callsPerMinute <= policy.BatchCallsPerMinute {
			continue
		}
		projected := m.Credits * (1 - policy.BatchOverheadReduction)
		rec := buildRecommendation(RecommendBatching,
			fmt.Sprintf("Batch %s requests", m.Model),
			fmt.Sprintf("%s averages %.1f calls per minute, enough sustained volume to amortize per-call overhead through batching",
				m.Model, callsPerMinute),
			"Buffer requests for a short window and submit them through the provider's batch endpoint",
			m.Credits, projected)
		if rec != nil && (best == nil || rec.PotentialSavings > best.PotentialSavings) {
			best = rec
		}
	}
	return best
}

// recommendPromptTuning compares each model's realized per-call cost against
// its provider-published baseline rate; a gap means prompts are longer than
// the workload needs.
func recommendPromptTuning(breakdown []ModelConsumption, policy OptimizationPolicy) *OptimizationRecommendation {
	if len(policy.BaselineRates) == 0 {
		return nil
	}
	var best *OptimizationRecommendation
	for i := range breakdown {
		m := breakdown[i]
		baseline, ok := policy.BaselineRates[m.Model]
		if !ok || m.AvgCreditsPerCall <= baseline {
			continue
		}
		projected := baseline * float64(m.Calls)
		rec := buildRecommendation(RecommendPromptTuning,
			fmt.Sprintf("Shorten %s prompts", m.Model),
			fmt.Sprintf("%s averages %.4f credits per call against a published baseline of %.4f, suggesting avoidable prompt overhead",
				m.Model, m.AvgCreditsPerCall, baseline),
			"Trim static boilerplate from system prompts and move reusable context into cached prefixes",
			m.Credits, projected)
		if rec != nil && (best == nil || rec.PotentialSavings > best.PotentialSavings) {
			best = rec
		}
	}
	return best
}

// buildRecommendation enforces the savings invariant: savings is exactly
// current minus projected, and nothing with zero or negative savings is
// emitted.
func buildRecommendation(recType, title, description, implementation string, currentCost, projectedCost float64) *OptimizationRecommendation {
	savings := currentCost - projectedCost
	if savings <= 0 {
		return nil
	}
	savingsPct := 0.0
	if currentCost > 0 {
		savingsPct = savings / currentCost * 100
	}
	return &OptimizationRecommendation{
		Type:              recType,
		Title:             title,
		Description:       description,
		CurrentCost:       currentCost,
		ProjectedCost:     projectedCost,
		PotentialSavings:  savings,
		SavingsPercentage: savingsPct,
		Effort:            recommendationEffort[recType],
		Implementation:    implementation,
	}
}

func medianPerCallCost(breakdown []ModelConsumption) float64 {
	if len(breakdown) == 0 {
		return 0
	}
	costs := make([]float64, 0, len(breakdown))
	for i := range breakdown {
		costs = append(costs, breakdown[i].AvgCreditsPerCall)
	}
	sort.Float64s(costs)
	mid := len(costs) / 2
	if len(costs)%2 == 1 {
		return costs[mid]
	}
	return (costs[mid-1] + costs[mid]) / 2
}
