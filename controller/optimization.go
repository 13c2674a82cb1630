package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/cache"
	"github.com/shadower-ai/shadow-analytics/common/config"
	"github.com/shadower-ai/shadow-analytics/common/utils"
	"github.com/shadower-ai/shadow-analytics/engine"
	"github.com/shadower-ai/shadow-analytics/model"
	"github.com/shadower-ai/shadow-analytics/monitor"
)

// Defaults for the optimization policy knobs a caller leaves unset.
const (
	defaultDuplicateCallRatio     = 0.3
	defaultCachingCallThreshold   = 1000
	defaultBatchCallsPerMinute    = 30
	defaultBatchOverheadReduction = 0.15
	optimizationWindowDays        = 30
)

type optimizationResponse struct {
	Breakdown       []engine.ModelConsumption           `json:"breakdown"`
	Recommendations []engine.OptimizationRecommendation `json:"recommendations"`
}

// GetOptimizations analyzes a workspace's trailing 30 days of per-model
// consumption and returns the breakdown plus cost-saving recommendations.
// Callers can tune the heuristics by sending an optimization policy as the
// request body; omitted knobs fall back to built-in defaults.
func GetOptimizations(c *gin.Context) {
	workspaceID := c.Param("workspace_id")

	policy := engine.OptimizationPolicy{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&policy); err != nil {
			respondBadRequest(c, errors.Wrap(err, "invalid optimization policy"))
			return
		}
	}
	applyPolicyDefaults(&policy)

	breakdown, err := buildBreakdown(c.Request.Context(), workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	defer monitor.ObserveComputation("optimize", time.Now())
	recommendations, err := engine.Recommend(breakdown, policy)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, rec := range recommendations {
		monitor.RecommendationsEmitted.WithLabelValues(rec.Type).Inc()
	}

	respondOK(c, optimizationResponse{
		Breakdown:       breakdown,
		Recommendations: recommendations,
	})
}

func applyPolicyDefaults(policy *engine.OptimizationPolicy) {
	if policy.DuplicateCallRatio == 0 {
		policy.DuplicateCallRatio = defaultDuplicateCallRatio
	}
	if policy.CachingCallThreshold == 0 {
		policy.CachingCallThreshold = defaultCachingCallThreshold
	}
	if policy.BatchCallsPerMinute == 0 {
		policy.BatchCallsPerMinute = defaultBatchCallsPerMinute
	}
	if policy.BatchOverheadReduction == 0 {
		policy.BatchOverheadReduction = defaultBatchOverheadReduction
	}
	if policy.PeriodMinutes == 0 {
		policy.PeriodMinutes = optimizationWindowDays * 24 * 60
	}
}

// buildBreakdown rolls up per-model consumption over the trailing 30 days and
// labels each model's trend against the 30 days before that.
func buildBreakdown(ctx context.Context, workspaceID string) ([]engine.ModelConsumption, error) {
	now := time.Now().UTC()
	start, end := utils.TrailingDayRange(now, optimizationWindowDays)
	prevStart := start - int64(optimizationWindowDays*24*3600)

	key := fmt.Sprintf("breakdown:%s:%s", workspaceID, now.Format("2006-01-02"))
	return cache.GetOrCompute(ctx, resultCache, key, config.BucketCacheTTL,
		func(ctx context.Context) ([]engine.ModelConsumption, error) {
			current, err := model.GetModelTotals(ctx, workspaceID, start, end)
			if err != nil {
				return nil, err
			}
			previous, err := model.GetModelTotals(ctx, workspaceID, prevStart, start)
			if err != nil {
				return nil, err
			}

			previousCredits := make(map[string]float64, len(previous))
			for _, row := range previous {
				previousCredits[row.ModelName] = row.Credits
			}

			breakdown := make([]engine.ModelConsumption, 0, len(current))
			for _, row := range current {
				breakdown = append(breakdown, engine.ModelConsumption{
					Model:    row.ModelName,
					Provider: row.ProviderName,
					Credits:  row.Credits,
					Calls:    row.Calls,
					Trend:    engine.ClassifyTrend(previousCredits[row.ModelName], row.Credits),
				})
			}
			return engine.FinalizeBreakdown(breakdown), nil
		})
}
