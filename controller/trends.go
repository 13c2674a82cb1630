package controller

import (
	"math"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/common/config"
	"github.com/shadower-ai/shadow-analytics/common/utils"
	"github.com/shadower-ai/shadow-analytics/engine"
	"github.com/shadower-ai/shadow-analytics/model"
)

// burnRateSummary is the dashboard's burn-rate panel: how fast credits are
// going and how long the monthly budget lasts at that pace.
type burnRateSummary struct {
	DailyBurnRate    float64 `json:"dailyBurnRate"`
	ProjectedMonthly float64 `json:"projectedMonthly"`
	CurrentSpend     float64 `json:"currentSpend"`
	DaysRemaining    *int    `json:"daysRemaining"`
}

type trendsResponse struct {
	Daily           []engine.DailyBucket   `json:"daily"`
	GrowthRates     engine.GrowthRates     `json:"growthRates"`
	SeasonalProfile engine.SeasonalProfile `json:"seasonalProfile"`
	BurnRate        burnRateSummary        `json:"burnRate"`
}

// GetConsumptionTrends returns daily buckets, trailing growth rates and the
// seasonal profile for a workspace over a caller-supplied date range
// (defaulting to the trailing 30 days).
func GetConsumptionTrends(c *gin.Context) {
	workspaceID := c.Param("workspace_id")
	ctx := c.Request.Context()

	var start, end int64
	fromStr := c.Query("from_date")
	toStr := c.Query("to_date")
	if fromStr == "" && toStr == "" {
		start, end = utils.TrailingDayRange(time.Now().UTC(), 30)
	} else {
		var err error
		start, end, err = utils.NormalizeDateRange(fromStr, toStr, config.MaxQueryRangeDays)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	buckets, err := loadBuckets(ctx, workspaceID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	rates, err := engine.Growth(buckets)
	if err != nil && !errors.Is(err, engine.ErrInsufficientHistory) {
		respondError(c, err)
		return
	}
	profile := engine.ComputeSeasonalProfile(buckets, config.SeasonalWindowDays)

	budget, err := model.GetWorkspaceBudget(ctx, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, trendsResponse{
		Daily:           buckets,
		GrowthRates:     rates,
		SeasonalProfile: profile,
		BurnRate:        summarizeBurnRate(buckets, budget.Limits()),
	})
}

// summarizeBurnRate derives the current pace from the trailing week of
// buckets and, when a monthly budget exists, how many days it has left.
func summarizeBurnRate(buckets []engine.DailyBucket, limits engine.BudgetLimits) burnRateSummary {
	summary := burnRateSummary{}
	if len(buckets) == 0 {
		return summary
	}

	window := buckets
	if len(window) > 7 {
		window = window[len(window)-7:]
	}
	for _, b := range window {
		summary.DailyBurnRate += b.CreditsTotal
	}
	summary.DailyBurnRate /= float64(len(window))
	summary.ProjectedMonthly = summary.DailyBurnRate * 30
	summary.CurrentSpend = buckets[len(buckets)-1].CumulativeCreditsToDate

	if limits.MonthlyBudget != nil && summary.DailyBurnRate > 0 {
		remaining := *limits.MonthlyBudget - summary.CurrentSpend
		days := 0
		if remaining > 0 {
			days = int(math.Floor(remaining / summary.DailyBurnRate))
		}
		summary.DaysRemaining = &days
	}
	return summary
}
