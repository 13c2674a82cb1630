package controller

import (
	"context"
	"fmt"
	"net/http"
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

var resultCache *cache.Cache

// InitCache hands the controllers their result cache. Called once from main
// before the router starts serving.
func InitCache(c *cache.Cache) {
	resultCache = c
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    data,
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrInsufficientHistory):
		// engine callers degrade instead; reaching here means a caller asked
		// for a strict statistic explicitly
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
	})
}

// loadBuckets returns gap-filled daily buckets for a workspace over the
// half-open timestamp range, served through the two-tier cache so concurrent
// requests share one database aggregation.
func loadBuckets(ctx context.Context, workspaceID string, start, endExclusive int64) ([]engine.DailyBucket, error) {
	key := fmt.Sprintf("buckets:%s:%d:%d", workspaceID, start, endExclusive)
	return cache.GetOrCompute(ctx, resultCache, key, config.BucketCacheTTL,
		func(ctx context.Context) ([]engine.DailyBucket, error) {
			begin := time.Now()
			defer monitor.ObserveComputation("aggregate", begin)

			rows, err := model.GetDailyTotals(ctx, workspaceID, start, endExclusive)
			if err != nil {
				return nil, err
			}
			totals := make([]engine.DayTotal, 0, len(rows))
			for _, row := range rows {
				date, err := time.Parse("2006-01-02", row.Day)
				if err != nil {
					return nil, errors.Wrapf(err, "malformed day bucket %q", row.Day)
				}
				totals = append(totals, engine.DayTotal{Date: date, Credits: row.Credits})
			}
			return engine.BucketsFromTotals(workspaceID, totals, true), nil
		})
}

// forecastLookbackDays is how much history the forecast pipeline loads: enough
// for the seasonal window, the backtest, and the 30-day growth comparison.
func forecastLookbackDays() int {
	days := config.SeasonalWindowDays
	if config.BacktestWindowDays > days {
		days = config.BacktestWindowDays
	}
	if days < 60 {
		days = 60
	}
	return days
}

// computeForecast runs the full pipeline for one workspace: buckets, growth,
// seasonal profile, projection. Insufficient history degrades to partial
// results instead of failing.
func computeForecast(ctx context.Context, workspaceID string, asOf time.Time) (engine.ForecastResult, []engine.DailyBucket, engine.SeasonalProfile, error) {
	start, end := utils.TrailingDayRange(asOf, forecastLookbackDays())
	buckets, err := loadBuckets(ctx, workspaceID, start, end)
	if err != nil {
		return engine.ForecastResult{}, nil, engine.SeasonalProfile{}, err
	}

	begin := time.Now()
	rates, err := engine.Growth(buckets)
	if err != nil && !errors.Is(err, engine.ErrInsufficientHistory) {
		return engine.ForecastResult{}, nil, engine.SeasonalProfile{}, err
	}
	profile := engine.ComputeSeasonalProfile(buckets, config.SeasonalWindowDays)
	result := engine.Project(buckets, rates, profile, asOf, engine.ProjectOptions{
		BacktestDays: config.BacktestWindowDays,
	})
	monitor.ObserveComputation("forecast", begin)
	return result, buckets, profile, nil
}
