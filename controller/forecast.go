package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/cache"
	"github.com/shadower-ai/shadow-analytics/common/config"
	"github.com/shadower-ai/shadow-analytics/engine"
)

// GetForecast returns the workspace's consumption forecast: next-day/week/month
// point estimates with a 95% interval on the monthly figure. Results are
// cached per workspace and as-of date.
func GetForecast(c *gin.Context) {
	workspaceID := c.Param("workspace_id")
	asOf := time.Now().UTC()

	key := fmt.Sprintf("forecast:%s:%s", workspaceID, asOf.Format("2006-01-02"))
	result, err := cache.GetOrCompute(c.Request.Context(), resultCache, key, config.ForecastCacheTTL,
		func(ctx context.Context) (engine.ForecastResult, error) {
			forecast, _, _, err := computeForecast(ctx, workspaceID, asOf)
			return forecast, err
		})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
