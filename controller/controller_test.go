package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/shadower-ai/shadow-analytics/cache"
	"github.com/shadower-ai/shadow-analytics/common"
	"github.com/shadower-ai/shadow-analytics/engine"
	"github.com/shadower-ai/shadow-analytics/model"
)

// envelope mirrors the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestEnvironment(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	common.UsingSQLite.Store(true)
	require.NoError(t, db.AutoMigrate(&model.UsageEvent{}, &model.WorkspaceBudget{}))
	db.Exec("DELETE FROM usage_events")
	db.Exec("DELETE FROM workspace_budgets")
	model.DB = db
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	InitCache(cache.New(time.Minute, nil))

	server := gin.New()
	workspaceRoute := server.Group("/api/workspace/:workspace_id")
	workspaceRoute.GET("/forecast", GetForecast)
	workspaceRoute.GET("/trends", GetConsumptionTrends)
	workspaceRoute.GET("/budget", GetBudgetStatus)
	workspaceRoute.PUT("/budget", UpdateBudget)
	workspaceRoute.GET("/optimizations", GetOptimizations)
	workspaceRoute.POST("/events", RecordEvents)
	return server
}

// seedDailyHistory inserts one event per day for the trailing days, most
// recent day first at offset 1 (yesterday).
func seedDailyHistory(t *testing.T, workspaceID string, days int, creditsPerDay float64) {
	t.Helper()
	now := time.Now().UTC()
	rows := make([]*model.UsageEvent, 0, days)
	for i := 1; i <= days; i++ {
		day := now.AddDate(0, 0, -i)
		rows = append(rows, &model.UsageEvent{
			WorkspaceId:     workspaceID,
			ModelName:       "sparrow-7b",
			ProviderName:    "aviary",
			CreditsConsumed: decimal.NewFromFloat(creditsPerDay),
			CallCount:       10,
			CreatedAt:       time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC).Unix(),
		})
	}
	require.NoError(t, model.RecordUsageEvents(t.Context(), rows))
}

func doRequest(server *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, "expected success envelope, got message: %s", env.Message)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestRecordEvents(t *testing.T) {
	server := setupTestEnvironment(t)

	t.Run("accepts a batch", func(t *testing.T) {
		payload := gin.H{"events": []gin.H{
			{"timestamp": time.Now().UTC().Format(time.RFC3339), "modelName": "sparrow-7b", "creditsConsumed": 12.5, "callCount": 3},
			{"timestamp": time.Now().UTC().Format(time.RFC3339), "modelName": "titan-70b", "creditsConsumed": 80.0},
		}}
		w := doRequest(server, http.MethodPost, "/api/workspace/ws-ingest/events", payload)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		total, err := model.SumCredits(t.Context(), "ws-ingest", 0, time.Now().Unix()+10)
		require.NoError(t, err)
		assert.InDelta(t, 92.5, total, 1e-6)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		w := doRequest(server, http.MethodPost, "/api/workspace/ws-ingest/events", gin.H{"events": []gin.H{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a missing timestamp", func(t *testing.T) {
		payload := gin.H{"events": []gin.H{{"creditsConsumed": 1.0}}}
		w := doRequest(server, http.MethodPost, "/api/workspace/ws-ingest/events", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a far-future timestamp", func(t *testing.T) {
		payload := gin.H{"events": []gin.H{
			{"timestamp": time.Now().UTC().Add(time.Hour).Format(time.RFC3339), "creditsConsumed": 1.0},
		}}
		w := doRequest(server, http.MethodPost, "/api/workspace/ws-ingest/events", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects negative credits", func(t *testing.T) {
		payload := gin.H{"events": []gin.H{
			{"timestamp": time.Now().UTC().Format(time.RFC3339), "creditsConsumed": -5.0},
		}}
		w := doRequest(server, http.MethodPost, "/api/workspace/ws-ingest/events", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetForecast(t *testing.T) {
	server := setupTestEnvironment(t)

	t.Run("steady history projects the same rate forward", func(t *testing.T) {
		seedDailyHistory(t, "ws-forecast", 60, 100)
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-forecast/forecast", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		result := decodeData[engine.ForecastResult](t, w)
		assert.InDelta(t, 100, result.NextDay, 1)
		assert.InDelta(t, 3000, result.NextMonth, 50)
		assert.False(t, result.LowConfidence)
		assert.LessOrEqual(t, result.ConfidenceLow, result.NextMonth)
		assert.GreaterOrEqual(t, result.ConfidenceHigh, result.NextMonth)
	})

	t.Run("empty workspace degrades to a low-confidence zero forecast", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-empty/forecast", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		result := decodeData[engine.ForecastResult](t, w)
		assert.Zero(t, result.NextMonth)
		assert.True(t, result.LowConfidence)
	})
}

func TestGetConsumptionTrends(t *testing.T) {
	server := setupTestEnvironment(t)
	seedDailyHistory(t, "ws-trends", 21, 50)

	t.Run("default range returns buckets and burn rate", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-trends/trends", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeData[trendsResponse](t, w)
		assert.NotEmpty(t, resp.Daily)
		assert.InDelta(t, 50, resp.BurnRate.DailyBurnRate, 1e-6)
		assert.InDelta(t, 1500, resp.BurnRate.ProjectedMonthly, 1e-6)
		assert.Nil(t, resp.BurnRate.DaysRemaining)
	})

	t.Run("rejects a reversed range", func(t *testing.T) {
		w := doRequest(server, http.MethodGet,
			"/api/workspace/ws-trends/trends?from_date=2025-06-30&to_date=2025-06-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBudgetEndpoints(t *testing.T) {
	server := setupTestEnvironment(t)

	t.Run("put then get round-trips limits", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, "/api/workspace/ws-budget/budget",
			gin.H{"monthlyBudget": 5000.0, "dailyLimit": 200.0})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		limits := decodeData[engine.BudgetLimits](t, w)
		require.NotNil(t, limits.MonthlyBudget)
		assert.InDelta(t, 5000, *limits.MonthlyBudget, 1e-6)
		require.NotNil(t, limits.DailyLimit)
		assert.Nil(t, limits.WeeklyBudget)
	})

	t.Run("rejects negative limits", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, "/api/workspace/ws-budget/budget",
			gin.H{"monthlyBudget": -1.0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status reports utilization against the monthly budget", func(t *testing.T) {
		seedDailyHistory(t, "ws-budget-status", 30, 100)
		w := doRequest(server, http.MethodPut, "/api/workspace/ws-budget-status/budget",
			gin.H{"monthlyBudget": 10000.0})
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(server, http.MethodGet, "/api/workspace/ws-budget-status/budget", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeData[budgetResponse](t, w)
		assert.Equal(t, "ws-budget-status", resp.Status.WorkspaceID)
		require.NotNil(t, resp.Status.BudgetUtilization)
		assert.False(t, resp.Status.IsOverBudget)
		assert.NotNil(t, resp.Alerts)
	})

	t.Run("rejects a malformed approaching threshold", func(t *testing.T) {
		w := doRequest(server, http.MethodGet,
			"/api/workspace/ws-budget/budget?approaching_pct=lots", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative approaching threshold is invalid configuration", func(t *testing.T) {
		w := doRequest(server, http.MethodGet,
			"/api/workspace/ws-budget/budget?approaching_pct=-5", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetOptimizations(t *testing.T) {
	server := setupTestEnvironment(t)

	// One expensive high-volume model so the caching heuristic has something
	// to work with.
	now := time.Now().UTC()
	rows := []*model.UsageEvent{}
	for i := 1; i <= 10; i++ {
		day := now.AddDate(0, 0, -i)
		rows = append(rows, &model.UsageEvent{
			WorkspaceId:     "ws-opt",
			ModelName:       "titan-70b",
			ProviderName:    "colossus",
			CreditsConsumed: decimal.NewFromFloat(500),
			CallCount:       200,
			CreatedAt:       time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).Unix(),
		})
	}
	require.NoError(t, model.RecordUsageEvents(t.Context(), rows))

	t.Run("returns the breakdown with derived fields", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-opt/optimizations", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeData[optimizationResponse](t, w)
		require.Len(t, resp.Breakdown, 1)
		entry := resp.Breakdown[0]
		assert.Equal(t, "titan-70b", entry.Model)
		assert.InDelta(t, 100, entry.Percentage, 1e-6)
		assert.InDelta(t, 2.5, entry.AvgCreditsPerCall, 1e-6)

		for _, rec := range resp.Recommendations {
			assert.Greater(t, rec.PotentialSavings, 0.0)
			assert.Less(t, rec.ProjectedCost, rec.CurrentCost)
		}
	})

	t.Run("rejects a malformed policy", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-opt/optimizations",
			gin.H{"duplicateCallRatio": 1.5})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty workspace yields an empty breakdown", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/workspace/ws-opt-empty/optimizations", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeData[optimizationResponse](t, w)
		assert.Empty(t, resp.Breakdown)
		assert.Empty(t, resp.Recommendations)
	})
}
