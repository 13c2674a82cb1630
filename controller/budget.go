package controller

import (
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/shadower-ai/shadow-analytics/engine"
	"github.com/shadower-ai/shadow-analytics/model"
	"github.com/shadower-ai/shadow-analytics/monitor"
)

type budgetResponse struct {
	Status engine.BudgetStatus  `json:"status"`
	Alerts []engine.BudgetAlert `json:"alerts"`
}

// GetBudgetStatus evaluates a workspace's configured limits against its
// current-period consumption and the forecast, returning the status plus any
// alerts that fire right now. The approaching-limit threshold defaults to 80%
// and can be overridden with the approaching_pct query parameter.
func GetBudgetStatus(c *gin.Context) {
	workspaceID := c.Param("workspace_id")
	ctx := c.Request.Context()

	thresholds := engine.AlertThresholds{}
	if raw := c.Query("approaching_pct"); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondBadRequest(c, errors.Wrap(err, "invalid approaching_pct"))
			return
		}
		thresholds.ApproachingPct = pct
	}

	budget, err := model.GetWorkspaceBudget(ctx, workspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	currentDay, currentWeek, currentMonth, err := currentPeriodSums(c, workspaceID, now)
	if err != nil {
		respondError(c, err)
		return
	}

	forecast, buckets, profile, err := computeForecast(ctx, workspaceID, now)
	if err != nil {
		respondError(c, err)
		return
	}

	status := engine.ComputeBudgetStatus(workspaceID, budget.Limits(),
		currentDay, currentWeek, currentMonth, forecast, now)
	alerts, err := engine.EvaluateBudget(status, forecast, buckets, profile, thresholds)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, alert := range alerts {
		monitor.AlertsEmitted.WithLabelValues(alert.Type).Inc()
	}

	respondOK(c, budgetResponse{Status: status, Alerts: alerts})
}

// currentPeriodSums totals consumption for the calendar day, the calendar week
// (Monday start) and the calendar month containing now, each half-open up to
// the current moment.
func currentPeriodSums(c *gin.Context, workspaceID string, now time.Time) (day, week, month float64, err error) {
	ctx := c.Request.Context()
	endExclusive := now.Unix() + 1

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(dayStart.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := dayStart.AddDate(0, 0, 1-weekday)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	if day, err = model.SumCredits(ctx, workspaceID, dayStart.Unix(), endExclusive); err != nil {
		return 0, 0, 0, err
	}
	if week, err = model.SumCredits(ctx, workspaceID, weekStart.Unix(), endExclusive); err != nil {
		return 0, 0, 0, err
	}
	if month, err = model.SumCredits(ctx, workspaceID, monthStart.Unix(), endExclusive); err != nil {
		return 0, 0, 0, err
	}
	return day, week, month, nil
}

// UpdateBudgetRequest carries a full replacement of a workspace's limits.
// Omitted or null fields clear the corresponding limit.
type UpdateBudgetRequest struct {
	MonthlyBudget *float64 `json:"monthlyBudget" binding:"omitempty,gte=0"`
	WeeklyBudget  *float64 `json:"weeklyBudget" binding:"omitempty,gte=0"`
	DailyLimit    *float64 `json:"dailyLimit" binding:"omitempty,gte=0"`
}

// UpdateBudget stores a workspace's budget configuration. The request is a
// full replacement, not a patch.
func UpdateBudget(c *gin.Context) {
	workspaceID := c.Param("workspace_id")

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, errors.Wrap(err, "invalid budget payload"))
		return
	}

	budget := &model.WorkspaceBudget{
		WorkspaceId:   workspaceID,
		MonthlyBudget: floatPtrToDecimal(req.MonthlyBudget),
		WeeklyBudget:  floatPtrToDecimal(req.WeeklyBudget),
		DailyLimit:    floatPtrToDecimal(req.DailyLimit),
	}
	if err := model.UpsertWorkspaceBudget(c.Request.Context(), budget); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, budget.Limits())
}

func floatPtrToDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
