package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/Laisky/errors/v2"
)

const defaultApproachingPct = 80

// spikeStddevFactor is how many category standard deviations above the
// seasonal-adjusted expectation a day must land to count as a spike.
const spikeStddevFactor = 2

// ComputeBudgetStatus joins configured limits with current-period consumption
// and the forecast-derived projections. BudgetUtilization stays nil when no
// monthly budget is configured; the engine never fabricates a percentage
// against an unset budget.
func ComputeBudgetStatus(workspaceID string, limits BudgetLimits, currentDay, currentWeek, currentMonth float64, forecast ForecastResult, asOf time.Time) BudgetStatus {
	status := BudgetStatus{
		WorkspaceID:  workspaceID,
		Limits:       limits,
		CurrentDay:   currentDay,
		CurrentWeek:  currentWeek,
		CurrentMonth: currentMonth,
	}
	if limits.MonthlyBudget == nil {
		return status
	}

	budget := *limits.MonthlyBudget
	if budget > 0 {
		utilization := currentMonth / budget * 100
		status.BudgetUtilization = &utilization
		status.IsOverBudget = utilization >= 100
	} else {
		zero := 0.0
		status.BudgetUtilization = &zero
		status.IsOverBudget = currentMonth > 0
	}

	dailyRate := forecast.NextMonth / forecastHorizonDays
	remaining := budget - currentMonth
	switch {
	case remaining <= 0:
		exhausted := dayOf(asOf)
		status.ProjectedExhaustion = &exhausted
	case dailyRate > 0:
		days := int(math.Ceil(remaining / dailyRate))
		exhaustion := dayOf(asOf).AddDate(0, 0, days)
		status.ProjectedExhaustion = &exhaustion
	}

	// Top-up advice: what the rest of the calendar month is projected to cost
	// beyond the configured budget.
	daysLeft := daysLeftInMonth(asOf)
	projectedMonthTotal := currentMonth + dailyRate*float64(daysLeft)
	if shortfall := projectedMonthTotal - budget; shortfall > 0 {
		topUp := math.Ceil(shortfall)
		status.RecommendedTopUp = &topUp
	}
	return status
}

// EvaluateBudget applies the alert rules independently, so a single evaluation
// can fire several alert types at once. Unset limits cannot fire anything.
// Alert deduplication across repeated evaluations is the caller's concern.
func EvaluateBudget(status BudgetStatus, forecast ForecastResult, buckets []DailyBucket, profile SeasonalProfile, thresholds AlertThresholds) ([]BudgetAlert, error) {
	if thresholds.ApproachingPct < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration,
			"approaching threshold must not be negative: %f", thresholds.ApproachingPct)
	}
	approachingPct := thresholds.ApproachingPct
	if approachingPct == 0 {
		approachingPct = defaultApproachingPct
	}

	now := time.Now().UTC()
	alerts := []BudgetAlert{}

	for _, check := range []struct {
		limit   *float64
		current float64
		period  string
	}{
		{status.Limits.DailyLimit, status.CurrentDay, "daily"},
		{status.Limits.WeeklyBudget, status.CurrentWeek, "weekly"},
		{status.Limits.MonthlyBudget, status.CurrentMonth, "monthly"},
	} {
		if check.limit == nil || check.current < *check.limit {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			Type:         AlertExceededLimit,
			Threshold:    *check.limit,
			CurrentValue: check.current,
			Message: fmt.Sprintf("%s consumption of %.2f credits has reached the configured %s limit of %.2f",
				check.period, check.current, check.period, *check.limit),
			TriggeredAt: now,
		})
	}

	if status.BudgetUtilization != nil {
		utilization := *status.BudgetUtilization
		if utilization >= approachingPct && utilization < 100 {
			alerts = append(alerts, BudgetAlert{
				Type:         AlertApproachingLimit,
				Threshold:    approachingPct,
				CurrentValue: utilization,
				Message: fmt.Sprintf("monthly budget utilization is at %.1f%%, past the %.0f%% warning threshold",
					utilization, approachingPct),
				TriggeredAt: now,
			})
		}
	}

	if alert, ok := detectSpike(buckets, profile, now); ok {
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// detectSpike flags the most recent day when its consumption exceeds the
// seasonal-adjusted expectation for its category by more than 2 historical
// standard deviations of that category. Categories with fewer than 2 observed
// days carry no usable spread and never flag.
func detectSpike(buckets []DailyBucket, profile SeasonalProfile, now time.Time) (BudgetAlert, bool) {
	if len(buckets) < 2 {
		return BudgetAlert{}, false
	}
	latest := buckets[len(buckets)-1]
	cat := CategoryFor(latest.Date)
	expected, ok := profile.Average(cat)
	if !ok {
		return BudgetAlert{}, false
	}

	var sameCategory []float64
	for i := 0; i < len(buckets)-1; i++ {
		if CategoryFor(buckets[i].Date) == cat {
			sameCategory = append(sameCategory, buckets[i].CreditsTotal)
		}
	}
	if len(sameCategory) < 2 {
		return BudgetAlert{}, false
	}

	spread := stddev(sameCategory)
	threshold := expected + spikeStddevFactor*spread
	if latest.CreditsTotal <= threshold {
		return BudgetAlert{}, false
	}
	return BudgetAlert{
		Type:         AlertUnusualSpike,
		Threshold:    threshold,
		CurrentValue: latest.CreditsTotal,
		Message: fmt.Sprintf("consumption of %.2f credits on %s is unusually high for a %s (expected around %.2f)",
			latest.CreditsTotal, latest.Date.Format("2006-01-02"), cat, expected),
		TriggeredAt: now,
	}, true
}

func daysLeftInMonth(asOf time.Time) int {
	u := asOf.UTC()
	daysInMonth := time.Date(u.Year(), u.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return daysInMonth - u.Day()
}
