// Package engine implements the consumption forecasting and optimization core:
// daily aggregation of usage events, growth estimation, seasonal decomposition,
// forecast projection with confidence intervals, budget evaluation, and
// cost-optimization recommendations.
//
// Every function in this package is pure: no I/O, no shared state, no clock
// reads besides stamping result generation times. Loading events and caching
// results are the caller's concern.
package engine

import (
	"time"
)

// UsageEvent is one metered consumption record, immutable once written.
type UsageEvent struct {
	Timestamp       time.Time `json:"timestamp"`
	WorkspaceID     string    `json:"workspaceId"`
	AgentID         string    `json:"agentId"`
	UserID          string    `json:"userId"`
	ModelName       string    `json:"modelName"`
	ProviderName    string    `json:"providerName"`
	CreditsConsumed float64   `json:"creditsConsumed"`
	CallCount       int64     `json:"callCount"`
}

// DailyBucket aggregates one workspace's events for one UTC calendar day.
type DailyBucket struct {
	Date                    time.Time `json:"date"`
	WorkspaceID             string    `json:"workspaceId"`
	CreditsTotal            float64   `json:"creditsTotal"`
	CumulativeCreditsToDate float64   `json:"cumulativeCreditsToDate"`
}

// AggregateOptions controls bucket construction.
type AggregateOptions struct {
	// FillGaps inserts zero-credit buckets for days without events between the
	// first and last observed day.
	FillGaps bool
}

// GrowthRates holds signed trailing growth percentages. A nil field means the
// input carried too little history for that comparison window.
type GrowthRates struct {
	Daily   *float64 `json:"daily"`
	Weekly  *float64 `json:"weekly"`
	Monthly *float64 `json:"monthly"`
}

// DayCategory classifies a calendar day for seasonal decomposition.
type DayCategory string

const (
	CategoryWeekday  DayCategory = "weekday"
	CategoryWeekend  DayCategory = "weekend"
	CategoryMonthEnd DayCategory = "monthEnd"
)

// SeasonalProfile carries per-category baseline consumption averages.
// A category listed in InsufficientData had no matching days in the window;
// its average is 0 but that zero means "no data", not "no usage".
type SeasonalProfile struct {
	Weekday          float64       `json:"weekday"`
	Weekend          float64       `json:"weekend"`
	MonthEnd         float64       `json:"monthEnd"`
	InsufficientData []DayCategory `json:"insufficientData,omitempty"`
}

// ForecastResult is the output of one forecast run.
type ForecastResult struct {
	NextDay         float64         `json:"nextDay"`
	NextWeek        float64         `json:"nextWeek"`
	NextMonth       float64         `json:"nextMonth"`
	ConfidenceLow   float64         `json:"confidenceLow"`
	ConfidenceHigh  float64         `json:"confidenceHigh"`
	SeasonalFactors SeasonalProfile `json:"seasonalFactors"`
	LowConfidence   bool            `json:"lowConfidence"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// ProjectOptions tunes the forecast projector.
type ProjectOptions struct {
	// BacktestDays caps the walk-forward residual history used for the
	// confidence interval. 0 means the default of 180 days.
	BacktestDays int
}

// BudgetLimits are the per-workspace configured spending limits. Nil means the
// limit is not configured; an unset limit never produces alerts or utilization.
type BudgetLimits struct {
	MonthlyBudget *float64 `json:"monthlyBudget"`
	WeeklyBudget  *float64 `json:"weeklyBudget"`
	DailyLimit    *float64 `json:"dailyLimit"`
}

// BudgetStatus joins configured limits with current-period consumption and the
// projections derived from them.
type BudgetStatus struct {
	WorkspaceID         string     `json:"workspaceId"`
	Limits              BudgetLimits `json:"limits"`
	CurrentDay          float64    `json:"currentDay"`
	CurrentWeek         float64    `json:"currentWeek"`
	CurrentMonth        float64    `json:"currentMonth"`
	BudgetUtilization   *float64   `json:"budgetUtilization"`
	IsOverBudget        bool       `json:"isOverBudget"`
	ProjectedExhaustion *time.Time `json:"projectedExhaustion"`
	RecommendedTopUp    *float64   `json:"recommendedTopUp"`
}

// Alert types emitted by EvaluateBudget.
const (
	AlertExceededLimit    = "exceeded_limit"
	AlertApproachingLimit = "approaching_limit"
	AlertUnusualSpike     = "unusual_spike"
)

// BudgetAlert is one triggered threshold breach. Alerts are stateless outputs
// of a single evaluation; deduplication across runs is the caller's concern.
type BudgetAlert struct {
	Type         string    `json:"type"`
	Threshold    float64   `json:"threshold"`
	CurrentValue float64   `json:"currentValue"`
	Message      string    `json:"message"`
	TriggeredAt  time.Time `json:"triggeredAt"`
}

// AlertThresholds configures EvaluateBudget.
type AlertThresholds struct {
	// ApproachingPct is the utilization percentage at which approaching_limit
	// fires. 0 means the default of 80.
	ApproachingPct float64 `json:"approachingPct"`
}

// ModelConsumption is a per-model rollup over one reporting period.
type ModelConsumption struct {
	Model             string  `json:"model"`
	Provider          string  `json:"provider"`
	Credits           float64 `json:"credits"`
	Percentage        float64 `json:"percentage"`
	Calls             int64   `json:"calls"`
	AvgCreditsPerCall float64 `json:"avgCreditsPerCall"`
	Trend             string  `json:"trend"`
}

// Trend labels for ModelConsumption.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// Recommendation types emitted by Recommend.
const (
	RecommendModelSwitch  = "model_switch"
	RecommendCaching      = "caching"
	RecommendBatching     = "batch_processing"
	RecommendPromptTuning = "prompt_optimization"
)

// Effort levels for recommendations.
const (
	EffortLow    = "low"
	EffortMedium = "medium"
	EffortHigh   = "high"
)

// OptimizationRecommendation is one cost-saving suggestion.
type OptimizationRecommendation struct {
	Type              string  `json:"type"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	CurrentCost       float64 `json:"currentCost"`
	ProjectedCost     float64 `json:"projectedCost"`
	PotentialSavings  float64 `json:"potentialSavings"`
	SavingsPercentage float64 `json:"savingsPercentage"`
	Effort            string  `json:"effort"`
	Implementation    string  `json:"implementation"`
}

// ModelEquivalent names a cheaper substitute for a model.
type ModelEquivalent struct {
	Model          string  `json:"model"`
	CreditsPerCall float64 `json:"creditsPerCall"`
}

// OptimizationPolicy supplies the caller-tuned knobs for Recommend.
type OptimizationPolicy struct {
	// ModelEquivalents maps an expensive model to its cheaper substitute.
	ModelEquivalents map[string]ModelEquivalent `json:"modelEquivalents"`
	// BaselineRates maps a model to its provider-published credits-per-call.
	BaselineRates map[string]float64 `json:"baselineRates"`
	// DuplicateCallRatio estimates the fraction of calls that are repeats, in [0, 1].
	DuplicateCallRatio float64 `json:"duplicateCallRatio"`
	// CachingCallThreshold is the call count above which caching pays off.
	CachingCallThreshold int64 `json:"cachingCallThreshold"`
	// BatchCallsPerMinute is the call rate above which batching pays off.
	BatchCallsPerMinute float64 `json:"batchCallsPerMinute"`
	// BatchOverheadReduction is the per-call overhead fraction batching removes, in [0, 1].
	BatchOverheadReduction float64 `json:"batchOverheadReduction"`
	// PeriodMinutes is the length of the reporting period the breakdown covers.
	PeriodMinutes float64 `json:"periodMinutes"`
}
