package engine

import (
	"math"
	"time"
)

const (
	defaultBacktestDays = 180
	baselineWindow      = 7
	forecastHorizonDays = 30
	// zScore95 is the two-sided 95% normal quantile.
	zScore95 = 1.96
)

// Project produces point forecasts for the next day, week and month, plus a
// 95% confidence interval around the monthly estimate.
//
// Each projected day starts from the trailing 7-day average, is scaled by the
// seasonal factor of that day's category (the ratio of the category average to
// the overall trailing average), and compounds the monthly growth rate daily.
// The interval comes from a naive walk-forward backtest over the trailing
// history: the day-ahead residuals' standard deviation, scaled by sqrt(30)
// under an independence assumption. That assumption is a simplification, not a
// coverage guarantee.
//
// With no history at all every output is 0 and LowConfidence is set. Forecasts
// are floored at 0.
func Project(buckets []DailyBucket, growth GrowthRates, profile SeasonalProfile, asOf time.Time, opts ProjectOptions) ForecastResult {
	result := ForecastResult{
		SeasonalFactors: profile,
		GeneratedAt:     time.Now().UTC(),
	}
	if len(buckets) == 0 {
		result.LowConfidence = true
		return result
	}

	baseline, overall := trailingBaseline(buckets)
	dailyGrowth := dailyGrowthFactor(growth)

	compounded := 1.0
	for day := 1; day <= forecastHorizonDays; day++ {
		date := dayOf(asOf).AddDate(0, 0, day)
		compounded *= dailyGrowth
		step := baseline * seasonalRatio(profile, CategoryFor(date), overall) * compounded
		if step < 0 {
			step = 0
		}
		if day == 1 {
			result.NextDay = step
		}
		if day <= 7 {
			result.NextWeek += step
		}
		result.NextMonth += step
	}

	backtestDays := opts.BacktestDays
	if backtestDays <= 0 {
		backtestDays = defaultBacktestDays
	}
	residuals := walkForwardResiduals(buckets, profile, backtestDays)
	if len(residuals) < 2 {
		// Not enough history to measure forecast error; collapse the interval
		// onto the point estimate.
		result.LowConfidence = true
		result.ConfidenceLow = result.NextMonth
		result.ConfidenceHigh = result.NextMonth
		return result
	}

	margin := zScore95 * stddev(residuals) * math.Sqrt(forecastHorizonDays)
	result.ConfidenceLow = math.Max(0, result.NextMonth-margin)
	result.ConfidenceHigh = result.NextMonth + margin
	return result
}

// trailingBaseline returns the mean daily consumption over the trailing 7
// buckets, falling back to whatever shorter history exists. The second return
// is the same mean, kept separate as the denominator for seasonal ratios.
func trailingBaseline(buckets []DailyBucket) (float64, float64) {
	window := buckets
	if len(window) > baselineWindow {
		window = window[len(window)-baselineWindow:]
	}
	mean := sumCredits(window) / float64(len(window))
	return mean, mean
}

// seasonalRatio is the multiplicative adjustment for a day category: the
// category average over the overall average, defined as 1 when the overall
// average is 0 or the category has no data.
func seasonalRatio(profile SeasonalProfile, cat DayCategory, overall float64) float64 {
	if overall == 0 {
		return 1
	}
	avg, ok := profile.Average(cat)
	if !ok {
		return 1
	}
	return avg / overall
}

// dailyGrowthFactor converts a monthly growth percentage into a per-day
// compounding multiplier. Missing growth data and pathological declines of
// -100% or worse both degrade safely (to 1 and 0 respectively).
func dailyGrowthFactor(growth GrowthRates) float64 {
	if growth.Monthly == nil {
		return 1
	}
	monthly := 1 + *growth.Monthly/100
	if monthly <= 0 {
		return 0
	}
	return math.Pow(monthly, 1.0/forecastHorizonDays)
}

// walkForwardResiduals replays a day-ahead forecast over history: for each
// bucket after the first, predict it from the trailing window before it and
// record actual minus predicted. History is capped at backtestDays residuals.
func walkForwardResiduals(buckets []DailyBucket, profile SeasonalProfile, backtestDays int) []float64 {
	start := 1
	if len(buckets)-start > backtestDays {
		start = len(buckets) - backtestDays
	}

	residuals := make([]float64, 0, len(buckets)-start)
	for i := start; i < len(buckets); i++ {
		history := buckets[:i]
		if len(history) > baselineWindow {
			history = history[len(history)-baselineWindow:]
		}
		mean := sumCredits(history) / float64(len(history))
		predicted := mean * seasonalRatio(profile, CategoryFor(buckets[i].Date), mean)
		residuals = append(residuals, buckets[i].CreditsTotal-predicted)
	}
	return residuals
}

// stddev is the sample standard deviation. Callers guarantee len >= 2.
func stddev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
