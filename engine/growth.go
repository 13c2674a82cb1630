package engine

// Comparison windows, in days.
const (
	dailyWindow   = 1
	weeklyWindow  = 7
	monthlyWindow = 30
)

// Growth computes signed trailing growth percentages over daily, weekly and
// monthly windows, comparing the most recent period against the immediately
// preceding period of equal length. Buckets must already be sorted ascending
// by date. Windows without 2x their length of history come back nil; when not
// even the daily comparison is possible the returned error wraps
// ErrInsufficientHistory and the caller should degrade rather than fail.
// A zero previous period yields 0, never Inf or NaN.
func Growth(buckets []DailyBucket) (GrowthRates, error) {
	rates := GrowthRates{
		Daily:   growthOver(buckets, dailyWindow),
		Weekly:  growthOver(buckets, weeklyWindow),
		Monthly: growthOver(buckets, monthlyWindow),
	}
	if rates.Daily == nil && rates.Weekly == nil && rates.Monthly == nil {
		return rates, ErrInsufficientHistory
	}
	return rates, nil
}

func growthOver(buckets []DailyBucket, window int) *float64 {
	if len(buckets) < 2*window {
		return nil
	}
	current := sumCredits(buckets[len(buckets)-window:])
	previous := sumCredits(buckets[len(buckets)-2*window : len(buckets)-window])

	rate := 0.0
	if previous != 0 {
		rate = (current - previous) / previous * 100
	}
	return &rate
}

func sumCredits(buckets []DailyBucket) float64 {
	total := 0.0
	for i := range buckets {
		total += buckets[i].CreditsTotal
	}
	return total
}
