package engine

import (
	"time"
)

// CategoryFor classifies a calendar day. Month-end (the last 3 days of the
// month) takes precedence over the weekday/weekend split so the three
// categories stay mutually exclusive and fully cover the calendar.
// Classification uses UTC calendar positions.
func CategoryFor(date time.Time) DayCategory {
	u := date.UTC()
	daysInMonth := time.Date(u.Year(), u.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if u.Day() > daysInMonth-3 {
		return CategoryMonthEnd
	}
	if u.Weekday() == time.Saturday || u.Weekday() == time.Sunday {
		return CategoryWeekend
	}
	return CategoryWeekday
}

// ComputeSeasonalProfile averages creditsTotal per day category over the
// trailing windowDays of buckets (relative to the latest bucket). Categories
// with no matching days in the window average to 0 and are listed in
// InsufficientData so callers can tell "no data" from "no usage".
func ComputeSeasonalProfile(buckets []DailyBucket, windowDays int) SeasonalProfile {
	profile := SeasonalProfile{}

	windowed := trailingWindow(buckets, windowDays)
	sums := map[DayCategory]float64{}
	counts := map[DayCategory]int{}
	for i := range windowed {
		cat := CategoryFor(windowed[i].Date)
		sums[cat] += windowed[i].CreditsTotal
		counts[cat]++
	}

	for _, cat := range []DayCategory{CategoryWeekday, CategoryWeekend, CategoryMonthEnd} {
		if counts[cat] == 0 {
			profile.InsufficientData = append(profile.InsufficientData, cat)
			continue
		}
		avg := sums[cat] / float64(counts[cat])
		switch cat {
		case CategoryWeekday:
			profile.Weekday = avg
		case CategoryWeekend:
			profile.Weekend = avg
		case CategoryMonthEnd:
			profile.MonthEnd = avg
		}
	}
	return profile
}

// Average returns the profile's average for the given category, and whether
// the category had any data.
func (p SeasonalProfile) Average(cat DayCategory) (float64, bool) {
	for _, missing := range p.InsufficientData {
		if missing == cat {
			return 0, false
		}
	}
	switch cat {
	case CategoryWeekend:
		return p.Weekend, true
	case CategoryMonthEnd:
		return p.MonthEnd, true
	default:
		return p.Weekday, true
	}
}

// trailingWindow keeps buckets whose date falls within windowDays of the
// latest bucket. windowDays <= 0 keeps everything.
func trailingWindow(buckets []DailyBucket, windowDays int) []DailyBucket {
	if windowDays <= 0 || len(buckets) == 0 {
		return buckets
	}
	cutoff := buckets[len(buckets)-1].Date.AddDate(0, 0, -(windowDays - 1))
	for i := range buckets {
		if !buckets[i].Date.Before(cutoff) {
			return buckets[i:]
		}
	}
	return buckets[:0]
}
