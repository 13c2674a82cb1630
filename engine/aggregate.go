package engine

import (
	"sort"
	"time"

	"github.com/Laisky/errors/v2"
)

// Aggregate rolls usage events into one DailyBucket per distinct UTC calendar
// day, sorted ascending by date with cumulative sums threaded through in date
// order. Events must belong to a single workspace; mixed input fails with
// ErrWorkspaceMismatch. With opts.FillGaps set, days without events between the
// first and last observed day are emitted as zero-credit buckets. Either way a
// missing day contributes zero to the cumulative sum.
func Aggregate(events []UsageEvent, opts AggregateOptions) ([]DailyBucket, error) {
	if len(events) == 0 {
		return []DailyBucket{}, nil
	}

	workspaceID := events[0].WorkspaceID
	totals := make(map[time.Time]float64, len(events)/4+1)
	for i := range events {
		if events[i].WorkspaceID != workspaceID {
			return nil, errors.Wrapf(ErrWorkspaceMismatch,
				"got events for both %q and %q", workspaceID, events[i].WorkspaceID)
		}
		day := dayOf(events[i].Timestamp)
		totals[day] += events[i].CreditsConsumed
	}

	return bucketize(workspaceID, totals, opts.FillGaps), nil
}

// DayTotal is a pre-aggregated per-day credit total, as produced by a
// data-access layer that rolls events up in the database.
type DayTotal struct {
	Date    time.Time
	Credits float64
}

// BucketsFromTotals builds DailyBuckets from pre-aggregated per-day totals,
// for callers that aggregate in their storage layer and only need the
// cumulative threading and gap handling. Totals must all belong to one
// workspace; ordering does not matter.
func BucketsFromTotals(workspaceID string, totals []DayTotal, fillGaps bool) []DailyBucket {
	byDay := make(map[time.Time]float64, len(totals))
	for i := range totals {
		byDay[dayOf(totals[i].Date)] += totals[i].Credits
	}
	return bucketize(workspaceID, byDay, fillGaps)
}

func bucketize(workspaceID string, totals map[time.Time]float64, fillGaps bool) []DailyBucket {
	if len(totals) == 0 {
		return []DailyBucket{}
	}

	days := make([]time.Time, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if fillGaps {
		for day := days[0]; day.Before(days[len(days)-1]); day = day.AddDate(0, 0, 1) {
			if _, ok := totals[day]; !ok {
				totals[day] = 0
			}
		}
		days = days[:0]
		for day := range totals {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	}

	buckets := make([]DailyBucket, 0, len(days))
	cumulative := 0.0
	for _, day := range days {
		cumulative += totals[day]
		buckets = append(buckets, DailyBucket{
			Date:                    day,
			WorkspaceID:             workspaceID,
			CreditsTotal:            totals[day],
			CumulativeCreditsToDate: cumulative,
		})
	}
	return buckets
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
