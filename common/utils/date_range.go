package utils

import (
	"time"

	"github.com/Laisky/errors/v2"
)

const dateLayout = "2006-01-02"

// NormalizeDateRange parses inclusive date strings (YYYY-MM-DD) and returns
// a half-open [start, endExclusive) Unix second range in UTC.
// It validates that from <= to and enforces maxDays (inclusive day count) if >0.
func NormalizeDateRange(fromStr, toStr string, maxDays int) (int64, int64, error) {
	fromDate, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid from_date format, expected YYYY-MM-DD")
	}
	toDate, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid to_date format, expected YYYY-MM-DD")
	}

	fromDay := time.Date(fromDate.Year(), fromDate.Month(), fromDate.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(toDate.Year(), toDate.Month(), toDate.Day(), 0, 0, 0, 0, time.UTC)

	if toDay.Before(fromDay) {
		return 0, 0, errors.New("from_date must be before to_date")
	}

	inclusiveDays := int(toDay.Sub(fromDay).Hours()/24) + 1
	if maxDays > 0 && inclusiveDays > maxDays {
		return 0, 0, errors.Errorf("date range too large, maximum allowed: %d days", maxDays)
	}

	return fromDay.Unix(), toDay.Add(24 * time.Hour).Unix(), nil
}

// TrailingDayRange returns the half-open [start, endExclusive) Unix second range
// covering the `days` full UTC calendar days ending with (and including) the day
// that contains asOf.
func TrailingDayRange(asOf time.Time, days int) (int64, int64) {
	u := asOf.UTC()
	dayEnd := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return dayEnd.AddDate(0, 0, -days).Unix(), dayEnd.Unix()
}
