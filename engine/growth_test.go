package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatBuckets builds `days` consecutive daily buckets ending the day before
// asOf, each carrying `credits`.
func flatBuckets(start time.Time, days int, credits float64) []DailyBucket {
	buckets := make([]DailyBucket, 0, days)
	cumulative := 0.0
	for i := 0; i < days; i++ {
		cumulative += credits
		buckets = append(buckets, DailyBucket{
			Date:                    start.AddDate(0, 0, i),
			WorkspaceID:             "ws-1",
			CreditsTotal:            credits,
			CumulativeCreditsToDate: cumulative,
		})
	}
	return buckets
}

func TestGrowth(t *testing.T) {
	t.Run("doubling yields 100 percent", func(t *testing.T) {
		buckets := flatBuckets(day(2025, 3, 1), 7, 100)
		buckets = append(buckets, flatBuckets(day(2025, 3, 8), 7, 200)...)
		rates, err := Growth(buckets)
		require.NoError(t, err)
		require.NotNil(t, rates.Weekly)
		assert.InDelta(t, 100.0, *rates.Weekly, 1e-9)
	})

	t.Run("zero previous period yields zero not infinity", func(t *testing.T) {
		buckets := []DailyBucket{
			{Date: day(2025, 3, 1), CreditsTotal: 0},
			{Date: day(2025, 3, 2), CreditsTotal: 500},
		}
		rates, err := Growth(buckets)
		require.NoError(t, err)
		require.NotNil(t, rates.Daily)
		assert.Zero(t, *rates.Daily)
	})

	t.Run("partial history degrades to nil windows", func(t *testing.T) {
		buckets := flatBuckets(day(2025, 3, 1), 20, 100)
		rates, err := Growth(buckets)
		require.NoError(t, err)
		assert.NotNil(t, rates.Daily)
		assert.NotNil(t, rates.Weekly)
		assert.Nil(t, rates.Monthly, "20 days cannot support a 30-day comparison")
	})

	t.Run("single bucket reports insufficient history", func(t *testing.T) {
		rates, err := Growth(flatBuckets(day(2025, 3, 1), 1, 100))
		assert.ErrorIs(t, err, ErrInsufficientHistory)
		assert.Nil(t, rates.Daily)
		assert.Nil(t, rates.Weekly)
		assert.Nil(t, rates.Monthly)
	})

	t.Run("monthly window with full history", func(t *testing.T) {
		buckets := flatBuckets(day(2025, 1, 1), 30, 100)
		buckets = append(buckets, flatBuckets(day(2025, 1, 31), 30, 150)...)
		rates, err := Growth(buckets)
		require.NoError(t, err)
		require.NotNil(t, rates.Monthly)
		assert.InDelta(t, 50.0, *rates.Monthly, 1e-9)
	})
}
