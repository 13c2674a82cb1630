package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		buckets, err := Aggregate(nil, AggregateOptions{})
		require.NoError(t, err)
		assert.Empty(t, buckets)
	})

	t.Run("sum preservation and cumulative invariant", func(t *testing.T) {
		events := []UsageEvent{
			{Timestamp: day(2025, 3, 5).Add(10 * time.Hour), WorkspaceID: "ws-1", CreditsConsumed: 12.5},
			{Timestamp: day(2025, 3, 3).Add(2 * time.Hour), WorkspaceID: "ws-1", CreditsConsumed: 7.5},
			{Timestamp: day(2025, 3, 3).Add(20 * time.Hour), WorkspaceID: "ws-1", CreditsConsumed: 2.0},
			{Timestamp: day(2025, 3, 7), WorkspaceID: "ws-1", CreditsConsumed: 30.0},
		}
		buckets, err := Aggregate(events, AggregateOptions{})
		require.NoError(t, err)
		require.Len(t, buckets, 3)

		var bucketSum, eventSum float64
		for _, b := range buckets {
			bucketSum += b.CreditsTotal
		}
		for _, e := range events {
			eventSum += e.CreditsConsumed
		}
		assert.InDelta(t, eventSum, bucketSum, 1e-9)

		assert.Equal(t, day(2025, 3, 3), buckets[0].Date)
		assert.Equal(t, day(2025, 3, 5), buckets[1].Date)
		assert.Equal(t, day(2025, 3, 7), buckets[2].Date)

		assert.InDelta(t, buckets[0].CreditsTotal, buckets[0].CumulativeCreditsToDate, 1e-9)
		for i := 1; i < len(buckets); i++ {
			assert.InDelta(t, buckets[i-1].CumulativeCreditsToDate+buckets[i].CreditsTotal,
				buckets[i].CumulativeCreditsToDate, 1e-9)
		}
	})

	t.Run("gap filling inserts zero days", func(t *testing.T) {
		events := []UsageEvent{
			{Timestamp: day(2025, 3, 1), WorkspaceID: "ws-1", CreditsConsumed: 10},
			{Timestamp: day(2025, 3, 4), WorkspaceID: "ws-1", CreditsConsumed: 5},
		}
		buckets, err := Aggregate(events, AggregateOptions{FillGaps: true})
		require.NoError(t, err)
		require.Len(t, buckets, 4)
		assert.Zero(t, buckets[1].CreditsTotal)
		assert.Zero(t, buckets[2].CreditsTotal)
		assert.InDelta(t, 10.0, buckets[2].CumulativeCreditsToDate, 1e-9)
		assert.InDelta(t, 15.0, buckets[3].CumulativeCreditsToDate, 1e-9)
	})

	t.Run("cumulative sum unchanged with or without gaps", func(t *testing.T) {
		events := []UsageEvent{
			{Timestamp: day(2025, 3, 1), WorkspaceID: "ws-1", CreditsConsumed: 10},
			{Timestamp: day(2025, 3, 10), WorkspaceID: "ws-1", CreditsConsumed: 20},
		}
		sparse, err := Aggregate(events, AggregateOptions{})
		require.NoError(t, err)
		filled, err := Aggregate(events, AggregateOptions{FillGaps: true})
		require.NoError(t, err)
		assert.InDelta(t, sparse[len(sparse)-1].CumulativeCreditsToDate,
			filled[len(filled)-1].CumulativeCreditsToDate, 1e-9)
	})

	t.Run("mixed workspaces rejected", func(t *testing.T) {
		events := []UsageEvent{
			{Timestamp: day(2025, 3, 1), WorkspaceID: "ws-1", CreditsConsumed: 1},
			{Timestamp: day(2025, 3, 1), WorkspaceID: "ws-2", CreditsConsumed: 1},
		}
		_, err := Aggregate(events, AggregateOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrWorkspaceMismatch)
	})

	t.Run("timezone folds into UTC day", func(t *testing.T) {
		loc := time.FixedZone("UTC+8", 8*3600)
		events := []UsageEvent{
			// 02:00 on March 2 in UTC+8 is still March 1 in UTC.
			{Timestamp: time.Date(2025, 3, 2, 2, 0, 0, 0, loc), WorkspaceID: "ws-1", CreditsConsumed: 3},
		}
		buckets, err := Aggregate(events, AggregateOptions{})
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, day(2025, 3, 1), buckets[0].Date)
	})
}
