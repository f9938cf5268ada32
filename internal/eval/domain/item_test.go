package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestItemStateTransitionsAreMonotonic(t *testing.T) {
	now := time.Now()
	state := NewItemState(0)
	assert.Equal(t, ItemPending, state.Status)

	// Cannot complete without running first.
	state.MarkCompleted(now)
	assert.Equal(t, ItemCompleted, state.Status)

	// Terminal states are sticky.
	state.MarkError(now, errors.New("boom"))
	assert.Equal(t, ItemCompleted, state.Status)
	assert.Empty(t, state.Error)
}

func TestItemStateRecordsRunTime(t *testing.T) {
	start := time.Now()
	state := NewItemState(3)
	state.MarkRunning(start)
	assert.Equal(t, ItemRunning, state.Status)

	state.MarkRunning(start.Add(time.Hour)) // no-op, already running
	assert.Equal(t, start, state.StartedAt)

	state.MarkError(start.Add(2*time.Second), errors.New("boom"))
	assert.Equal(t, ItemError, state.Status)
	assert.Equal(t, "boom", state.Error)
	assert.Equal(t, 2*time.Second, state.RunTime)
	assert.True(t, state.Terminal())
}

func TestComputeMetricStatsExcludesErroredScores(t *testing.T) {
	items := []ItemState{
		{Scores: map[string]Score{"accuracy": {Value: 1}}},
		{Scores: map[string]Score{"accuracy": {Value: 0}}},
		{Scores: map[string]Score{"accuracy": {Err: "scorer unavailable"}}},
	}
	stats := ComputeMetricStats(items, []string{"accuracy", "latency"})

	accuracy := stats["accuracy"]
	assert.Equal(t, 2, accuracy.Count)
	assert.Equal(t, 0.5, accuracy.Mean)
	assert.Equal(t, 0.0, accuracy.Min)
	assert.Equal(t, 1.0, accuracy.Max)

	latency := stats["latency"]
	assert.Equal(t, 0, latency.Count)
	assert.Equal(t, 0.0, latency.Mean)
}
