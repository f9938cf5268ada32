package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

func TestAggregatorTracksJobLifecycle(t *testing.T) {
	a := NewAggregator()
	a.JobStarted("job-1", "smoke", 3, []string{"match"})
	a.ItemStarted("job-1")
	a.ItemStarted("job-1")
	a.ItemCompleted("job-1", 100*time.Millisecond)
	a.MetricResult("job-1", "match", domain.Score{Value: 1})
	a.ItemFailed("job-1")

	views := a.Snapshot()
	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, "smoke", view.JobName)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 1, view.StatusCounts[domain.ItemPending])
	assert.Equal(t, 0, view.StatusCounts[domain.ItemRunning])
	assert.Equal(t, 1, view.StatusCounts[domain.ItemCompleted])
	assert.Equal(t, 1, view.StatusCounts[domain.ItemError])
	assert.Equal(t, 2, view.Finished())
	assert.Equal(t, 100*time.Millisecond, view.Latency.Mean())
	assert.False(t, view.Done)

	a.JobCompleted("job-1", &domain.JobResult{JobId: "job-1", Total: 3})
	views = a.Snapshot()
	assert.True(t, views[0].Done)
	require.NotNil(t, views[0].Result)
}

func TestAggregatorMetricRunningMean(t *testing.T) {
	a := NewAggregator()
	a.JobStarted("job-1", "smoke", 2, []string{"match"})
	a.MetricResult("job-1", "match", domain.Score{Value: 1})
	a.MetricResult("job-1", "match", domain.Score{Value: 0})
	// Errored scores never feed the running mean.
	a.MetricResult("job-1", "match", domain.Score{Err: "scorer unavailable"})

	view := a.Snapshot()[0]
	mean, ok := view.MetricMean("match")
	require.True(t, ok)
	assert.Equal(t, 0.5, mean)

	_, ok = view.MetricMean("latency")
	assert.False(t, ok)
}

func TestSnapshotIsIsolatedFromLaterMutation(t *testing.T) {
	a := NewAggregator()
	a.JobStarted("job-1", "smoke", 2, nil)
	snapshot := a.Snapshot()

	a.ItemStarted("job-1")
	assert.Equal(t, 2, snapshot[0].StatusCounts[domain.ItemPending])
}

func TestSnapshotPreservesStartOrder(t *testing.T) {
	a := NewAggregator()
	a.JobStarted("job-2", "b", 1, nil)
	a.JobStarted("job-1", "a", 1, nil)

	views := a.Snapshot()
	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].JobName)
	assert.Equal(t, "a", views[1].JobName)
}
