// Package dashboard maintains the in-memory per-job visual aggregate mutated
// by the dashboard observer and rendered by a collaborator on its own
// refresh cadence. The aggregate is an explicit map keyed by job id owned by
// an Aggregator instance, not process-global state.
package dashboard

import (
	"sync"
	"time"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// LatencyStats tracks per-item run time for one job.
type LatencyStats struct {
	Count int
	Sum   time.Duration
	Min   time.Duration
	Max   time.Duration
}

func (s *LatencyStats) observe(d time.Duration) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Count++
	s.Sum += d
}

// Mean returns the average item run time, zero when nothing completed yet.
func (s LatencyStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / time.Duration(s.Count)
}

type runningMean struct {
	count int
	sum   float64
}

// JobView is the visual aggregate of one job. Created at the job-start hook,
// flagged done at the job-complete hook, and retained so late-attaching
// renderers still see finished jobs.
type JobView struct {
	JobId       string
	JobName     string
	Total       int
	MetricNames []string

	StatusCounts map[domain.ItemStatus]int
	Latency      LatencyStats
	metricMeans  map[string]*runningMean

	Done   bool
	Result *domain.JobResult
}

// MetricMean returns the running average of a metric's valid scores.
func (v *JobView) MetricMean(name string) (float64, bool) {
	m, ok := v.metricMeans[name]
	if !ok || m.count == 0 {
		return 0, false
	}
	return m.sum / float64(m.count), true
}

func (v *JobView) Finished() int {
	return v.StatusCounts[domain.ItemCompleted] + v.StatusCounts[domain.ItemError]
}

// Aggregator keeps one JobView per job. All mutation happens under one
// mutex; every hook does O(1) work so callers are never blocked on
// rendering.
type Aggregator struct {
	mu    sync.Mutex
	jobs  map[string]*JobView
	order []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{jobs: map[string]*JobView{}}
}

func (a *Aggregator) JobStarted(jobId, jobName string, total int, metricNames []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.jobs[jobId]; exists {
		return
	}
	view := &JobView{
		JobId:        jobId,
		JobName:      jobName,
		Total:        total,
		MetricNames:  metricNames,
		StatusCounts: map[domain.ItemStatus]int{domain.ItemPending: total},
		metricMeans:  map[string]*runningMean{},
	}
	a.jobs[jobId] = view
	a.order = append(a.order, jobId)
}

func (a *Aggregator) ItemStarted(jobId string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view, ok := a.jobs[jobId]; ok {
		view.StatusCounts[domain.ItemPending]--
		view.StatusCounts[domain.ItemRunning]++
	}
}

func (a *Aggregator) ItemCompleted(jobId string, runTime time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view, ok := a.jobs[jobId]; ok {
		view.StatusCounts[domain.ItemRunning]--
		view.StatusCounts[domain.ItemCompleted]++
		view.Latency.observe(runTime)
	}
}

func (a *Aggregator) ItemFailed(jobId string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view, ok := a.jobs[jobId]; ok {
		// Items can fail without ever starting, e.g. when a run is
		// cancelled before the permit is acquired.
		if view.StatusCounts[domain.ItemRunning] > 0 {
			view.StatusCounts[domain.ItemRunning]--
		} else {
			view.StatusCounts[domain.ItemPending]--
		}
		view.StatusCounts[domain.ItemError]++
	}
}

func (a *Aggregator) MetricResult(jobId, metricName string, score domain.Score) {
	if score.Err != "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if view, ok := a.jobs[jobId]; ok {
		mean, exists := view.metricMeans[metricName]
		if !exists {
			mean = &runningMean{}
			view.metricMeans[metricName] = mean
		}
		mean.count++
		mean.sum += score.Value
	}
}

func (a *Aggregator) JobCompleted(jobId string, result *domain.JobResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if view, ok := a.jobs[jobId]; ok {
		view.Done = true
		view.Result = result
	}
}

// Snapshot returns copies of every JobView in job-start order, safe to read
// while jobs keep mutating the aggregate.
func (a *Aggregator) Snapshot() []JobView {
	a.mu.Lock()
	defer a.mu.Unlock()
	views := make([]JobView, 0, len(a.order))
	for _, jobId := range a.order {
		view := *a.jobs[jobId]
		view.StatusCounts = make(map[domain.ItemStatus]int, len(a.jobs[jobId].StatusCounts))
		for k, v := range a.jobs[jobId].StatusCounts {
			view.StatusCounts[k] = v
		}
		means := make(map[string]*runningMean, len(a.jobs[jobId].metricMeans))
		for k, v := range a.jobs[jobId].metricMeans {
			c := *v
			means[k] = &c
		}
		view.metricMeans = means
		views = append(views, view)
	}
	return views
}
