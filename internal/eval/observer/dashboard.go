package observer

import (
	"time"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/dashboard"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// DashboardObserver forwards lifecycle events into the in-memory visual
// aggregate. Every hook is an O(1) map update under the aggregator's lock;
// rendering happens elsewhere, on the renderer's own cadence.
type DashboardObserver struct {
	aggregator *dashboard.Aggregator
}

func NewDashboardObserver(aggregator *dashboard.Aggregator) *DashboardObserver {
	return &DashboardObserver{aggregator: aggregator}
}

func (o *DashboardObserver) OnJobStart(jobId, jobName string, totalItems int, metricNames []string) {
	o.aggregator.JobStarted(jobId, jobName, totalItems, metricNames)
}

func (o *DashboardObserver) OnItemStart(jobId string, itemIndex int) {
	o.aggregator.ItemStarted(jobId)
}

func (o *DashboardObserver) OnMetricResult(jobId string, itemIndex int, metricName string, score domain.Score) {
	o.aggregator.MetricResult(jobId, metricName, score)
}

func (o *DashboardObserver) OnItemComplete(jobId string, itemIndex int, runTime time.Duration) {
	o.aggregator.ItemCompleted(jobId, runTime)
}

func (o *DashboardObserver) OnItemError(jobId string, itemIndex int, err error) {
	o.aggregator.ItemFailed(jobId)
}

func (o *DashboardObserver) OnJobComplete(jobId string, result *domain.JobResult) {
	o.aggregator.JobCompleted(jobId, result)
}
