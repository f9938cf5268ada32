// Package observer defines the lifecycle hook sink notified of job and item
// events, and its concrete variants. Hooks are called inline by executors and
// runners, so implementations must return quickly: anything expensive
// (rendering, network writes with unbounded blocking) belongs on a separate
// refresh cycle, not inside the hook.
package observer

import (
	"time"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// Observer receives job and item lifecycle events.
type Observer interface {
	OnJobStart(jobId, jobName string, totalItems int, metricNames []string)
	OnItemStart(jobId string, itemIndex int)
	OnMetricResult(jobId string, itemIndex int, metricName string, score domain.Score)
	OnItemComplete(jobId string, itemIndex int, runTime time.Duration)
	OnItemError(jobId string, itemIndex int, err error)
	OnJobComplete(jobId string, result *domain.JobResult)
}

// NullObserver discards all events. Used for jobs that need no live
// reporting.
type NullObserver struct{}

func (NullObserver) OnJobStart(string, string, int, []string)              {}
func (NullObserver) OnItemStart(string, int)                               {}
func (NullObserver) OnMetricResult(string, int, string, domain.Score)      {}
func (NullObserver) OnItemComplete(string, int, time.Duration)             {}
func (NullObserver) OnItemError(string, int, error)                        {}
func (NullObserver) OnJobComplete(string, *domain.JobResult)               {}

// Composite forwards every event to each child in order.
type Composite struct {
	children []Observer
}

func NewComposite(children ...Observer) *Composite {
	return &Composite{children: children}
}

func (c *Composite) OnJobStart(jobId, jobName string, totalItems int, metricNames []string) {
	for _, child := range c.children {
		child.OnJobStart(jobId, jobName, totalItems, metricNames)
	}
}

func (c *Composite) OnItemStart(jobId string, itemIndex int) {
	for _, child := range c.children {
		child.OnItemStart(jobId, itemIndex)
	}
}

func (c *Composite) OnMetricResult(jobId string, itemIndex int, metricName string, score domain.Score) {
	for _, child := range c.children {
		child.OnMetricResult(jobId, itemIndex, metricName, score)
	}
}

func (c *Composite) OnItemComplete(jobId string, itemIndex int, runTime time.Duration) {
	for _, child := range c.children {
		child.OnItemComplete(jobId, itemIndex, runTime)
	}
}

func (c *Composite) OnItemError(jobId string, itemIndex int, err error) {
	for _, child := range c.children {
		child.OnItemError(jobId, itemIndex, err)
	}
}

func (c *Composite) OnJobComplete(jobId string, result *domain.JobResult) {
	for _, child := range c.children {
		child.OnJobComplete(jobId, result)
	}
}
