package domain

import (
	"time"

	"github.com/pkg/errors"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
)

const (
	DefaultConcurrency = 10
	DefaultItemTimeout = 60 * time.Second
)

// Options are the per-job knobs carried on a JobSpec.
type Options struct {
	// Maximum number of items in flight at once.
	Concurrency int `mapstructure:"concurrency"`
	// Timeout applied to each item independently.
	ItemTimeout time.Duration `mapstructure:"itemTimeout"`
	// Free-form labels propagated to results.
	Tags map[string]string `mapstructure:"tags"`
}

func DefaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		ItemTimeout: DefaultItemTimeout,
	}
}

// Job is one evaluation unit: an ordered item set, a metric set and a bound
// task, plus concurrency limits. A Job is owned by exactly one runner and is
// never shared.
type Job struct {
	Id          string
	Name        string
	Items       []Item
	Metrics     []Metric
	Task        *BoundTask
	Concurrency int
	ItemTimeout time.Duration
	Tags        map[string]string
}

// NewJob validates inputs, binds the task's argument strategy and assigns a
// fresh job id.
func NewJob(name string, items []Item, metrics []Metric, task interface{}, opts Options) (*Job, error) {
	if name == "" {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Name",
			Value:   name,
			Message: "not provided",
		})
	}
	if len(items) == 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Items",
			Value:   items,
			Message: "no items provided",
		})
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	bound, err := BindTask(task)
	if err != nil {
		return nil, err
	}
	return &Job{
		Id:          util.NewULID(),
		Name:        name,
		Items:       items,
		Metrics:     metrics,
		Task:        bound,
		Concurrency: opts.Concurrency,
		ItemTimeout: opts.ItemTimeout,
		Tags:        opts.Tags,
	}, nil
}

// MetricNames returns the names of the job's metrics in declaration order.
func (j *Job) MetricNames() []string {
	names := make([]string, len(j.Metrics))
	for i, m := range j.Metrics {
		names[i] = m.Name()
	}
	return names
}

// JobResult is the immutable snapshot produced once per job at completion.
// Items are indexed by their original position, not completion order.
type JobResult struct {
	JobId       string                 `json:"job_id"`
	JobName     string                 `json:"job_name"`
	Total       int                    `json:"total"`
	Succeeded   int                    `json:"succeeded"`
	Failed      int                    `json:"failed"`
	Items       []ItemState            `json:"items"`
	MetricStats map[string]MetricStats `json:"metric_stats"`
	Tags        map[string]string      `json:"tags,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
	Elapsed     time.Duration          `json:"elapsed"`
}
