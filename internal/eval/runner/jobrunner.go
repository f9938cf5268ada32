// Package runner drives one job's items to completion under a bounded
// permit pool, reporting lifecycle events to an observer.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/observer"
)

// JobRunner owns one job's item set and drives one itemExecutor per item
// under a counting permit pool sized to the job's concurrency limit.
type JobRunner struct {
	// Observer notified of lifecycle events. Defaults to NullObserver.
	Observer observer.Observer
	// Clock used for timestamps. Overridable in tests.
	Clock util.Clock
	// Identifier of the run this job belongs to, passed into task
	// invocations for correlation.
	RunId string
}

func New(obs observer.Observer) *JobRunner {
	if obs == nil {
		obs = observer.NullObserver{}
	}
	return &JobRunner{
		Observer: obs,
		Clock:    &util.DefaultClock{},
		RunId:    util.NewULID(),
	}
}

// Run drives job to completion and returns its result. Individual item
// failures are recorded on the result, never returned as errors; only fatal
// conditions outside the per-item loop (nil job, unbound task) fail the run.
//
// No ordering is guaranteed between items, but the result indexes items by
// their original position. After Run returns, every item is terminal.
func (r *JobRunner) Run(ctx context.Context, job *domain.Job) (*domain.JobResult, error) {
	if job == nil {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Job",
			Value:   job,
			Message: "not provided",
		})
	}
	if job.Task == nil {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Task",
			Value:   job.Task,
			Message: "job has no bound task",
		})
	}
	if job.Concurrency <= 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Concurrency",
			Value:   job.Concurrency,
			Message: "concurrency limit must be positive",
		})
	}

	log.WithField("job", job.Name).
		WithField("items", len(job.Items)).
		WithField("concurrency", job.Concurrency).
		Info("starting job")

	states := make([]*domain.ItemState, len(job.Items))
	for i := range states {
		states[i] = domain.NewItemState(i)
	}

	r.Observer.OnJobStart(job.Id, job.Name, len(job.Items), job.MetricNames())
	startedAt := r.Clock.Now()

	sem := semaphore.NewWeighted(int64(job.Concurrency))
	var wg sync.WaitGroup
	for i := range job.Items {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			exec := &itemExecutor{
				job:      job,
				runId:    r.RunId,
				sem:      sem,
				observer: r.Observer,
				clock:    r.Clock,
			}
			exec.run(ctx, index, states[index])
		}(i)
	}
	wg.Wait()

	finishedAt := r.Clock.Now()
	result := r.collect(job, states, startedAt, finishedAt)
	r.Observer.OnJobComplete(job.Id, result)

	log.WithField("job", job.Name).
		WithField("succeeded", result.Succeeded).
		WithField("failed", result.Failed).
		Info("job complete")
	return result, nil
}

func (r *JobRunner) collect(job *domain.Job, states []*domain.ItemState, startedAt, finishedAt time.Time) *domain.JobResult {
	result := &domain.JobResult{
		JobId:      job.Id,
		JobName:    job.Name,
		Total:      len(states),
		Items:      make([]domain.ItemState, len(states)),
		Tags:       job.Tags,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Elapsed:    finishedAt.Sub(startedAt),
	}
	for i, state := range states {
		result.Items[i] = *state
		switch state.Status {
		case domain.ItemCompleted:
			result.Succeeded++
		case domain.ItemError:
			result.Failed++
		}
	}
	result.MetricStats = domain.ComputeMetricStats(result.Items, job.MetricNames())
	return result
}
