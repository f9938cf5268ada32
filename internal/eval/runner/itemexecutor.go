package runner

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/observer"
)

// itemExecutor drives one item through its lifecycle under the job's permit
// pool. It is the only writer of its item's state; item failures are
// recorded on the state and never propagated.
type itemExecutor struct {
	job      *domain.Job
	runId    string
	sem      *semaphore.Weighted
	observer observer.Observer
	clock    util.Clock
}

func (e *itemExecutor) run(ctx context.Context, index int, state *domain.ItemState) {
	// The run context threads through the permit acquire, so cancelling the
	// run releases items that have not started yet. They are recorded as
	// errors rather than left pending.
	if err := e.sem.Acquire(ctx, 1); err != nil {
		state.MarkError(e.clock.Now(), err)
		e.observer.OnItemError(e.job.Id, index, err)
		return
	}
	defer e.sem.Release(1)

	state.MarkRunning(e.clock.Now())
	e.observer.OnItemStart(e.job.Id, index)

	itemCtx, cancel := context.WithTimeout(ctx, e.job.ItemTimeout)
	defer cancel()

	item := e.job.Items[index]
	output, err := e.job.Task.Invoke(itemCtx, item, domain.InvocationContext{
		RunId:     e.runId,
		JobId:     e.job.Id,
		JobName:   e.job.Name,
		ItemIndex: index,
	})
	if err != nil {
		state.MarkError(e.clock.Now(), err)
		e.observer.OnItemError(e.job.Id, index, err)
		return
	}
	state.Output = output

	// Metrics are independently fallible: a failing metric degrades its own
	// score and the item still completes.
	for _, metric := range e.job.Metrics {
		value, err := metric.Compute(itemCtx, output, item.Expected, item.Input)
		var score domain.Score
		if err != nil {
			score = domain.Score{Err: err.Error()}
		} else {
			score = domain.Score{Value: value}
		}
		state.Scores[metric.Name()] = score
		e.observer.OnMetricResult(e.job.Id, index, metric.Name(), score)
	}

	state.MarkCompleted(e.clock.Now())
	e.observer.OnItemComplete(e.job.Id, index, state.RunTime)
}
