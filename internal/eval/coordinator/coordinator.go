// Package coordinator fans a batch of job specs out into concurrently
// running jobs, sharing read-only resolved datasets across them and
// aggregating per-job failures without ever cancelling sibling jobs.
package coordinator

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/datasource"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/observer"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/runner"
)

// TaskFactory builds the task capability for one job. target is nil for
// specs without target variants.
type TaskFactory func(target *domain.TargetSpec) (interface{}, error)

// Coordinator expands specs, resolves shared datasets once, launches every
// job concurrently and aggregates outcomes.
type Coordinator struct {
	// Registry resolves dataset references. Required for specs that
	// reference datasets by name.
	Registry *datasource.Registry
	// Metrics available to specs, looked up by name.
	Metrics map[string]domain.Metric
	// NewTask builds the task for each expanded job.
	NewTask TaskFactory
	// MaxParallelJobs gates how many jobs run simultaneously; zero or
	// negative means unbounded. Independent of each job's own item-level
	// permit pool.
	MaxParallelJobs int
	// Observer shared by every job's runner.
	Observer observer.Observer
}

func New(registry *datasource.Registry, metrics map[string]domain.Metric, newTask TaskFactory) *Coordinator {
	return &Coordinator{
		Registry: registry,
		Metrics:  metrics,
		NewTask:  newTask,
		Observer: observer.NullObserver{},
	}
}

// Run executes the batch. It always returns the results of every job that
// completed without a fatal error; if one or more jobs failed fatally the
// returned error is a multierror enumerating each failed job by name.
func (c *Coordinator) Run(ctx context.Context, specs []*domain.JobSpec) ([]*domain.JobResult, error) {
	if len(specs) == 0 {
		return nil, errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Specs",
			Value:   specs,
			Message: "no job specs provided",
		})
	}
	expanded := expandSpecs(specs)
	runId := util.NewULID()
	log.WithField("run", runId).
		WithField("specs", len(specs)).
		WithField("jobs", len(expanded)).
		Info("starting batch")

	// Resolve every distinct dataset reference exactly once up front. The
	// resolved handles are read-only and shared across jobs; a failed
	// resolution fails only the jobs referencing that dataset.
	handles, resolveErrs := c.resolveDatasets(ctx, expanded)

	var jobSem *semaphore.Weighted
	if c.MaxParallelJobs > 0 {
		jobSem = semaphore.NewWeighted(int64(c.MaxParallelJobs))
	}

	var (
		mu      sync.Mutex
		results []*domain.JobResult
		agg     *multierror.Error
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		agg = multierror.Append(agg, &evalerrors.JobFailedError{JobName: name, Err: err})
	}

	var wg sync.WaitGroup
	for _, e := range expanded {
		job, err := c.buildJob(e, handles, resolveErrs)
		if err != nil {
			fail(e.name, err)
			continue
		}
		wg.Add(1)
		go func(name string, job *domain.Job) {
			defer wg.Done()
			if jobSem != nil {
				if err := jobSem.Acquire(ctx, 1); err != nil {
					fail(name, err)
					return
				}
				defer jobSem.Release(1)
			}
			r := runner.New(c.Observer)
			r.RunId = runId
			result, err := r.Run(ctx, job)
			if err != nil {
				fail(name, err)
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(e.name, job)
	}
	wg.Wait()

	err := agg.ErrorOrNil()
	if err != nil {
		log.WithField("run", runId).
			WithField("failed", len(agg.Errors)).
			Warn("batch finished with failed jobs")
	}
	return results, err
}

// resolveDatasets resolves each distinct dataset name once, recording
// per-name outcomes for buildJob to consult.
func (c *Coordinator) resolveDatasets(ctx context.Context, expanded []*expandedSpec) (map[string]*datasource.Handle, map[string]error) {
	handles := map[string]*datasource.Handle{}
	resolveErrs := map[string]error{}
	for _, e := range expanded {
		name := e.spec.Dataset
		if name == "" {
			continue
		}
		if _, done := handles[name]; done {
			continue
		}
		if _, failed := resolveErrs[name]; failed {
			continue
		}
		if c.Registry == nil {
			resolveErrs[name] = errors.WithStack(&evalerrors.ErrInvalidArgument{
				Name:    "Registry",
				Value:   nil,
				Message: "spec references a dataset but no registry is configured",
			})
			continue
		}
		handle, err := c.Registry.Resolve(ctx, name)
		if err != nil {
			resolveErrs[name] = err
			continue
		}
		handles[name] = handle
	}
	return handles, resolveErrs
}

func (c *Coordinator) buildJob(e *expandedSpec, handles map[string]*datasource.Handle, resolveErrs map[string]error) (*domain.Job, error) {
	items := e.spec.Items
	if e.spec.Dataset != "" {
		if err, failed := resolveErrs[e.spec.Dataset]; failed {
			return nil, err
		}
		items = handles[e.spec.Dataset].Items()
	}

	metrics := make([]domain.Metric, 0, len(e.spec.Metrics))
	for _, name := range e.spec.Metrics {
		metric, ok := c.Metrics[name]
		if !ok {
			return nil, errors.WithStack(&evalerrors.ErrNotFound{Type: "metric", Value: name})
		}
		metrics = append(metrics, metric)
	}

	opts, err := e.spec.DecodeOptions()
	if err != nil {
		return nil, err
	}

	task, err := c.NewTask(e.target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build task")
	}
	return domain.NewJob(e.name, items, metrics, task, opts)
}
