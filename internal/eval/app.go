// Package eval wires the evaluation engine together: spec loading, the
// coordinator, the dashboard aggregate and renderer, and the subscriber hub.
package eval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/faisalx96/llm-eval-sub000/internal/common"
	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/build"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/configuration"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/coordinator"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/dashboard"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/datasource"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/hub"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/observer"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/serve"
)

// App ties the engine's components together for one process.
type App struct {
	Config *configuration.EvalConfig
	// Out is used to write the output. Defaults to standard out, but can be
	// overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Metrics available to job specs, by name.
	Metrics map[string]domain.Metric
	// NewTask builds the task capability for each expanded job.
	NewTask coordinator.TaskFactory
	// Resolver backing dataset references. Defaults to a file resolver
	// rooted at Config.DatasetsDir.
	Resolver datasource.Resolver
}

func New(config *configuration.EvalConfig) *App {
	return &App{
		Config:  config,
		Out:     os.Stdout,
		Metrics: map[string]domain.Metric{},
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Run executes every job spec in the given files and blocks until the batch
// finishes. Returns the batch's aggregate error, if any, after printing
// per-job summaries.
func (a *App) Run(ctx context.Context, specFiles []string) error {
	if a.NewTask == nil {
		return errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "NewTask",
			Value:   nil,
			Message: "no task factory configured",
		})
	}

	var specs []*domain.JobSpec
	for _, path := range specFiles {
		loaded, err := domain.LoadSpecsFile(path)
		if err != nil {
			return err
		}
		specs = append(specs, loaded...)
	}

	if a.Config.MetricsPort != 0 {
		shutdownMetricServer := common.ServeMetrics(a.Config.MetricsPort)
		defer shutdownMetricServer()
	}

	aggregator := dashboard.NewAggregator()

	h := hub.New(hub.Config{
		MaxConnections: a.Config.Hub.MaxConnections,
		ErrorCeiling:   a.Config.Hub.ErrorCeiling,
		StaleAfter:     a.Config.Hub.StaleAfter,
		MaxAge:         a.Config.Hub.MaxAge,
		SweepInterval:  a.Config.Hub.SweepInterval,
		SendBuffer:     a.Config.Hub.SendBuffer,
	})
	h.Start()
	defer h.Shutdown()

	if a.Config.HttpPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/subscribe", serve.NewSubscriberServer(h, aggregator))
		shutdownSubscriberServer := common.ServeHttp(a.Config.HttpPort, mux)
		defer shutdownSubscriberServer()
	}

	resolver := a.Resolver
	if resolver == nil {
		resolver = datasource.NewFileResolver(a.Config.DatasetsDir)
	}

	coord := coordinator.New(datasource.NewRegistry(resolver), a.Metrics, a.NewTask)
	coord.MaxParallelJobs = a.Config.MaxParallelJobs
	coord.Observer = observer.NewComposite(
		observer.NewDashboardObserver(aggregator),
		observer.NewBroadcastObserver(h),
	)

	// Renderer goroutine, cancelled once the batch is done.
	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, renderCtx := errgroup.WithContext(renderCtx)
	renderer := dashboard.NewRenderer(aggregator, a.Config.RefreshInterval)
	renderer.Out = a.Out
	g.Go(func() error { return renderer.Run(renderCtx) })

	results, runErr := coord.Run(ctx, specs)
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Error("renderer failure")
	}

	a.printSummary(results, runErr)
	return runErr
}

func (a *App) printSummary(results []*domain.JobResult, runErr error) {
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	for _, result := range results {
		fmt.Fprintf(w, "%s\ttotal: %d\tsucceeded: %d\tfailed: %d\telapsed: %s\n",
			result.JobName, result.Total, result.Succeeded, result.Failed, result.Elapsed.Round(time.Millisecond))
	}
	w.Flush()
	for _, name := range evalerrors.FailedJobNames(runErr) {
		fmt.Fprintf(a.Out, "job %q failed\n", name)
	}
}
