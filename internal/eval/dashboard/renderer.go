package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// Renderer periodically prints a summary of the aggregate. It runs on its
// own ticker: observer hooks only mutate the aggregate and never wait on
// rendering.
type Renderer struct {
	Out        io.Writer
	aggregator *Aggregator
	interval   time.Duration
}

func NewRenderer(aggregator *Aggregator, interval time.Duration) *Renderer {
	return &Renderer{
		Out:        os.Stdout,
		aggregator: aggregator,
		interval:   interval,
	}
}

// Run renders until ctx is cancelled, then renders one final summary.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Render()
			return ctx.Err()
		case <-ticker.C:
			r.Render()
		}
	}
}

// Render writes one summary line per job.
func (r *Renderer) Render() {
	views := r.aggregator.Snapshot()
	if len(views) == 0 {
		return
	}
	w := tabwriter.NewWriter(r.Out, 1, 1, 2, ' ', 0)
	defer w.Flush()
	for i := range views {
		view := &views[i]
		fmt.Fprintf(w, "%s\t%d/%d\trunning: %d\tfailed: %d\tavg: %s\t%s\n",
			view.JobName,
			view.Finished(), view.Total,
			view.StatusCounts[domain.ItemRunning],
			view.StatusCounts[domain.ItemError],
			view.Latency.Mean().Round(time.Millisecond),
			metricSummary(view),
		)
	}
	fmt.Fprintln(r.Out)
}

func metricSummary(view *JobView) string {
	s := ""
	for _, name := range view.MetricNames {
		mean, ok := view.MetricMean(name)
		if !ok {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%s: %.3f", name, mean)
	}
	return s
}
