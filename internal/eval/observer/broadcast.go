package observer

import (
	"time"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/hub"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

// BroadcastObserver serializes lifecycle events and forwards them to the
// hub for the event's job id. Delivery is best-effort: the hub queues each
// event per connection and its writers do the actual I/O, so hooks only ever
// pay for the enqueue and never wait on a subscriber.
type BroadcastObserver struct {
	hub *hub.Hub
}

func NewBroadcastObserver(h *hub.Hub) *BroadcastObserver {
	return &BroadcastObserver{hub: h}
}

func (o *BroadcastObserver) OnJobStart(jobId, jobName string, totalItems int, metricNames []string) {
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventStatus, map[string]interface{}{
		"job_name":     jobName,
		"total_items":  totalItems,
		"metric_names": metricNames,
		"status":       "started",
	}))
}

func (o *BroadcastObserver) OnItemStart(jobId string, itemIndex int) {
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventProgress, map[string]interface{}{
		"item":   itemIndex,
		"status": string(domain.ItemRunning),
	}))
}

func (o *BroadcastObserver) OnMetricResult(jobId string, itemIndex int, metricName string, score domain.Score) {
	payload := map[string]interface{}{
		"item":   itemIndex,
		"metric": metricName,
		"value":  score.Value,
	}
	if score.Err != "" {
		payload["error"] = score.Err
	}
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventMetric, payload))
}

func (o *BroadcastObserver) OnItemComplete(jobId string, itemIndex int, runTime time.Duration) {
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventProgress, map[string]interface{}{
		"item":        itemIndex,
		"status":      string(domain.ItemCompleted),
		"run_time_ms": runTime.Milliseconds(),
	}))
}

func (o *BroadcastObserver) OnItemError(jobId string, itemIndex int, err error) {
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventError, map[string]interface{}{
		"item":  itemIndex,
		"error": err.Error(),
	}))
}

func (o *BroadcastObserver) OnJobComplete(jobId string, result *domain.JobResult) {
	o.hub.BroadcastToJob(jobId, api.NewEvent(jobId, api.EventCompleted, map[string]interface{}{
		"job_name":  result.JobName,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"elapsed":   result.Elapsed.String(),
	}))
}
