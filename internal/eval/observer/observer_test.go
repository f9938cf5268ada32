package observer

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/hub"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

type loggingObserver struct {
	name string
	log  *[]string
}

func (o *loggingObserver) OnJobStart(jobId, jobName string, totalItems int, metricNames []string) {
	*o.log = append(*o.log, o.name+":job_start:"+jobId)
}

func (o *loggingObserver) OnItemStart(jobId string, itemIndex int) {
	*o.log = append(*o.log, o.name+":item_start:"+jobId)
}

func (o *loggingObserver) OnMetricResult(jobId string, itemIndex int, metricName string, score domain.Score) {
	*o.log = append(*o.log, o.name+":metric:"+metricName)
}

func (o *loggingObserver) OnItemComplete(jobId string, itemIndex int, runTime time.Duration) {
	*o.log = append(*o.log, o.name+":item_complete:"+jobId)
}

func (o *loggingObserver) OnItemError(jobId string, itemIndex int, err error) {
	*o.log = append(*o.log, o.name+":item_error:"+jobId)
}

func (o *loggingObserver) OnJobComplete(jobId string, result *domain.JobResult) {
	*o.log = append(*o.log, o.name+":job_complete:"+jobId)
}

func TestCompositeForwardsToAllChildrenInOrder(t *testing.T) {
	var log []string
	composite := NewComposite(
		&loggingObserver{name: "first", log: &log},
		&loggingObserver{name: "second", log: &log},
	)

	composite.OnJobStart("job-1", "suite", 3, []string{"exact_match"})
	composite.OnItemStart("job-1", 0)
	composite.OnMetricResult("job-1", 0, "exact_match", domain.Score{Value: 1})
	composite.OnItemComplete("job-1", 0, time.Millisecond)
	composite.OnItemError("job-1", 1, errors.New("boom"))
	composite.OnJobComplete("job-1", &domain.JobResult{})

	assert.Equal(t, []string{
		"first:job_start:job-1", "second:job_start:job-1",
		"first:item_start:job-1", "second:item_start:job-1",
		"first:metric:exact_match", "second:metric:exact_match",
		"first:item_complete:job-1", "second:item_complete:job-1",
		"first:item_error:job-1", "second:item_error:job-1",
		"first:job_complete:job-1", "second:job_complete:job-1",
	}, log)
}

func TestBroadcastHooksDoNotBlockOnSubscriberIO(t *testing.T) {
	h := hub.New(hub.Config{})
	slow := hub.SenderFunc(func(*api.Event) error {
		time.Sleep(2 * time.Second)
		return nil
	})
	id, err := h.Attach(slow)
	require.NoError(t, err)
	require.NoError(t, h.Subscribe(id, "job-1"))

	obs := NewBroadcastObserver(h)
	start := time.Now()
	obs.OnItemStart("job-1", 0)
	// Hooks run inline in executors: they enqueue and return, never paying
	// for the subscriber's send.
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestCompositeWithNoChildren(t *testing.T) {
	composite := NewComposite()
	assert.NotPanics(t, func() {
		composite.OnJobStart("job-1", "suite", 1, nil)
		composite.OnJobComplete("job-1", nil)
	})
}
