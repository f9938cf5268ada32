package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

func discardSender() Sender {
	return SenderFunc(func(*api.Event) error { return nil })
}

// captureSender records delivered events for assertions on what actually
// reached a subscriber.
type captureSender struct {
	mu     sync.Mutex
	events []*api.Event
}

func (s *captureSender) Send(event *api.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSender) received() []*api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*api.Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestAttachCapacity(t *testing.T) {
	h := New(Config{MaxConnections: 1000})
	for i := 0; i < 1000; i++ {
		_, err := h.Attach(discardSender())
		require.NoError(t, err)
	}

	_, err := h.Attach(discardSender())
	require.Error(t, err)
	var capacityErr *evalerrors.ErrCapacityExceeded
	assert.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 1000, h.NumConnections())
}

func TestSendToDoesNotWaitOnSlowSubscribers(t *testing.T) {
	h := New(Config{})
	slow := SenderFunc(func(*api.Event) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	id, err := h.Attach(slow)
	require.NoError(t, err)
	require.NoError(t, h.Subscribe(id, "job-1"))

	start := time.Now()
	h.BroadcastToJob("job-1", api.NewEvent("job-1", api.EventProgress, nil))
	// Producers only pay for the enqueue; the writer does the actual send.
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSendFailureCrossesCeilingAndEvicts(t *testing.T) {
	h := New(Config{ErrorCeiling: 5})
	failing := SenderFunc(func(*api.Event) error { return errors.New("broken pipe") })
	id, err := h.Attach(failing)
	require.NoError(t, err)
	require.NoError(t, h.Subscribe(id, "job-1"))

	for i := 0; i < 5; i++ {
		h.SendTo(id, api.NewEvent("job-1", api.EventProgress, nil))
	}
	assert.Eventually(t, func() bool {
		return h.NumConnections() == 0
	}, 5*time.Second, 10*time.Millisecond)

	// The evicted connection no longer appears in any broadcast snapshot.
	assert.Empty(t, h.subscriberSnapshot("job-1"))
}

func TestFullOutboundQueueCountsTowardCeiling(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	entered := make(chan struct{}, 1)
	stuck := SenderFunc(func(*api.Event) error {
		entered <- struct{}{}
		<-release
		return nil
	})

	h := New(Config{ErrorCeiling: 3, SendBuffer: 1})
	id, err := h.Attach(stuck)
	require.NoError(t, err)

	// First event is picked up by the writer, which then blocks inside Send.
	require.True(t, h.SendTo(id, api.NewEvent("job-1", api.EventProgress, nil)))
	<-entered
	// Second event fills the one-slot queue.
	require.True(t, h.SendTo(id, api.NewEvent("job-1", api.EventProgress, nil)))

	for i := 0; i < 3; i++ {
		assert.False(t, h.SendTo(id, api.NewEvent("job-1", api.EventProgress, nil)))
	}
	assert.Equal(t, 0, h.NumConnections())
}

func TestSendSuccessResetsErrorCounter(t *testing.T) {
	// Two failures, a success, then two more failures: with ceiling 3 the
	// connection survives only if the success reset the counter.
	script := []error{
		errors.New("broken pipe"),
		errors.New("broken pipe"),
		nil,
		errors.New("broken pipe"),
		errors.New("broken pipe"),
	}
	var mu sync.Mutex
	next := 0
	processed := make(chan struct{}, len(script))
	sender := SenderFunc(func(*api.Event) error {
		mu.Lock()
		err := script[next]
		next++
		mu.Unlock()
		processed <- struct{}{}
		return err
	})

	h := New(Config{ErrorCeiling: 3})
	id, err := h.Attach(sender)
	require.NoError(t, err)

	for range script {
		require.True(t, h.SendTo(id, api.NewEvent("job-1", api.EventProgress, nil)))
	}
	for range script {
		<-processed
	}
	assert.Equal(t, 1, h.NumConnections())
}

func TestBroadcastIsolation(t *testing.T) {
	h := New(Config{})
	senderX := &captureSender{}
	senderY := &captureSender{}
	idX, err := h.Attach(senderX)
	require.NoError(t, err)
	idY, err := h.Attach(senderY)
	require.NoError(t, err)
	require.NoError(t, h.Subscribe(idX, "job-x"))
	require.NoError(t, h.Subscribe(idY, "job-y"))

	h.BroadcastToJob("job-x", api.NewEvent("job-x", api.EventProgress, nil))

	assert.Eventually(t, func() bool {
		return len(senderX.received()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, senderY.received())
}

func TestAllJobsSubscription(t *testing.T) {
	h := New(Config{})
	sender := &captureSender{}
	id, err := h.Attach(sender)
	require.NoError(t, err)
	require.NoError(t, h.Subscribe(id, AllJobs))

	h.BroadcastToJob("job-x", api.NewEvent("job-x", api.EventProgress, nil))
	h.BroadcastToJob("job-y", api.NewEvent("job-y", api.EventProgress, nil))
	assert.Eventually(t, func() bool {
		return len(sender.received()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Unsubscribe(id, AllJobs))
	h.BroadcastToJob("job-x", api.NewEvent("job-x", api.EventProgress, nil))
	assert.Len(t, sender.received(), 2)
}

func TestDetachIsIdempotent(t *testing.T) {
	h := New(Config{})
	id, err := h.Attach(discardSender())
	require.NoError(t, err)

	assert.True(t, h.Detach(id))
	assert.False(t, h.Detach(id))
	assert.False(t, h.Detach("no-such-connection"))
}

func TestSendToUnknownConnection(t *testing.T) {
	h := New(Config{})
	assert.False(t, h.SendTo("no-such-connection", api.NewEvent("job-1", api.EventProgress, nil)))
}

func TestEvictStale(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	h := New(Config{StaleAfter: time.Minute, MaxAge: 10 * time.Minute})
	h.clock = clock

	silent, err := h.Attach(discardSender())
	require.NoError(t, err)
	healthy, err := h.Attach(discardSender())
	require.NoError(t, err)

	// Both are fresh; nothing happens.
	h.EvictStale()
	assert.Equal(t, 2, h.NumConnections())

	clock.T = clock.T.Add(2 * time.Minute)
	h.Touch(healthy)
	h.EvictStale()
	assert.Equal(t, 1, h.NumConnections())
	assert.False(t, h.Detach(silent))
	assert.True(t, h.Detach(healthy))
}

func TestEvictStaleNeverSeenPastMaxAge(t *testing.T) {
	clock := &util.DummyClock{T: time.Now()}
	h := New(Config{StaleAfter: time.Hour, MaxAge: 10 * time.Minute})
	h.clock = clock

	id, err := h.Attach(discardSender())
	require.NoError(t, err)

	clock.T = clock.T.Add(11 * time.Minute)
	h.EvictStale()
	assert.Equal(t, 0, h.NumConnections())
	assert.False(t, h.Detach(id))
}

func TestShutdownEvictsEverything(t *testing.T) {
	h := New(Config{SweepInterval: 10 * time.Millisecond})
	h.Start()
	for i := 0; i < 5; i++ {
		_, err := h.Attach(discardSender())
		require.NoError(t, err)
	}

	require.NoError(t, util.WaitOrTimeout(h.Shutdown, 5*time.Second))
	assert.Equal(t, 0, h.NumConnections())
}
