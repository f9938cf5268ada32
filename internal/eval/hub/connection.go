package hub

import (
	"sync"
	"time"

	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

// Sender delivers one event to a subscriber. Implementations wrap the actual
// transport (e.g. a websocket); Send errors are tracked by the hub, never
// surfaced to broadcasters.
type Sender interface {
	Send(event *api.Event) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(event *api.Event) error

func (f SenderFunc) Send(event *api.Event) error { return f(event) }

// connection is one live subscriber. All fields except the channels are
// guarded by the hub's registry mutex. Outbound events go onto a bounded
// queue drained by a single writer goroutine per connection, so deliveries to
// one connection are never reordered and producers never wait on subscriber
// I/O.
type connection struct {
	id        string
	sender    Sender
	createdAt time.Time
	lastSeen  time.Time
	// Whether any liveness signal was ever received.
	everSeen          bool
	consecutiveErrors int
	subscriptions     map[string]bool
	allJobs           bool
	evicted           bool

	outbound chan *api.Event
	stop     chan struct{}
	stopOnce sync.Once
}

func (c *connection) close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *connection) subscribedTo(jobId string) bool {
	return c.allJobs || c.subscriptions[jobId]
}
