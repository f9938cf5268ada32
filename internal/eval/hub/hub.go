// Package hub fans lifecycle events out to live subscriber connections.
// Outbound events are queued per connection and drained by one writer
// goroutine each, so producers never wait on subscriber I/O. Each connection
// has independent health: send failures and full queues accumulate on an
// error counter and force eviction once a ceiling is crossed, so one slow or
// dead subscriber never affects the others. A periodic sweep evicts silent
// connections.
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
	"github.com/faisalx96/llm-eval-sub000/internal/common/task"
	"github.com/faisalx96/llm-eval-sub000/internal/common/util"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

// AllJobs subscribes a connection to events of every job.
const AllJobs = "*"

const (
	DefaultMaxConnections = 1000
	DefaultErrorCeiling   = 5
	DefaultStaleAfter     = 5 * time.Minute
	DefaultMaxAge         = 30 * time.Minute
	DefaultSweepInterval  = time.Minute
	DefaultSendBuffer     = 64
	shutdownTimeout       = 5 * time.Second
)

type Config struct {
	// Attach fails with a capacity error once this many connections exist.
	MaxConnections int
	// A connection is evicted when its consecutive send failures reach
	// this ceiling.
	ErrorCeiling int
	// Connections silent for longer than this are swept.
	StaleAfter time.Duration
	// Connections that never sent a liveness signal are swept once older
	// than this.
	MaxAge time.Duration
	// How often the stale sweep runs.
	SweepInterval time.Duration
	// Capacity of each connection's outbound event queue. A full queue
	// counts as a send failure toward the ceiling.
	SendBuffer int
}

func DefaultConfig() Config {
	return Config{
		MaxConnections: DefaultMaxConnections,
		ErrorCeiling:   DefaultErrorCeiling,
		StaleAfter:     DefaultStaleAfter,
		MaxAge:         DefaultMaxAge,
		SweepInterval:  DefaultSweepInterval,
		SendBuffer:     DefaultSendBuffer,
	}
}

// Hub is the registry of live subscriber connections. All registry and
// subscription mutation happens under one mutex per call; broadcasts take a
// snapshot of the subscriber set before sending so concurrent attach and
// detach never corrupt iteration.
type Hub struct {
	config      Config
	clock       util.Clock
	taskManager *task.BackgroundTaskManager

	// Guards connections and every connection's registry-owned fields.
	mu          sync.Mutex
	connections map[string]*connection
}

func New(config Config) *Hub {
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	if config.ErrorCeiling <= 0 {
		config.ErrorCeiling = DefaultErrorCeiling
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultStaleAfter
	}
	if config.MaxAge <= 0 {
		config.MaxAge = DefaultMaxAge
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultSendBuffer
	}
	return &Hub{
		config:      config,
		clock:       &util.DefaultClock{},
		connections: map[string]*connection{},
	}
}

// Start launches the periodic stale sweep.
func (h *Hub) Start() {
	if h.taskManager != nil {
		return
	}
	h.taskManager = task.NewBackgroundTaskManager("llmeval_hub_")
	h.taskManager.Register(h.EvictStale, h.config.SweepInterval, "stale_sweep")
}

// Shutdown stops the sweep and evicts every remaining connection.
func (h *Hub) Shutdown() {
	if h.taskManager != nil {
		if !h.taskManager.StopAll(shutdownTimeout) {
			log.Warn("hub sweep did not stop within timeout")
		}
		h.taskManager = nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.connections {
		h.evictLocked(id, "shutdown")
	}
}

// Attach registers a new subscriber and returns its connection id. Fails
// with ErrCapacityExceeded once the configured maximum connection count is
// reached.
func (h *Hub) Attach(sender Sender) (string, error) {
	if sender == nil {
		return "", errors.WithStack(&evalerrors.ErrInvalidArgument{
			Name:    "Sender",
			Value:   sender,
			Message: "not provided",
		})
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.connections) >= h.config.MaxConnections {
		return "", errors.WithStack(&evalerrors.ErrCapacityExceeded{
			Type:  "connection",
			Limit: h.config.MaxConnections,
		})
	}
	id := uuid.NewString()
	now := h.clock.Now()
	conn := &connection{
		id:            id,
		sender:        sender,
		createdAt:     now,
		lastSeen:      now,
		subscriptions: map[string]bool{},
		outbound:      make(chan *api.Event, h.config.SendBuffer),
		stop:          make(chan struct{}),
	}
	h.connections[id] = conn
	go h.writeLoop(conn)
	connectionsGauge.Inc()
	log.WithField("connection", id).Debug("subscriber attached")
	return id, nil
}

// writeLoop drains one connection's outbound queue, delivering events in
// order. It exits when the connection is evicted; queued events are dropped.
func (h *Hub) writeLoop(conn *connection) {
	for {
		select {
		case <-conn.stop:
			return
		case event := <-conn.outbound:
			h.recordSendResult(conn.id, conn.sender.Send(event))
		}
	}
}

func (h *Hub) recordSendResult(id string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.connections[id]
	if !ok {
		// Evicted while the send was in flight.
		return
	}
	if err != nil {
		sendFailuresCounter.Inc()
		conn.consecutiveErrors++
		log.WithField("connection", id).
			WithError(err).
			WithField("consecutiveErrors", conn.consecutiveErrors).
			Debug("send failed")
		if conn.consecutiveErrors >= h.config.ErrorCeiling {
			h.evictLocked(id, "error ceiling crossed")
		}
		return
	}
	conn.consecutiveErrors = 0
}

// Detach evicts the connection explicitly. Returns false if the id is
// unknown or already evicted.
func (h *Hub) Detach(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[id]; !ok {
		return false
	}
	h.evictLocked(id, "detach")
	return true
}

// Subscribe adds the connection to jobId's subscription set. Pass AllJobs to
// receive events of every job.
func (h *Hub) Subscribe(id, jobId string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.connections[id]
	if !ok {
		return errors.WithStack(&evalerrors.ErrNotFound{Type: "connection", Value: id})
	}
	if jobId == AllJobs {
		conn.allJobs = true
	} else {
		conn.subscriptions[jobId] = true
	}
	return nil
}

func (h *Hub) Unsubscribe(id, jobId string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.connections[id]
	if !ok {
		return errors.WithStack(&evalerrors.ErrNotFound{Type: "connection", Value: id})
	}
	if jobId == AllJobs {
		conn.allJobs = false
	} else {
		delete(conn.subscriptions, jobId)
	}
	return nil
}

// Touch records a liveness signal from the subscriber. Any inbound message
// counts.
func (h *Hub) Touch(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.connections[id]; ok {
		conn.lastSeen = h.clock.Now()
		conn.everSeen = true
	}
}

// SendTo queues event for delivery to one connection, best-effort, and never
// blocks on subscriber I/O. A full queue means the subscriber is not keeping
// up: it counts as a send failure toward the ceiling and false is returned.
// Delivery failures reported by the writer feed the same counter.
func (h *Hub) SendTo(id string, event *api.Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.connections[id]
	if !ok {
		return false
	}
	select {
	case conn.outbound <- event:
		return true
	default:
		sendFailuresCounter.Inc()
		conn.consecutiveErrors++
		log.WithField("connection", id).
			WithField("consecutiveErrors", conn.consecutiveErrors).
			Debug("outbound queue full")
		if conn.consecutiveErrors >= h.config.ErrorCeiling {
			h.evictLocked(id, "error ceiling crossed")
		}
		return false
	}
}

// BroadcastToJob fans event out to every connection subscribed to jobId,
// tolerating individual send failures.
func (h *Hub) BroadcastToJob(jobId string, event *api.Event) {
	for _, id := range h.subscriberSnapshot(jobId) {
		h.SendTo(id, event)
	}
}

// BroadcastAll fans event out to every connection.
func (h *Hub) BroadcastAll(event *api.Event) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.SendTo(id, event)
	}
}

// EvictStale sweeps connections that have been silent longer than the
// configured window, have aged past the maximum age with no liveness signal
// at all, or are already over the error ceiling.
func (h *Hub) EvictStale() {
	now := h.clock.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.connections {
		switch {
		case now.Sub(conn.lastSeen) > h.config.StaleAfter:
			h.evictLocked(id, "stale")
		case !conn.everSeen && now.Sub(conn.createdAt) > h.config.MaxAge:
			h.evictLocked(id, "no liveness signal")
		case conn.consecutiveErrors >= h.config.ErrorCeiling:
			h.evictLocked(id, "error ceiling crossed")
		}
	}
}

// NumConnections returns the current registry size.
func (h *Hub) NumConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// subscriberSnapshot returns the ids of connections subscribed to jobId at
// this instant.
func (h *Hub) subscriberSnapshot(jobId string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []string
	for id, conn := range h.connections {
		if conn.subscribedTo(jobId) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (h *Hub) evictLocked(id, reason string) {
	conn, ok := h.connections[id]
	if !ok || conn.evicted {
		return
	}
	conn.evicted = true
	conn.close()
	delete(h.connections, id)
	connectionsGauge.Dec()
	evictionsCounter.Inc()
	log.WithField("connection", id).WithField("reason", reason).Debug("connection evicted")
}
