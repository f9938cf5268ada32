// Package serve adapts websocket subscribers into hub connections. The
// remote protocol is intentionally thin: outbound messages are api.Events,
// and any inbound frame counts as a liveness signal, with a small action
// vocabulary for subscriptions and status requests.
package serve

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/dashboard"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
	"github.com/faisalx96/llm-eval-sub000/internal/eval/hub"
	"github.com/faisalx96/llm-eval-sub000/pkg/api"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Subscribers are trusted dashboards; origin checks belong to the
	// surrounding HTTP stack.
	CheckOrigin: func(*http.Request) bool { return true },
}

// inboundMessage is what subscribers may send. Every inbound frame, valid or
// not, is treated as a liveness signal.
type inboundMessage struct {
	Action string `json:"action"` // subscribe, unsubscribe, status, ping
	JobId  string `json:"job_id,omitempty"`
}

// SubscriberServer exposes the hub over websockets.
type SubscriberServer struct {
	Hub *hub.Hub
	// Aggregator backs status requests; optional.
	Aggregator *dashboard.Aggregator
}

func NewSubscriberServer(h *hub.Hub, aggregator *dashboard.Aggregator) *SubscriberServer {
	return &SubscriberServer{Hub: h, Aggregator: aggregator}
}

// ServeHTTP upgrades the request, attaches the socket as a hub connection
// subscribed to all jobs by default, and reads inbound frames until the
// subscriber goes away or the hub evicts it.
func (s *SubscriberServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer ws.Close()

	id, err := s.Hub.Attach(newWsSender(ws))
	if err != nil {
		// Most likely at capacity; tell the subscriber before closing.
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeTimeout),
		)
		return
	}
	defer s.Hub.Detach(id)

	if jobId := r.URL.Query().Get("job"); jobId != "" {
		_ = s.Hub.Subscribe(id, jobId)
	} else {
		_ = s.Hub.Subscribe(id, hub.AllJobs)
	}
	s.Hub.SendTo(id, api.NewEvent("", api.EventConnected, map[string]interface{}{
		"connection_id": id,
	}))

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithField("connection", id).WithError(err).Debug("subscriber read failed")
			}
			return
		}
		s.Hub.Touch(id)
		s.handle(id, msg)
	}
}

func (s *SubscriberServer) handle(id string, msg inboundMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.JobId != "" {
			_ = s.Hub.Subscribe(id, msg.JobId)
		}
	case "unsubscribe":
		if msg.JobId != "" {
			_ = s.Hub.Unsubscribe(id, msg.JobId)
		}
	case "status":
		s.Hub.SendTo(id, s.statusEvent(msg.JobId))
	default:
		// Liveness only.
	}
}

func (s *SubscriberServer) statusEvent(jobId string) *api.Event {
	payload := map[string]interface{}{}
	if s.Aggregator != nil {
		jobs := make([]map[string]interface{}, 0)
		for _, view := range s.Aggregator.Snapshot() {
			if jobId != "" && view.JobId != jobId {
				continue
			}
			jobs = append(jobs, map[string]interface{}{
				"job_id":   view.JobId,
				"job_name": view.JobName,
				"total":    view.Total,
				"finished": view.Finished(),
				"running":  view.StatusCounts[domain.ItemRunning],
				"failed":   view.StatusCounts[domain.ItemError],
				"done":     view.Done,
			})
		}
		payload["jobs"] = jobs
	}
	return api.NewEvent(jobId, api.EventStatus, payload)
}

// wsSender writes events onto one websocket. The hub's per-connection writer
// is the only caller, so writes are already serialized; the write deadline
// bounds how long a dead socket can hold that writer up.
type wsSender struct {
	ws *websocket.Conn
}

func newWsSender(ws *websocket.Conn) *wsSender {
	return &wsSender{ws: ws}
}

func (s *wsSender) Send(event *api.Event) error {
	data, err := event.Marshal()
	if err != nil {
		return errors.WithStack(err)
	}
	if err := s.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(s.ws.WriteMessage(websocket.TextMessage, data))
}
