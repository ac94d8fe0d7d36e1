package transport

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

const (
	realtimePath      = "/realtime/v1/websocket"
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// wire message layout for the phoenix-style channel protocol the hosted
// store speaks.
type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Ref     int64           `json:"ref,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type changePayload struct {
	Type      string       `json:"type"` // INSERT, UPDATE, DELETE
	Record    types.Record `json:"record,omitempty"`
	OldRecord types.Record `json:"old_record,omitempty"`
	Actor     string       `json:"actor_name,omitempty"`
}

// Realtime maintains one websocket connection and fans change messages out
// to per-topic handlers. The connection is dialed lazily on the first
// subscribe and survives until close.
type Realtime struct {
	url    string
	apiKey string
	logger types.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]*topicHandler
	nextRef  int64
	done     chan struct{}
	closed   bool
}

type topicHandler struct {
	kind types.EntityKind
	fn   func(types.Event)
}

// realtimeSubscription is the handle returned to subscribers.
type realtimeSubscription struct {
	rt    *Realtime
	topic string
	once  sync.Once
}

func (s *realtimeSubscription) Topic() string { return s.topic }

func (s *realtimeSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.rt.leave(s.topic)
	})
	return err
}

func newRealtime(baseURL, apiKey string, logger types.Logger) *Realtime {
	wsURL := strings.Replace(baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	return &Realtime{
		url:      wsURL + realtimePath + "?apikey=" + apiKey,
		apiKey:   apiKey,
		logger:   logger,
		handlers: make(map[string]*topicHandler),
	}
}

func (rt *Realtime) subscribe(topic string, kind types.EntityKind, fn func(types.Event)) (types.Subscription, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return nil, errors.New("realtime connection is closed")
	}

	if rt.conn == nil {
		conn, _, err := websocket.DefaultDialer.Dial(rt.url, nil)
		if err != nil {
			return nil, types.WrapStoreError(err, types.ErrKindTransient, "realtime dial failed")
		}
		rt.conn = conn
		rt.done = make(chan struct{})
		go rt.readLoop(conn, rt.done)
		go rt.heartbeatLoop(conn, rt.done)
	}

	if err := rt.sendLocked(realtimeMessage{Topic: topic, Event: "phx_join"}); err != nil {
		return nil, err
	}
	rt.handlers[topic] = &topicHandler{kind: kind, fn: fn}

	return &realtimeSubscription{rt: rt, topic: topic}, nil
}

func (rt *Realtime) leave(topic string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if _, ok := rt.handlers[topic]; !ok {
		return nil
	}
	delete(rt.handlers, topic)

	if rt.conn == nil {
		return nil
	}
	return rt.sendLocked(realtimeMessage{Topic: topic, Event: "phx_leave"})
}

func (rt *Realtime) close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.closed = true
	rt.handlers = make(map[string]*topicHandler)
	if rt.conn != nil {
		close(rt.done)
		err := rt.conn.Close()
		rt.conn = nil
		return err
	}
	return nil
}

func (rt *Realtime) sendLocked(msg realtimeMessage) error {
	rt.nextRef++
	msg.Ref = rt.nextRef

	_ = rt.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := rt.conn.WriteJSON(msg); err != nil {
		return types.WrapStoreError(err, types.ErrKindTransient, "realtime write failed")
	}
	return nil
}

func (rt *Realtime) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		var msg realtimeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
			default:
				rt.logger.Warn("realtime read failed, channel updates paused", "error", err)
			}
			return
		}

		switch msg.Event {
		case "INSERT", "UPDATE", "DELETE", "postgres_changes":
			rt.dispatch(msg)
		case "phx_reply", "heartbeat":
			// acknowledgements, nothing to route
		}
	}
}

func (rt *Realtime) heartbeatLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rt.mu.Lock()
			if rt.conn == conn {
				if err := rt.sendLocked(realtimeMessage{Topic: "phoenix", Event: "heartbeat"}); err != nil {
					rt.logger.Warn("realtime heartbeat failed", "error", err)
				}
			}
			rt.mu.Unlock()
		}
	}
}

func (rt *Realtime) dispatch(msg realtimeMessage) {
	var payload changePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		rt.logger.Warn("malformed realtime payload", "topic", msg.Topic, "error", err)
		return
	}

	var change types.ChangeType
	switch payload.Type {
	case "INSERT":
		change = types.ChangeInsert
	case "UPDATE":
		change = types.ChangeUpdate
	case "DELETE":
		change = types.ChangeDelete
	default:
		if msg.Event == "INSERT" || msg.Event == "UPDATE" || msg.Event == "DELETE" {
			change = types.ChangeType(strings.ToLower(msg.Event))
		} else {
			return
		}
	}

	rt.mu.Lock()
	handler, ok := rt.handlers[msg.Topic]
	rt.mu.Unlock()
	if !ok {
		return
	}

	handler.fn(types.Event{
		Kind:   handler.kind,
		Change: change,
		New:    payload.Record,
		Old:    payload.OldRecord,
		Actor:  payload.Actor,
	})
}
