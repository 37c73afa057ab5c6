package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EventType represents the type of record event
type EventType string

const (
	EventConnected EventType = "connected"
	EventHeartbeat EventType = "heartbeat"

	EventStudentAdded     EventType = "student_added"
	EventStudentDeleted   EventType = "student_deleted"
	EventMarkAdded        EventType = "mark_added"
	EventAttendanceMarked EventType = "attendance_marked"
	EventFeeCreated       EventType = "fee_created"
	EventPaymentRecorded  EventType = "payment_recorded"
	// EventRecordAdded covers classes, teachers and subjects.
	EventRecordAdded EventType = "record_added"
)

const (
	// DefaultHeartbeat is used when NewHub is given no interval.
	DefaultHeartbeat = 30 * time.Second

	writeWait      = 10 * time.Second
	maxMessageSize = 512
	clientBuffer   = 32
)

// Event is the JSON frame sent to every client.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
	Time time.Time `json:"time"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket clients and fans events out to them.
type Hub struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
	heartbeat  time.Duration
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
}

// NewHub creates a hub and starts its loop.
func NewHub(heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	h := &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 100),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		heartbeat:  heartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	heartbeatTicker := time.NewTicker(h.heartbeat)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*client)
			h.mu.Unlock()
			log.Debug().Msg("Event hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			total := len(h.clients)
			h.mu.Unlock()
			log.Debug().Str("client_id", c.id).Int("total_clients", total).Msg("Event client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Debug().Str("client_id", c.id).Int("total_clients", total).Msg("Event client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to marshal event")
				continue
			}

			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- data:
				default:
					log.Warn().Str("client_id", c.id).Msg("Event client buffer full, dropping message")
				}
			}
			h.mu.RUnlock()

		case <-heartbeatTicker.C:
			h.Publish(EventHeartbeat, nil)
		}
	}
}

// Publish queues an event for every connected client. It never blocks.
func (h *Hub) Publish(eventType EventType, data any) {
	event := Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
		Time: time.Now().UTC(),
	}
	select {
	case h.broadcast <- event:
	default:
		log.Warn().Str("event_type", string(eventType)).Msg("Event broadcast channel full, dropping event")
	}
}

// Stop disconnects every client and returns once the hub loop has exited.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client goes away or the hub stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	hello, _ := json.Marshal(Event{
		ID:   uuid.NewString(),
		Type: EventConnected,
		Data: map[string]any{"client_id": c.id},
		Time: time.Now().UTC(),
	})
	c.send <- hello

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump discards client frames; it exists to notice the close.
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug().Err(err).Str("client_id", c.id).Msg("Event write failed")
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
