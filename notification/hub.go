// Package notification delivers events to connected patients and reminder
// emails to their inboxes.
package notification

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/models"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many notifications may queue for one session before
	// it is considered stuck and dropped
	sendBuffer = 16
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan interface{}
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan interface{}, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue hands v to the session's writer without blocking. It reports false
// when the session is closed or its queue is full.
func (c *client) enqueue(v interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- v:
		return true
	default:
		return false
	}
}

// writePump is the only goroutine writing to the connection
func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case v := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(v); err != nil {
				zap.S().Warnw("failed to deliver notification", "clientId", c.id, "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// Hub tracks the websocket sessions of every connected patient. A patient may
// hold several sessions at once.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[string]*client
	upgrader websocket.Upgrader
}

// NewHub returns an empty Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS upgrades the request and keeps the session registered for
// patientID until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, patientID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "patientId", patientID, "error", err)
		return
	}

	c := newClient(conn)
	h.add(patientID, c)
	go c.writePump()
	zap.S().Infow("patient connected to notifications", "patientId", patientID, "clientId", c.id)

	defer func() {
		h.remove(patientID, c)
		c.close()
		zap.S().Infow("patient disconnected from notifications", "patientId", patientID, "clientId", c.id)
	}()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// NotifyPatient queues n for every session of the patient and returns without
// waiting for delivery. A session whose queue is full is dropped.
func (h *Hub) NotifyPatient(patientID string, n models.Notification) {
	if n.PatientID == "" {
		n.PatientID = patientID
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[patientID]))
	for _, c := range h.clients[patientID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	msg := map[string]interface{}{
		"event": n.Event,
		"data":  n,
	}
	for _, c := range targets {
		if !c.enqueue(msg) {
			zap.S().Warnw("dropping notification session",
				"patientId", patientID,
				"clientId", c.id)
			h.remove(patientID, c)
			c.close()
		}
	}
}

// Connections returns the number of open sessions for the patient
func (h *Hub) Connections(patientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[patientID])
}

func (h *Hub) add(patientID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[patientID] == nil {
		h.clients[patientID] = make(map[string]*client)
	}
	h.clients[patientID][c.id] = c
}

func (h *Hub) remove(patientID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessions := h.clients[patientID]
	if sessions[c.id] != c {
		return
	}
	delete(sessions, c.id)
	if len(sessions) == 0 {
		delete(h.clients, patientID)
	}
}
