package services

import (
	"context"
	"sync"
	"time"
)

// hubWriteWait bounds a single push so one stalled reader cannot hold up the hub.
const hubWriteWait = 10 * time.Second

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	Close() error
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type hubClient struct {
	userID string
	staff  bool
}

type envelope struct {
	userID    string
	staffOnly bool
	event     Event
}

// Hub pushes events to connected clients. Polling endpoints stay authoritative;
// a dropped event only delays what the next poll shows.
type Hub struct {
	mu        sync.Mutex
	clients   map[Conn]hubClient
	ch        chan envelope
	writeWait time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:   map[Conn]hubClient{},
		ch:        make(chan envelope, 64),
		writeWait: hubWriteWait,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case env := <-h.ch:
			h.dispatch(env)
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
			}
			h.clients = map[Conn]hubClient{}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) dispatch(env envelope) {
	h.mu.Lock()
	targets := make([]Conn, 0, len(h.clients))
	for conn, client := range h.clients {
		if env.staffOnly && !client.staff {
			continue
		}
		if env.userID != "" && client.userID != env.userID {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.Unlock()
	for _, conn := range targets {
		err := conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err == nil {
			err = conn.WriteJSON(env.event)
		}
		if err != nil {
			h.Remove(conn)
			_ = conn.Close()
		}
	}
}

// Push queues an event for every connection of userID. It never blocks.
func (h *Hub) Push(userID, event string, payload interface{}) {
	h.enqueue(envelope{userID: userID, event: Event{Type: event, Data: payload}})
}

func (h *Hub) BroadcastStaff(event string, payload interface{}) {
	h.enqueue(envelope{staffOnly: true, event: Event{Type: event, Data: payload}})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.ch <- env:
	default:
	}
}

func (h *Hub) Add(conn Conn, userID string, staff bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = hubClient{userID: userID, staff: staff}
}

func (h *Hub) Remove(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
