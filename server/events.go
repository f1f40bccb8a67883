package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	heartbeatPeriod = 25 * time.Second

	// websocket timings
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 4096
)

// Event describes a committed change. ListID is nil for changes in the
// unassigned bucket; those only reach subscribers of every list.
type Event struct {
	Type    string `json:"type"`
	Entity  string `json:"entity,omitempty"`
	ListID  *int64 `json:"list_id"`
	Payload any    `json:"payload,omitempty"`
}

type EventBus struct {
	mu     sync.RWMutex
	byList map[int64]map[chan []byte]struct{}
	all    map[chan []byte]struct{}
	closed bool
	m      *metrics

	upgrader websocket.Upgrader
}

func NewEventBus(m *metrics, checkOrigin func(*http.Request) bool) *EventBus {
	return &EventBus{
		byList: make(map[int64]map[chan []byte]struct{}),
		all:    make(map[chan []byte]struct{}),
		m:      m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Subscribe registers a consumer of listID's events, or of every event when
// listID is nil. cancel unregisters and closes the channel.
func (b *EventBus) Subscribe(listID *int64) (ch chan []byte, cancel func()) {
	ch = make(chan []byte, 16)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if listID == nil {
		b.all[ch] = struct{}{}
	} else {
		if b.byList[*listID] == nil {
			b.byList[*listID] = make(map[chan []byte]struct{})
		}
		b.byList[*listID][ch] = struct{}{}
	}
	b.mu.Unlock()
	b.m.subscribed(1)

	return ch, func() {
		b.mu.Lock()
		removed := false
		if listID == nil {
			_, removed = b.all[ch]
			delete(b.all, ch)
		} else if subs, ok := b.byList[*listID]; ok {
			_, removed = subs[ch]
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.byList, *listID)
			}
		}
		b.mu.Unlock()
		if removed {
			close(ch)
			b.m.subscribed(-1)
		}
	}
}

// Close ends every open subscription. Later subscriptions are closed at once.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.all {
		close(ch)
		b.m.subscribed(-1)
	}
	for _, subs := range b.byList {
		for ch := range subs {
			close(ch)
			b.m.subscribed(-1)
		}
	}
	b.all = map[chan []byte]struct{}{}
	b.byList = map[int64]map[chan []byte]struct{}{}
}

// Publish fans ev out without blocking; slow subscribers miss events.
func (b *EventBus) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	b.m.eventPublished(ev.Type)
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ev.ListID != nil {
		for ch := range b.byList[*ev.ListID] {
			select {
			case ch <- data:
			default:
			}
		}
	}
	for ch := range b.all {
		select {
		case ch <- data:
		default:
		}
	}
}

// ServeSSE streams events for listID as server-sent events.
func (b *EventBus) ServeSSE(w http.ResponseWriter, r *http.Request, listID *int64) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	// streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, cancel := b.Subscribe(listID)
	defer cancel()

	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// comment line keeps proxies from closing an idle stream
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// ServeWS streams events for listID over a websocket. Client messages are
// read and discarded; the read loop only tracks liveness.
func (b *EventBus) ServeWS(w http.ResponseWriter, r *http.Request, listID *int64) error {
	// subscribe before the handshake completes so no event is missed
	ch, cancel := b.Subscribe(listID)
	defer cancel()

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-r.Context().Done():
			return nil
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case msg, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}
		}
	}
}
