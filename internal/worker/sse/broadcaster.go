// Package sse streams check-in events to dashboards over Server-Sent Events.
package sse

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	// ClientBuffer is the number of queued events per client. A client whose
	// queue is full when an event arrives is dropped.
	ClientBuffer = 32

	// KeepAliveInterval is how often an idle stream receives a comment line.
	KeepAliveInterval = 25 * time.Second
)

// Event types.
const (
	EventSessionStarted  = "session.started"
	EventFeatureRecorded = "session.feature"
	EventSessionFinished = "session.finished"
	EventAlert           = "alert"
)

// Event is one message on the stream.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	PatientID string    `json:"patient_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected subscriber.
type Client struct {
	ID        string
	PatientID string // empty receives every patient
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed when the client is removed.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Broadcaster fans events out to connected clients.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex
	nextID  int
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
	}
}

// Subscribe registers a client. patientID filters the events it receives.
func (b *Broadcaster) Subscribe(patientID string) *Client {
	b.mu.Lock()
	b.nextID++
	client := &Client{
		ID:        fmt.Sprintf("client-%d", b.nextID),
		PatientID: patientID,
		send:      make(chan []byte, ClientBuffer),
		done:      make(chan struct{}),
	}
	b.clients[client.ID] = client
	clientCount := len(b.clients)
	b.mu.Unlock()

	log.Debug().
		Str("clientId", client.ID).
		Str("patient", patientID).
		Int("totalClients", clientCount).
		Msg("SSE client connected")

	return client
}

// Unsubscribe removes a client. Safe to call more than once.
func (b *Broadcaster) Unsubscribe(client *Client) {
	b.mu.Lock()
	_, exists := b.clients[client.ID]
	delete(b.clients, client.ID)
	clientCount := len(b.clients)
	b.mu.Unlock()

	client.close()

	if exists {
		log.Debug().
			Str("clientId", client.ID).
			Int("totalClients", clientCount).
			Msg("SSE client disconnected")
	}
}

// Publish queues an event for every matching client without blocking.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("Failed to marshal SSE event")
		return
	}
	message := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload))

	var slow []*Client
	b.mu.RLock()
	for _, client := range b.clients {
		if client.PatientID != "" && client.PatientID != ev.PatientID {
			continue
		}
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range slow {
		log.Warn().Str("clientId", client.ID).Msg("SSE client queue full, dropping client")
		b.Unsubscribe(client)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// HandleSSE streams events until the request context ends or the client is dropped.
// The optional patient_id query parameter filters the stream.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := b.Subscribe(r.URL.Query().Get("patient_id"))
	defer b.Unsubscribe(client)

	fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", client.ID)
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case msg := <-client.send:
			if _, err := w.Write(msg); err != nil {
				log.Debug().Err(err).Str("clientId", client.ID).Msg("SSE write failed")
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
