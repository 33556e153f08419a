package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"starbrowse/internal/logging"
	"starbrowse/internal/metrics"
)

// Severity classifies an event for display purposes.
type Severity string

const (
	// SeverityInfo is a neutral informational event.
	SeverityInfo Severity = "info"
	// SeveritySuccess marks a completed operation.
	SeveritySuccess Severity = "success"
	// SeverityWarning flags a recoverable problem.
	SeverityWarning Severity = "warning"
	// SeverityError flags a failed operation.
	SeverityError Severity = "error"
)

// Event is a user-facing notification. Scan lifecycle events carry the
// folder and progress fields; RunID groups events belonging to one scan
// pass.
type Event struct {
	ID       string    `json:"id"`
	RunID    string    `json:"runId,omitempty"`
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Detail   string    `json:"detail,omitempty"`
	Folder   string    `json:"folder,omitempty"`
	Current  int       `json:"current,omitempty"`
	Total    int       `json:"total,omitempty"`
	Time     time.Time `json:"time"`
}

// Listener receives events synchronously on the publisher's goroutine.
// Listeners must not block.
type Listener func(Event)

const (
	subscriberBuffer = 64
	historySize      = 50
)

// Hub fans notification events out to channel subscribers and callback
// listeners, and keeps a short history for the status API. It replaces the
// signal/slot wiring of a GUI front-end with plain channels.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	listeners   []Listener
	history     []Event
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a buffered channel of events. Events are dropped for a
// subscriber whose buffer is full; slow consumers never block publishers.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// AddListener registers a synchronous callback for every published event.
func (h *Hub) AddListener(l Listener) {
	h.mu.Lock()
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()
}

// Publish delivers an event to all subscribers and listeners. The event's
// ID and timestamp are filled in if unset.
func (h *Hub) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	metrics.NotificationsPublished.WithLabelValues(string(event.Severity)).Inc()

	h.mu.Lock()
	h.history = append(h.history, event)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			metrics.NotificationsDropped.Inc()
			logging.Debug("notification subscriber buffer full, dropping event %s", event.ID)
		}
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// History returns the most recent events, oldest first.
func (h *Hub) History() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.history))
	copy(out, h.history)
	return out
}

// Info publishes an informational event.
func (h *Hub) Info(title, message string) {
	h.Publish(Event{Severity: SeverityInfo, Title: title, Message: message})
}

// Success publishes a success event.
func (h *Hub) Success(title, message string) {
	h.Publish(Event{Severity: SeveritySuccess, Title: title, Message: message})
}

// Warning publishes a warning event.
func (h *Hub) Warning(title, message string) {
	h.Publish(Event{Severity: SeverityWarning, Title: title, Message: message})
}

// Error publishes an error event with optional detail text.
func (h *Hub) Error(title, message, detail string) {
	h.Publish(Event{Severity: SeverityError, Title: title, Message: message, Detail: detail})
}
