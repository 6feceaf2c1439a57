package events

import (
	"context"
	"sync"
	"time"

	"villa-offers-api/internal/logger"
)

// EventType represents the type of event.
type EventType string

const (
	// EventSnapshotRefreshed is emitted after a new offer snapshot is published
	EventSnapshotRefreshed EventType = "snapshot.refreshed"
	// EventListingServed is emitted after a listing page is computed
	EventListingServed EventType = "listing.served"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      interface{}
}

// SnapshotRefreshedData contains data for snapshot refreshed events.
type SnapshotRefreshedData struct {
	Version     string
	Records     int
	RefreshedAt time.Time
}

// ListingServedData contains data for listing served events.
type ListingServedData struct {
	StartDate      string
	EndDate        string
	Adults         int
	Children       int
	Offset         int
	Returned       int
	TotalAvailable int
	FromCache      bool
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewManager creates a new event manager.
func NewManager(enabled bool, log *logger.Logger) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		log:      log,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// Publish publishes an event to all subscribed handlers. Handlers run on their
// own goroutines and outlive the publishing request.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data interface{}) {
	if m == nil {
		return
	}

	m.mu.RLock()
	enabled := m.enabled
	handlers := m.handlers[eventType]
	m.mu.RUnlock()

	if !enabled || len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	// detach from request cancellation
	ctx = context.WithoutCancel(ctx)
	for _, handler := range handlers {
		m.wg.Add(1)
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(ctx, event); err != nil && m.log != nil {
				m.log.Warn("event handler failed", "event", string(event.Type), "error", err)
			}
		}(handler)
	}
}

// PublishSnapshotRefreshed publishes a snapshot refreshed event.
func (m *Manager) PublishSnapshotRefreshed(ctx context.Context, version string, records int, at time.Time) {
	m.Publish(ctx, EventSnapshotRefreshed, SnapshotRefreshedData{
		Version:     version,
		Records:     records,
		RefreshedAt: at,
	})
}

// PublishListingServed publishes a listing served event.
func (m *Manager) PublishListingServed(ctx context.Context, data ListingServedData) {
	m.Publish(ctx, EventListingServed, data)
}

// Wait blocks until all in-flight handlers have returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown disables publishing and waits for in-flight handlers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.wg.Wait()
}
