package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated     = "booking_created"
	EventBookingUpdated     = "booking_updated"
	EventStatusChanged      = "booking_status_changed"
	EventOutcomeChanged     = "booking_outcome_changed"
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingRescheduled = "booking_rescheduled"
	EventBookingDeleted     = "booking_deleted"
	EventCommentAdded       = "booking_comment_added"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID     string    `json:"booking_id"`
	Kind          string    `json:"kind"`
	MRN           string    `json:"mrn,omitempty"`
	Status        string    `json:"status"`
	Outcome       string    `json:"outcome,omitempty"`
	Urgency       string    `json:"urgency,omitempty"`
	ChangedBy     string    `json:"changed_by,omitempty"`
	ChangedByRole string    `json:"changed_by_role,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// PublishJSON marshals the payload and delivers it synchronously to every
// subscriber of the type. Handler errors do not stop delivery to the rest.
func (b *EventBus) PublishJSON(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	b.mu.RLock()
	handlers := b.subscribers[eventType]
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
