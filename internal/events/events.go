package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventRfqOpened    = "rfq_opened"
	EventRfqCancelled = "rfq_cancelled"
	EventRfqExpired   = "rfq_expired"
	EventBidSubmitted = "bid_submitted"
	EventBidAccepted  = "bid_accepted"
	EventBidRejected  = "bid_rejected"
)

// RfqEventPayload describes the minimal RFQ snapshot for event consumers.
type RfqEventPayload struct {
	RfqID       string    `json:"rfq_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	CustomerID  string    `json:"customer_id"`
	MechanicID  string    `json:"mechanic_id"`
	BidCount    int       `json:"bid_count"`
	BidDeadline time.Time `json:"bid_deadline"`
}

// BidEventPayload describes the minimal bid snapshot for event consumers.
type BidEventPayload struct {
	BidID        string  `json:"bid_id"`
	RfqID        string  `json:"rfq_id"`
	WorkshopID   string  `json:"workshop_id"`
	WorkshopName string  `json:"workshop_name"`
	QuoteAmount  float64 `json:"quote_amount"`
	Status       string  `json:"status"`
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

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
