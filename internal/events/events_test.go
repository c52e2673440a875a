package events

import (
	"encoding/json"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBidSubmitted, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BidEventPayload{BidID: "b1", RfqID: "r1", WorkshopID: "ws-1", QuoteAmount: 850}
	if err := bus.PublishJSON(EventBidSubmitted, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBidSubmitted {
		t.Errorf("expected type %s, got %s", EventBidSubmitted, received.Type)
	}

	var decoded BidEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BidID != "b1" || decoded.QuoteAmount != 850 {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe(EventRfqExpired, func(_ *Event) error { count1++; return nil })
	bus.Subscribe(EventRfqExpired, func(_ *Event) error { count2++; return nil })
	bus.Subscribe(EventRfqOpened, func(_ *Event) error { t.Error("wrong type delivered"); return nil })

	bus.Publish(&Event{Type: EventRfqExpired})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventRfqOpened, nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}
