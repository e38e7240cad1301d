package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventEntryLong       EventType = "ENTRY_LONG"
	EventEntryShort      EventType = "ENTRY_SHORT"
	EventEntryPending    EventType = "ENTRY_PENDING"
	EventEntryTimeout    EventType = "ENTRY_TIMEOUT"
	EventTradeClosed     EventType = "TRADE_CLOSED"
	EventPartialTaken    EventType = "PARTIAL_TAKEN"
	EventBreakevenSet    EventType = "BREAKEVEN_SET"
	EventTrailingMoved   EventType = "TRAILING_MOVED"
	EventZoneCreated     EventType = "ZONE_CREATED"
	EventZoneInvalidated EventType = "ZONE_INVALIDATED"
	EventZoneExpired     EventType = "ZONE_EXPIRED"
	EventZoneConsumed    EventType = "ZONE_CONSUMED"
	EventDailyReset      EventType = "DAILY_RESET"
	EventBarProcessed    EventType = "BAR_PROCESSED"
	EventEngineStarted   EventType = "ENGINE_STARTED"
	EventEngineStopped   EventType = "ENGINE_STOPPED"
	EventError           EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishSignal publishes an entry signal event
func (eb *EventBus) PublishSignal(eventType EventType, model, tag string, barIndex int, price float64) {
	eb.Publish(Event{
		Type: eventType,
		Data: map[string]interface{}{
			"model":     model,
			"tag":       tag,
			"bar_index": barIndex,
			"price":     price,
		},
	})
}

// PublishZone publishes a zone lifecycle event
func (eb *EventBus) PublishZone(eventType EventType, zoneID int, kind, direction, tag string, barIndex int, price float64) {
	eb.Publish(Event{
		Type: eventType,
		Data: map[string]interface{}{
			"zone_id":   zoneID,
			"kind":      kind,
			"direction": direction,
			"tag":       tag,
			"bar_index": barIndex,
			"price":     price,
		},
	})
}

// PublishTradeClosed publishes a trade closed event
func (eb *EventBus) PublishTradeClosed(model, reason string, entryPrice, exitPrice, qty, pnl float64) {
	eb.Publish(Event{
		Type: EventTradeClosed,
		Data: map[string]interface{}{
			"model":       model,
			"reason":      reason,
			"entry_price": entryPrice,
			"exit_price":  exitPrice,
			"quantity":    qty,
			"pnl":         pnl,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
