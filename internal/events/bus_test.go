package events

import (
	"testing"
	"time"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestPublishZoneDeliversFields(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(EventZoneCreated, func(ev Event) { ch <- ev })

	bus.PublishZone(EventZoneCreated, 7, "breaker", "bearish", "bearish breaker [21850.00-21860.00]", 12, 21855)

	ev := waitEvent(t, ch)
	if ev.Type != EventZoneCreated {
		t.Errorf("type = %s, want ZONE_CREATED", ev.Type)
	}
	if ev.Data["zone_id"] != 7 || ev.Data["kind"] != "breaker" {
		t.Errorf("zone fields = %+v", ev.Data)
	}
	if ev.Data["price"] != 21855.0 || ev.Data["bar_index"] != 12 {
		t.Errorf("price/index fields = %+v", ev.Data)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not stamped on publish")
	}
}

func TestSubscribeAllSeesEveryType(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 2)
	bus.SubscribeAll(func(ev Event) { ch <- ev })

	bus.Publish(Event{Type: EventBarProcessed, Data: map[string]interface{}{"bar_index": 3, "price": 21820.0}})
	bus.PublishTradeClosed("unicorn", "manual_flatten", 21823, 21830, 1, 7)

	seen := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		seen[waitEvent(t, ch).Type] = true
	}
	if !seen[EventBarProcessed] || !seen[EventTradeClosed] {
		t.Errorf("delivered types = %v", seen)
	}
}

func TestSubscribeFiltersByType(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(EventTrailingMoved, func(ev Event) { ch <- ev })

	bus.PublishSignal(EventBreakevenSet, "unicorn", "", 9, 21824)
	bus.PublishSignal(EventTrailingMoved, "unicorn", "", 9, 21826)

	ev := waitEvent(t, ch)
	if ev.Type != EventTrailingMoved {
		t.Errorf("type = %s, want TRAILING_MOVED", ev.Type)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second delivery: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
