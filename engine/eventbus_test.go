package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"typequest/core"
)

func TestEventBusSyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var got atomic.Int32
	unsub := bus.Subscribe(core.EventXPAwarded, func(_ context.Context, e core.Event) {
		if e.UserID == "alice" {
			got.Add(1)
		}
	})

	bus.Publish(context.Background(), core.NewXPAwarded("alice", 100, 100))
	if got.Load() != 1 {
		t.Fatalf("sync dispatch should deliver immediately, got %d", got.Load())
	}

	unsub()
	bus.Publish(context.Background(), core.NewXPAwarded("alice", 100, 200))
	if got.Load() != 1 {
		t.Fatal("unsubscribed handler must not receive events")
	}
}

func TestEventBusAsyncDispatch(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()

	done := make(chan struct{})
	bus.Subscribe(core.EventBadgeAwarded, func(_ context.Context, e core.Event) {
		close(done)
	})

	bus.Publish(context.Background(), core.NewBadgeAwarded("bob", "starter"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async dispatch never delivered")
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	defer bus.Close()

	var xp, badge int
	bus.Subscribe(core.EventXPAwarded, func(_ context.Context, _ core.Event) { xp++ })
	bus.Subscribe(core.EventBadgeAwarded, func(_ context.Context, _ core.Event) { badge++ })

	bus.Publish(context.Background(), core.NewBadgeAwarded("bob", "starter"))
	if xp != 0 || badge != 1 {
		t.Fatalf("events must route by type, xp=%d badge=%d", xp, badge)
	}
}
