// Package realtime fans domain events out to live subscribers, feeding the
// WebSocket surface and any in-process listeners such as a chat announcer.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"typequest/core"
	"typequest/engine"
)

type subscriber struct {
	ch   chan core.Event
	user core.UserID // empty means all users
}

// Hub is a fan-out broker. Slow subscribers drop events rather than stall
// the broadcaster.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe registers a firehose subscriber receiving every event.
func (h *Hub) Subscribe(buffer int) (int, <-chan core.Event) {
	return h.subscribe(buffer, "")
}

// SubscribeUser registers a subscriber receiving only one user's events.
func (h *Hub) SubscribeUser(buffer int, user core.UserID) (int, <-chan core.Event) {
	return h.subscribe(buffer, user)
}

func (h *Hub) subscribe(buffer int, user core.UserID) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan core.Event, buffer)
	h.subs[id] = subscriber{ch: ch, user: user}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Broadcast delivers an event to every matching subscriber.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	// copy to avoid holding lock during send
	receivers := make([]subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		receivers = append(receivers, s)
	}
	h.mu.RUnlock()
	for _, s := range receivers {
		if s.user != "" && s.user != ev.UserID {
			continue
		}
		select {
		case s.ch <- ev:
		default: /* drop if full */
		}
	}
}

// Attach wires the hub to a service: every published event of the given
// types is broadcast. Returns a detach func.
func (h *Hub) Attach(svc *engine.Service, types ...core.EventType) func() {
	if len(types) == 0 {
		types = []core.EventType{
			core.EventScoreRecorded,
			core.EventAchievementUnlocked,
			core.EventXPAwarded,
			core.EventBadgeAwarded,
			core.EventCategoryCompleted,
		}
	}
	var unsubs []func()
	for _, typ := range types {
		unsubs = append(unsubs, svc.Subscribe(typ, h.Broadcast))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// MarshalJSON converts an event to its wire form for WebSocket delivery.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
