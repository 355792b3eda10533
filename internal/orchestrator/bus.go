package orchestrator

import (
	"sync"

	"flowonarc/internal/model"
)

// Bus fans flow events out to subscribers. Publishing never blocks; a
// subscriber that falls behind loses events rather than stalling a
// running flow.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan model.StepEvent
	next int
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan model.StepEvent)}
}

// Subscribe registers a listener with the given channel buffer. The
// returned cancel function removes the subscription and closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan model.StepEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan model.StepEvent, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber with buffer space.
func (b *Bus) Publish(ev model.StepEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
