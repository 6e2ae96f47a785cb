package watch

import (
	"sync"

	"github.com/mirfatif/systemd-svc-status/internal/src/sysbus"
)

// Broadcaster republishes event batches to any number of subscribers and
// keeps the last observed status per unit so a new subscriber can start from
// a snapshot. Slow subscribers lose batches rather than stalling the watcher.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan []sysbus.UnitEvent]struct{}
	last map[string]sysbus.UnitEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[chan []sysbus.UnitEvent]struct{}),
		last: make(map[string]sysbus.UnitEvent),
	}
}

// Publish updates the snapshot and hands the batch to every subscriber.
func (b *Broadcaster) Publish(batch []sysbus.UnitEvent) {
	if len(batch) == 0 {
		return
	}

	b.mu.Lock()
	for _, ev := range batch {
		if ev.Removed {
			delete(b.last, ev.Name)
		} else {
			b.last[ev.Name] = ev
		}
	}
	for ch := range b.subs {
		select {
		case ch <- batch:
		default:
		}
	}
	b.mu.Unlock()
}

// Snapshot returns the last observed status of every live unit.
func (b *Broadcaster) Snapshot() []sysbus.UnitEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]sysbus.UnitEvent, 0, len(b.last))
	for _, ev := range b.last {
		out = append(out, ev)
	}
	return out
}

// Subscribe registers a buffered listener. The returned cancel func must be
// called to release it; the channel is closed on cancel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan []sysbus.UnitEvent, func()) {
	ch := make(chan []sysbus.UnitEvent, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
