package session

import "sync"

type EventType string

const (
	EventStarted        EventType = "started"
	EventPaused         EventType = "paused"
	EventReset          EventType = "reset"
	EventTick           EventType = "tick"
	EventExpired        EventType = "expired"
	EventModeChanged    EventType = "mode_changed"
	EventLengthsChanged EventType = "lengths_changed"
)

// Event describes a transition of the machine and its state afterwards.
type Event struct {
	Type      EventType
	State     State
	Mode      Mode
	Remaining int
}

type broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
