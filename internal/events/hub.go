package events

import "sync"

const subscriberBuffer = 16

// Hub is the in-process Broadcaster. The subscriber set is the only shared
// mutable state in the service; join, leave and publish are safe under
// arbitrary interleaving. A slow subscriber whose buffer is full has the
// event dropped rather than blocking publishers or other subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewHub creates an empty hub. It is constructed once at process start and
// passed into the services that publish to it.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[int]chan Event)}
}

// Publish delivers the event to every currently connected subscriber,
// best-effort, at most once.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe joins the hub and returns the event channel together with a
// leave function. Leaving is idempotent and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// SubscriberCount reports how many subscribers are currently connected.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
