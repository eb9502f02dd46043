package notify

import "sync"

// Broadcaster fans out a payload-free "cart changed" signal to every
// subscriber. Delivery is fire-and-forget: a subscriber that has not drained
// its channel keeps its single pending signal and misses nothing it cares
// about, since the signal only means "re-read the cart now".
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]chan struct{}
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan struct{})}
}

// Subscribe registers a listener. The returned cancel func unsubscribes;
// it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Broadcast signals every subscriber without blocking. A subscriber with a
// signal already pending is skipped; the pending one covers this broadcast.
func (b *Broadcaster) Broadcast() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
