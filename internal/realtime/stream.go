package realtime

import "sync"

// defaultQueueSize bounds each subscriber's delivery queue.
const defaultQueueSize = 64

// Stream is a multicast, replay-none broadcast channel: every current
// subscriber gets each published value, late subscribers see nothing
// from before they joined. Delivery is non-blocking; a subscriber
// that stops draining loses events rather than stalling the channel.
type Stream[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// NewStream creates an empty stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber. The returned cancel func must be
// called when the consumer goes away; it closes the channel.
func (s *Stream[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan T, defaultQueueSize)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers v to every current subscriber.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Subscriber queue full: drop. The next REST snapshot
			// corrects any drift.
		}
	}
}

// Len returns the current subscriber count.
func (s *Stream[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
