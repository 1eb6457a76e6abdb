package actor

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultSubscriptionBuffer is used when Subscribe is called with buffer <= 0.
const DefaultSubscriptionBuffer = 16

// Broadcast is a multi-shot reply channel delivering every published value to
// all current subscribers. Publish never blocks on a subscriber: a subscriber
// whose buffer is full misses the value and its drop counter increments.
//
// The subscriber set lives in a State owned by its own goroutine, so
// subscribing, publishing and closing never contend on a lock.
type Broadcast[T any] struct {
	state   *State[hub[T]]
	cancel  context.CancelFunc
	closed  atomic.Bool
	dropped atomic.Uint64
}

type hub[T any] struct {
	next   uint64
	subs   map[uint64]*Subscription[T]
	closed bool
}

// Subscription receives the values published on a Broadcast.
type Subscription[T any] struct {
	id      uint64
	ch      chan T
	b       *Broadcast[T]
	dropped atomic.Uint64
	once    sync.Once
}

// NewBroadcast creates a broadcast. Its goroutine exits on Close or when ctx
// is done.
func NewBroadcast[T any](ctx context.Context) *Broadcast[T] {
	ctx, cancel := context.WithCancel(ctx)
	return &Broadcast[T]{
		state:  NewState(ctx, &hub[T]{subs: make(map[uint64]*Subscription[T])}),
		cancel: cancel,
	}
}

// Subscribe registers a subscriber with the given buffer. Subscribing to a
// closed broadcast returns a subscription whose channel is already closed.
func (b *Broadcast[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	sub := &Subscription[T]{ch: make(chan T, buffer), b: b}

	err := b.state.Process(func(h *hub[T]) {
		if h.closed {
			sub.close()
			return
		}
		h.next++
		sub.id = h.next
		h.subs[sub.id] = sub
	})
	if err != nil {
		sub.close()
	}
	return sub
}

// Publish delivers v to every subscriber with buffer space and returns how
// many received it.
func (b *Broadcast[T]) Publish(v T) (delivered int) {
	if b.closed.Load() {
		return 0
	}
	_ = b.state.Process(func(h *hub[T]) {
		if h.closed {
			return
		}
		for _, sub := range h.subs {
			select {
			case sub.ch <- v:
				delivered++
			default:
				sub.dropped.Add(1)
				b.dropped.Add(1)
			}
		}
	})
	return delivered
}

// Subscribers returns the current number of subscribers.
func (b *Broadcast[T]) Subscribers() int {
	n, _ := Read(b.state, func(h *hub[T]) int { return len(h.subs) })
	return n
}

// Dropped returns the total number of values lost across all subscribers.
func (b *Broadcast[T]) Dropped() uint64 { return b.dropped.Load() }

// Close ends every subscription. It is idempotent.
func (b *Broadcast[T]) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	_ = b.state.Process(func(h *hub[T]) {
		h.closed = true
		for id, sub := range h.subs {
			sub.close()
			delete(h.subs, id)
		}
	})
	b.cancel()
}

// Closed reports whether Close was called.
func (b *Broadcast[T]) Closed() bool { return b.closed.Load() }

// C returns the receive channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Dropped returns how many values this subscriber missed.
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }

// Unsubscribe detaches the subscriber and closes its channel.
func (s *Subscription[T]) Unsubscribe() {
	_ = s.b.state.Process(func(h *hub[T]) {
		if _, ok := h.subs[s.id]; !ok {
			return
		}
		delete(h.subs, s.id)
		s.close()
	})
}

func (s *Subscription[T]) close() { s.once.Do(func() { close(s.ch) }) }
