package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultMailboxSize is the mailbox capacity used when Options.MailboxSize is 0.
const DefaultMailboxSize = 8

// Mailbox is a bounded FIFO queue with many producers and a single consumer.
//
// Send blocks while the mailbox is full. Messages are never dropped. Once
// closed, Send fails with ErrMailboxClosed while Receive keeps yielding the
// messages that were queued before the close.
type Mailbox[M any] struct {
	// ch is never closed; closing signals the end of the stream instead, so a
	// parked sender never races a channel close.
	ch      chan M
	closing chan struct{}

	// mu orders sender registration against Close. It is only held for
	// bookkeeping, never across a blocking send.
	mu      sync.RWMutex
	closed  atomic.Bool
	once    sync.Once
	senders sync.WaitGroup

	// refs counts the live handles. The mailbox closes when it drops to zero.
	refs atomic.Int64

	// owner is cancelled when the consuming actor stops, releasing senders
	// blocked on a full mailbox.
	owner context.Context
}

// NewMailbox creates a mailbox with the given capacity. The owner context
// should be the consuming actor's context.
func NewMailbox[M any](owner context.Context, capacity int) (*Mailbox[M], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if owner == nil {
		owner = context.Background()
	}
	return &Mailbox[M]{
		ch:      make(chan M, capacity),
		closing: make(chan struct{}),
		owner:   owner,
	}, nil
}

// Send enqueues msg, blocking while the mailbox is full.
func (m *Mailbox[M]) Send(ctx context.Context, msg M) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	m.mu.RLock()
	if m.closed.Load() {
		m.mu.RUnlock()
		return ErrMailboxClosed
	}
	m.senders.Add(1)
	m.mu.RUnlock()
	defer m.senders.Done()

	select {
	case m.ch <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send failed: %w", ctx.Err())
	case <-m.closing:
		return ErrMailboxClosed
	case <-m.owner.Done():
		return ErrMailboxClosed
	}
}

// TrySend enqueues msg without blocking.
func (m *Mailbox[M]) TrySend(msg M) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed.Load() || m.owner.Err() != nil {
		return ErrMailboxClosed
	}

	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Receive blocks until a message is available. It returns false once the
// mailbox is closed and drained, or when ctx is done.
func (m *Mailbox[M]) Receive(ctx context.Context) (msg M, ok bool) {
	select {
	case msg = <-m.ch:
		return msg, true
	case <-ctx.Done():
		return msg, false
	case <-m.closing:
	}
	return m.next()
}

// next returns a queued message without blocking. Callers must have seen
// the mailbox closed: it waits out senders that were already in flight.
func (m *Mailbox[M]) next() (msg M, ok bool) {
	m.senders.Wait()
	select {
	case msg = <-m.ch:
		return msg, true
	default:
		return msg, false
	}
}

// Close stops accepting messages. Queued messages stay receivable. Close
// never blocks on parked senders, so a handler may drop the last Handle
// to its own actor.
func (m *Mailbox[M]) Close() {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed.Store(true)
		close(m.closing)
		m.mu.Unlock()
	})
}

// IsClosed reports whether Close was called.
func (m *Mailbox[M]) IsClosed() bool { return m.closed.Load() }

// Len returns the number of queued messages.
func (m *Mailbox[M]) Len() int { return len(m.ch) }

// Cap returns the mailbox capacity.
func (m *Mailbox[M]) Cap() int { return cap(m.ch) }

// drain yields queued messages without blocking. Only meaningful after Close.
func (m *Mailbox[M]) drain(yield func(M)) {
	for {
		msg, ok := m.next()
		if !ok {
			return
		}
		yield(msg)
	}
}

// acquire registers a new handle. It fails once the mailbox is closed.
func (m *Mailbox[M]) acquire() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed.Load() {
		return false
	}
	m.refs.Add(1)
	return true
}

// release drops a handle reference, closing the mailbox on the last one.
func (m *Mailbox[M]) release() {
	if m.refs.Add(-1) == 0 {
		m.Close()
	}
}
