package actor

import (
	"context"
	"sync/atomic"
)

// Handle is a cloneable capability to send messages to one actor.
//
// Every Handle holds a reference on the actor's mailbox. Close releases it;
// when the last Handle is closed the mailbox closes, the actor drains what is
// left and terminates. A Handle never exposes the actor's state.
type Handle[M any] struct {
	mb       *Mailbox[M]
	life     *lifecycle
	released atomic.Bool
}

type lifecycle struct {
	id     string
	done   chan struct{}
	cancel context.CancelFunc
}

func newHandle[M any](mb *Mailbox[M], life *lifecycle) *Handle[M] {
	h := &Handle[M]{mb: mb, life: life}
	if !mb.acquire() {
		h.released.Store(true)
	}
	return h
}

// Clone returns a new Handle to the same actor. Cloning a closed Handle
// yields a closed Handle.
func (h *Handle[M]) Clone() *Handle[M] {
	c := &Handle[M]{mb: h.mb, life: h.life}
	if h.released.Load() || !h.mb.acquire() {
		c.released.Store(true)
	}
	return c
}

// Send enqueues msg, blocking while the mailbox is full. It fails with
// ErrMailboxClosed when this Handle was closed or the actor has terminated.
func (h *Handle[M]) Send(ctx context.Context, msg M) error {
	if h.released.Load() {
		return ErrMailboxClosed
	}
	return h.mb.Send(ctx, msg)
}

// TrySend enqueues msg without blocking.
func (h *Handle[M]) TrySend(msg M) error {
	if h.released.Load() {
		return ErrMailboxClosed
	}
	return h.mb.TrySend(msg)
}

// Close releases this Handle. It is idempotent.
func (h *Handle[M]) Close() {
	if h.released.CompareAndSwap(false, true) {
		h.mb.release()
	}
}

// Closed reports whether this Handle was closed.
func (h *Handle[M]) Closed() bool { return h.released.Load() }

// ID returns the actor's identifier.
func (h *Handle[M]) ID() string { return h.life.id }

// Done is closed once the actor loop has terminated.
func (h *Handle[M]) Done() <-chan struct{} { return h.life.done }

// Pending returns the number of messages waiting in the mailbox.
func (h *Handle[M]) Pending() int { return h.mb.Len() }

// Stop terminates the actor without waiting for outstanding handles to be
// closed and blocks until the loop has exited. Messages still queued are
// discarded and their replies fail with ErrActorStopped. Stop must not be
// called from inside a handler of the same actor.
func (h *Handle[M]) Stop() {
	h.life.cancel()
	<-h.life.done
}
