package actor

import (
	"context"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

type (
	// Settler is the actor-side view of a single-shot reply. The loop uses it
	// to make sure no caller is left waiting when a handler fails.
	Settler interface {
		// Settled reports whether a value or error was already delivered.
		Settled() bool
		// Dropped reports whether the caller stopped waiting.
		Dropped() bool
		// Fail settles the reply with err. It is a no-op once settled.
		Fail(err error) bool
	}

	// Replier is implemented by messages that carry a single-shot reply.
	// ReplyTo returns nil when the sender did not ask for one.
	Replier interface {
		ReplyTo() Settler
	}

	// Discarder is implemented by messages that hold resources which must be
	// released when the message is never handled (the actor stopped first).
	Discarder interface {
		Discard(err error)
	}
)

// Promise is a single-shot reply channel. The actor settles it exactly once
// with Resolve or Fail; the caller observes the value with Await.
//
// Settling never blocks. If the caller already gave up (Await returned on
// context cancellation) the value is silently discarded.
type Promise[T any] struct {
	ch      chan fn.Result[T]
	settled atomic.Bool
	dropped atomic.Bool
}

// NewPromise returns an unsettled promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{ch: make(chan fn.Result[T], 1)}
}

// Resolve delivers v. It reports whether the caller was still waiting.
func (p *Promise[T]) Resolve(v T) bool { return p.settle(fn.Ok(v)) }

// Fail delivers err. It reports whether the caller was still waiting.
func (p *Promise[T]) Fail(err error) bool { return p.settle(fn.Err[T](err)) }

func (p *Promise[T]) settle(r fn.Result[T]) bool {
	if !p.settled.CompareAndSwap(false, true) {
		return false
	}
	p.ch <- r
	return !p.dropped.Load()
}

func (p *Promise[T]) Settled() bool { return p.settled.Load() }
func (p *Promise[T]) Dropped() bool { return p.dropped.Load() }

// Await blocks until the promise is settled or ctx is done. On ctx
// cancellation the promise is marked dropped and ctx.Err() is returned.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case r := <-p.ch:
		return r.Unpack()
	case <-ctx.Done():
		p.dropped.Store(true)
		var zero T
		return zero, ctx.Err()
	}
}

var _ Settler = (*Promise[int])(nil)

// Ask sends the message built by mk and waits for its reply.
//
//	id, err := actor.Ask(ctx, h, func(p *actor.Promise[uint32]) Message {
//	    return GetUniqueID{Reply: p}
//	})
func Ask[M any, T any](ctx context.Context, h *Handle[M], mk func(*Promise[T]) M) (T, error) {
	p := NewPromise[T]()
	if err := h.Send(ctx, mk(p)); err != nil {
		var zero T
		return zero, err
	}
	return p.Await(ctx)
}
