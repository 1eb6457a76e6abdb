package actor

import (
	"context"
	"log/slog"
)

type (
	// HandlerCtx is passed to every handler invocation. It is done when the
	// actor stops.
	HandlerCtx interface {
		context.Context
		Log() *slog.Logger
		ActorID() string
		// Schedule runs f outside the actor loop. f must not touch actor
		// state and should return promptly once the HandlerCtx is done.
		Schedule(f func())
		// Async schedules f and hands it the reply of the message being
		// handled: the loop no longer expects the handler to settle it. If f
		// returns or panics without settling, the reply fails with
		// ErrReplyDropped. Only call it from the handler itself.
		Async(f func())
	}
)

type handlerCtx struct {
	context.Context
	id    string
	log   *slog.Logger
	sched Scheduler

	// reply and handedOff belong to the message currently dispatched and are
	// only touched from the actor loop.
	reply     Settler
	handedOff bool
}

func (hc *handlerCtx) Schedule(f func()) { hc.sched.Schedule(f) }

func (hc *handlerCtx) Async(f func()) {
	reply := hc.reply
	hc.handedOff = reply != nil
	hc.sched.Schedule(func() {
		defer func() {
			if reply != nil && !reply.Settled() {
				reply.Fail(ErrReplyDropped)
			}
		}()
		f()
	})
}

func (hc *handlerCtx) Log() *slog.Logger { return hc.log }
func (hc *handlerCtx) ActorID() string   { return hc.id }

// begin binds the reply of the message about to be handled.
func (hc *handlerCtx) begin(reply Settler) {
	hc.reply = reply
	hc.handedOff = false
}

var _ HandlerCtx = (*handlerCtx)(nil)
