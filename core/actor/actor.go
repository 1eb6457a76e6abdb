package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type (
	OnPanic func(recovered any, stack []byte, msg any)

	// Handler processes one message at a time. It is only ever invoked from
	// the actor loop, so it may mutate its own state without locking.
	Handler[M any] interface {
		Handle(hc HandlerCtx, msg M) error
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc[M any] func(hc HandlerCtx, msg M) error

	// Kinder names a message for logs and metrics.
	Kinder interface{ Kind() string }
)

func (f HandlerFunc[M]) Handle(hc HandlerCtx, msg M) error { return f(hc, msg) }

type Options struct {
	// ID identifies the actor in logs and metrics. Generated when empty.
	ID string
	// MailboxSize is the mailbox capacity. Defaults to DefaultMailboxSize;
	// negative values are rejected.
	MailboxSize int
	Context     context.Context
	Logger      *slog.Logger
	Metrics     Metrics
	OnPanic     OnPanic
	// MaxConcurrentTasks caps the number of tasks run via HandlerCtx.Schedule.
	// If 0 or negative, scheduling is unlimited.
	MaxConcurrentTasks int
}

type loop[M any] struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	log     *slog.Logger
	mb      *Mailbox[M]
	done    chan struct{}
	hc      *handlerCtx
	metrics Metrics
	onPanic OnPanic
}

// Spawn starts an actor loop for handler h and returns the first Handle to
// it. The loop runs until every Handle is closed and the mailbox is drained,
// or until Options.Context is done or Handle.Stop is called.
func Spawn[M any](opt Options, h Handler[M]) (*Handle[M], error) {
	if h == nil {
		return nil, errors.New("spawn actor: nil handler")
	}
	if opt.MailboxSize == 0 {
		opt.MailboxSize = DefaultMailboxSize
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.ID == "" {
		opt.ID = gonanoid.Must(8)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}

	log := opt.Logger.With(slog.String("actor", opt.ID))
	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.String("kind", kindOf(msg)))
		}
	}

	ctx, cancel := context.WithCancel(opt.Context)
	mb, err := NewMailbox[M](ctx, opt.MailboxSize)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("spawn actor: %w", err)
	}

	l := &loop[M]{
		id:      opt.ID,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		mb:      mb,
		done:    make(chan struct{}),
		metrics: opt.Metrics,
		onPanic: opt.OnPanic,
	}
	l.hc = &handlerCtx{
		Context: ctx,
		id:      opt.ID,
		log:     log,
		sched:   NewScheduler(opt.MaxConcurrentTasks, log, opt.ID, opt.Metrics),
	}

	handle := newHandle(mb, &lifecycle{id: opt.ID, done: l.done, cancel: cancel})

	go l.run(h)
	return handle, nil
}

func (l *loop[M]) run(h Handler[M]) {
	defer close(l.done)
	l.log.Debug("actor spawned", slog.Int("mailbox_size", l.mb.Cap()))

	for l.ctx.Err() == nil {
		msg, ok := l.mb.Receive(l.ctx)
		if !ok {
			break
		}
		l.metrics.MailboxDepth(l.id, l.mb.Len())
		l.dispatch(h, msg)
	}

	// Release senders and scheduled tasks, then settle whatever is still
	// queued. The queue is only non-empty when the actor was stopped.
	l.cancel()
	l.mb.Close()
	l.mb.drain(func(msg M) {
		discard(msg, fmt.Errorf("%w: %w", ErrReplyDropped, ErrActorStopped))
	})
	l.hc.sched.Wait()

	l.log.Debug("actor terminated")
}

func (l *loop[M]) dispatch(h Handler[M], msg M) {
	kind := kindOf(msg)
	defer l.metrics.MessageDuration(kind).ObserveDuration()

	reply := replyOf(msg)
	l.hc.begin(reply)
	err := l.invoke(h, kind, msg)
	handedOff := l.hc.handedOff
	l.hc.begin(nil)

	switch {
	case handedOff && err == nil:
		// settled by the Async task
	case err != nil && reply != nil:
		// a handler error is delivered as the reply; a panic drops it
		if isPanic(err) {
			reply.Fail(ErrReplyDropped)
		} else {
			reply.Fail(err)
		}
	case reply != nil && !reply.Settled():
		l.log.Warn("handler returned without replying", slog.String("kind", kind))
		reply.Fail(ErrReplyDropped)
	}

	if err != nil {
		l.log.Warn("handler failed", slog.String("kind", kind), slog.Any("error", err))
	}
	if reply != nil && !handedOff && reply.Dropped() {
		l.metrics.ReplyAbandoned(kind)
		l.log.Debug("reply abandoned by caller", slog.String("kind", kind))
	}
	l.metrics.MessageProcessed(kind, err == nil)
}

func (l *loop[M]) invoke(h Handler[M], kind string, msg M) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.metrics.MessagePanic(kind)
			l.onPanic(r, debug.Stack(), msg)
			err = &panicError{recovered: r}
		}
	}()
	return h.Handle(l.hc, msg)
}

type panicError struct{ recovered any }

func (e *panicError) Error() string { return fmt.Sprintf("%s: %v", ErrHandlerPanic, e.recovered) }
func (e *panicError) Unwrap() error { return ErrHandlerPanic }

func isPanic(err error) bool {
	var pe *panicError
	return errors.As(err, &pe)
}

func kindOf(msg any) string {
	if k, ok := msg.(Kinder); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", msg)
}

func replyOf(msg any) Settler {
	if r, ok := msg.(Replier); ok {
		return r.ReplyTo()
	}
	return nil
}

func discard(msg any, err error) {
	if d, ok := msg.(Discarder); ok {
		d.Discard(err)
		return
	}
	if reply := replyOf(msg); reply != nil {
		reply.Fail(err)
	}
}
