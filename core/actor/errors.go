package actor

import "errors"

var (
	// ErrMailboxClosed is returned when sending through a Handle whose actor
	// has terminated, or through a Handle that was already closed.
	ErrMailboxClosed = errors.New("mailbox closed")

	// ErrMailboxFull is returned by TrySend when the mailbox has no free slot.
	ErrMailboxFull = errors.New("mailbox full")

	// ErrInvalidCapacity is returned when a mailbox is created with capacity <= 0.
	ErrInvalidCapacity = errors.New("mailbox capacity must be > 0")

	// ErrActorStopped is reported for messages still queued when the actor
	// was stopped.
	ErrActorStopped = errors.New("actor stopped")

	// ErrReplyDropped is observed by a caller whose reply will never arrive:
	// the handler panicked, returned without replying, or the actor stopped
	// before reaching the message.
	ErrReplyDropped = errors.New("reply dropped")

	// ErrHandlerPanic wraps a value recovered from a panicking handler.
	ErrHandlerPanic = errors.New("handler panicked")
)
