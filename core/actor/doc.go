// Package actor provides a single-owner actor with a typed, bounded mailbox.
//
// An actor is one goroutine that owns its state and handles messages strictly
// one at a time, so handlers mutate state without locks. Callers never touch
// that state; they hold a [Handle] and send messages.
//
// # Spawning
//
//	h, err := actor.Spawn(actor.Options{MailboxSize: 8}, actor.HandlerFunc[Msg](
//	    func(hc actor.HandlerCtx, msg Msg) error {
//	        // mutate state owned by this closure
//	        return nil
//	    },
//	))
//	defer h.Close()
//
// # Handles
//
// A [Handle] is cheap to clone and safe to share. Each clone holds a
// reference on the mailbox; closing the last one closes the mailbox, the
// loop drains what is queued and terminates. Sending through a closed or
// stale handle fails with [ErrMailboxClosed]. [Handle.Stop] terminates the
// actor immediately instead.
//
// # Replies
//
// Messages carry their reply channel as a typed field:
//
//   - [Promise] is single-shot. The handler calls Resolve or Fail once; the
//     caller waits with Await. If the caller gave up, the reply is dropped
//     silently.
//   - [Broadcast] is multi-shot. Subscribers each get a buffered channel and
//     slow subscribers lose values instead of blocking the actor.
//
// Messages implementing [Replier] expose their promise to the loop, which
// guarantees the caller is not left waiting: a handler error becomes the
// reply, and a panic or a missing reply resolves to [ErrReplyDropped].
//
//	id, err := actor.Ask(ctx, h, func(p *actor.Promise[uint32]) Msg {
//	    return GetID{Reply: p}
//	})
//
// # Background work
//
// Handlers can run work off the loop via [HandlerCtx.Schedule], for example
// to wait and then re-enqueue a message through a cloned handle without
// blocking the loop on its own mailbox. [HandlerCtx.Async] does the same but
// also hands over the message's reply, for lookups that may run
// concurrently with later messages.
package actor
