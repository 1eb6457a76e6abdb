package underwriting

import (
	"context"
	"time"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/credit"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/similar"
)

// Message is the closed set of messages the underwriting actor understands.
type Message interface {
	Kind() string
	isMessage()
}

type (
	// GetUniqueID increments the counter and replies with its new value.
	GetUniqueID struct {
		Reply *actor.Promise[uint32]
	}

	// GetOffers aggregates lender offers, or reuses Prefetched when set.
	GetOffers struct {
		Prefetched offers.ByServicer
		Reply      *actor.Promise[offers.ByServicer]
	}

	// GetOffersMPSC is GetOffers answering on a channel that may be shared
	// by many requests. Ref is echoed back so callers can correlate.
	GetOffersMPSC struct {
		Ref        string
		Prefetched offers.ByServicer
		Reply      chan<- OffersReply
	}

	// GetOffersLoop publishes one LoopEvent per iteration and re-enqueues
	// itself through Self until the iterations run out. The message owns
	// Self and Events: both are closed when the loop ends.
	GetOffersLoop struct {
		Instructions LoopInstructions
		Self         *actor.Handle[Message]
		Events       *actor.Broadcast[LoopEvent]
		iteration    int
	}

	// RegularMessage does slow work with no reply.
	RegularMessage struct {
		Text string
	}

	// PopulateDB ingests a credit-file export. An empty Path uses the
	// configured default.
	PopulateDB struct {
		Path  string
		Reply *actor.Promise[credit.Summary]
	}

	// FetchSimilars resolves the writing samples nearest to the first
	// embedding. A nil Querier falls back to the configured one.
	FetchSimilars struct {
		Embeddings [][]float32
		Querier    similar.Querier
		Reply      *actor.Promise[[]similar.Match]
	}
)

type OffersReply struct {
	Ref    string
	Offers offers.ByServicer
	Err    error
}

type LoopInstructions struct {
	Iterations int
	// ListenFor stops the loop early once an event with this text was
	// published.
	ListenFor string
	// Context stops the loop when done. Optional.
	Context context.Context
}

func (in LoopInstructions) done() <-chan struct{} {
	if in.Context == nil {
		return nil
	}
	return in.Context.Done()
}

func (in LoopInstructions) cancelled() bool {
	return in.Context != nil && in.Context.Err() != nil
}

type LoopEvent struct {
	Iteration int               `json:"iteration"`
	Remaining int               `json:"remaining"`
	Text      string            `json:"text"`
	Offers    offers.ByServicer `json:"offers,omitempty"`
	At        time.Time         `json:"at"`
}

func (GetUniqueID) Kind() string    { return "GetUniqueID" }
func (GetOffers) Kind() string      { return "GetOffers" }
func (GetOffersMPSC) Kind() string  { return "GetOffersMPSC" }
func (GetOffersLoop) Kind() string  { return "GetOffersLoop" }
func (RegularMessage) Kind() string { return "RegularMessage" }
func (PopulateDB) Kind() string     { return "PopulateDB" }
func (FetchSimilars) Kind() string  { return "FetchSimilars" }

func (GetUniqueID) isMessage()    {}
func (GetOffers) isMessage()      {}
func (GetOffersMPSC) isMessage()  {}
func (GetOffersLoop) isMessage()  {}
func (RegularMessage) isMessage() {}
func (PopulateDB) isMessage()     {}
func (FetchSimilars) isMessage()  {}

// A nil promise must not become a non-nil Settler.

func (m GetUniqueID) ReplyTo() actor.Settler {
	if m.Reply == nil {
		return nil
	}
	return m.Reply
}

func (m GetOffers) ReplyTo() actor.Settler {
	if m.Reply == nil {
		return nil
	}
	return m.Reply
}

func (m PopulateDB) ReplyTo() actor.Settler {
	if m.Reply == nil {
		return nil
	}
	return m.Reply
}

func (m FetchSimilars) ReplyTo() actor.Settler {
	if m.Reply == nil {
		return nil
	}
	return m.Reply
}

// Discard ends the loop when the message is dropped unhandled.
func (m GetOffersLoop) Discard(error) { m.release() }

func (m GetOffersLoop) release() {
	if m.Events != nil {
		m.Events.Close()
	}
	if m.Self != nil {
		m.Self.Close()
	}
}

// Discard answers the shared channel without blocking.
func (m GetOffersMPSC) Discard(err error) {
	if m.Reply == nil {
		return
	}
	select {
	case m.Reply <- OffersReply{Ref: m.Ref, Err: err}:
	default:
	}
}

var (
	_ actor.Replier   = GetUniqueID{}
	_ actor.Replier   = GetOffers{}
	_ actor.Replier   = PopulateDB{}
	_ actor.Replier   = FetchSimilars{}
	_ actor.Discarder = GetOffersLoop{}
	_ actor.Discarder = GetOffersMPSC{}
)
