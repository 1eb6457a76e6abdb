package underwriting

import (
	"context"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/credit"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/similar"
)

// Handle is the caller side of the underwriting actor.
type Handle = actor.Handle[Message]

func NextID(ctx context.Context, h *Handle) (uint32, error) {
	return actor.Ask(ctx, h, func(p *actor.Promise[uint32]) Message {
		return GetUniqueID{Reply: p}
	})
}

func Offers(ctx context.Context, h *Handle, prefetched offers.ByServicer) (offers.ByServicer, error) {
	return actor.Ask(ctx, h, func(p *actor.Promise[offers.ByServicer]) Message {
		return GetOffers{Prefetched: prefetched, Reply: p}
	})
}

func Populate(ctx context.Context, h *Handle, path string) (credit.Summary, error) {
	return actor.Ask(ctx, h, func(p *actor.Promise[credit.Summary]) Message {
		return PopulateDB{Path: path, Reply: p}
	})
}

func Similars(ctx context.Context, h *Handle, embeddings [][]float32, q similar.Querier) ([]similar.Match, error) {
	return actor.Ask(ctx, h, func(p *actor.Promise[[]similar.Match]) Message {
		return FetchSimilars{Embeddings: embeddings, Querier: q, Reply: p}
	})
}

// StartLoop starts a GetOffersLoop and returns the subscription to its
// events. The subscription channel is closed when the loop ends. The
// broadcast lives until the loop ends; pass in.Context to stop it early.
func StartLoop(ctx context.Context, h *Handle, in LoopInstructions, buffer int) (*actor.Subscription[LoopEvent], error) {
	events := actor.NewBroadcast[LoopEvent](context.Background())
	sub := events.Subscribe(buffer)

	msg := GetOffersLoop{Instructions: in, Self: h.Clone(), Events: events}
	if err := h.Send(ctx, msg); err != nil {
		msg.release()
		return nil, err
	}
	return sub, nil
}
