package offers

import (
	"context"
	"math/rand/v2"
	"time"
)

// Fetcher gathers offers from a number of lenders.
type Fetcher interface {
	Fetch(ctx context.Context, lenders int) (ByServicer, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, lenders int) (ByServicer, error)

func (f FetcherFunc) Fetch(ctx context.Context, lenders int) (ByServicer, error) {
	return f(ctx, lenders)
}

// DefaultDelays mimic a slow external lender call.
var DefaultDelays = []time.Duration{3 * time.Second, 12 * time.Second}

// MockFetcher simulates calling out to lenders: it waits one of Delays and
// returns a generated aggregation. Like Generator, it belongs to one actor.
type MockFetcher struct {
	gen    *Generator
	delays []time.Duration
	rnd    *rand.Rand
}

func NewMockFetcher(gen *Generator, delays ...time.Duration) *MockFetcher {
	if gen == nil {
		gen = NewGenerator(GeneratorOpts{})
	}
	if len(delays) == 0 {
		delays = DefaultDelays
	}
	return &MockFetcher{
		gen:    gen,
		delays: delays,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (f *MockFetcher) Fetch(ctx context.Context, lenders int) (ByServicer, error) {
	if d := f.delays[f.rnd.IntN(len(f.delays))]; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return f.gen.Aggregate(lenders), nil
}

var _ Fetcher = (*MockFetcher)(nil)

// StaticFetcher always returns a copy of b, ignoring the lender count.
func StaticFetcher(b ByServicer) Fetcher {
	return FetcherFunc(func(ctx context.Context, _ int) (ByServicer, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.Clone(), nil
	})
}
