package offers

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	terms       = []int32{12, 24, 36, 48, 64, 78, 96, 128}
	minAmounts  = []int32{2000, 4000, 5000, 10000}
	maxAmounts  = []int32{20000, 35000, 55000, 75000}
	percentFees = []float32{1.5, 2.5, 3.3, 4.2, 5.3}
	aprs        = []float32{6.0, 6.8, 7.2, 8.4, 9.6, 12.4, 14.7}
)

const (
	// DefaultServicers is the number of distinct servicer IDs offers are
	// drawn from.
	DefaultServicers = 2
	// OffersPerLender is how many offers each lender contributes.
	OffersPerLender = 3
	// Validity is how long an offer stays open.
	Validity = 21 * 24 * time.Hour
)

// Generator draws mock offers. It is not safe for concurrent use; give each
// actor its own.
type Generator struct {
	rnd       *rand.Rand
	now       func() time.Time
	servicers int32
}

type GeneratorOpts struct {
	// Seed makes the generator deterministic when non-zero.
	Seed      uint64
	Servicers int32
	Now       func() time.Time
}

func NewGenerator(opts GeneratorOpts) *Generator {
	if opts.Servicers <= 0 {
		opts.Servicers = DefaultServicers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var src rand.Source
	if opts.Seed != 0 {
		src = rand.NewPCG(opts.Seed, opts.Seed>>1|1)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{
		rnd:       rand.New(src),
		now:       opts.Now,
		servicers: opts.Servicers,
	}
}

// Offer draws one offer for the given servicer.
func (g *Generator) Offer(servicerID int32) Offer {
	expires := g.now().Add(Validity).UTC()
	return Offer{
		Slug:       uuid.NewString(),
		ServicerID: servicerID,
		MinAmount:  pick(g.rnd, minAmounts),
		MaxAmount:  pick(g.rnd, maxAmounts),
		Term:       pick(g.rnd, terms),
		PercentFee: pick(g.rnd, percentFees),
		APR:        pick(g.rnd, aprs),
		Expires:    time.Date(expires.Year(), expires.Month(), expires.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// Offers draws n offers, all from the same randomly chosen servicer.
func (g *Generator) Offers(n int) []Offer {
	servicerID := g.rnd.Int32N(g.servicers)
	out := make([]Offer, n)
	for i := range out {
		out[i] = g.Offer(servicerID)
	}
	return out
}

// Aggregate collects OffersPerLender offers from each of the given number of
// lenders. Lenders that share a servicer are merged under it.
func (g *Generator) Aggregate(lenders int) ByServicer {
	out := make(ByServicer)
	for range lenders {
		batch := g.Offers(OffersPerLender)
		id := batch[0].ServicerID
		out[id] = append(out[id], batch...)
	}
	return out
}

func pick[T any](rnd *rand.Rand, from []T) T {
	return from[rnd.IntN(len(from))]
}
