package underwriting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/r4z4/loanactors/core/cache"
	"github.com/r4z4/loanactors/core/credit"
	"github.com/r4z4/loanactors/core/metrics"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/similar"
	"github.com/r4z4/loanactors/ports/kv"
)

const (
	DefaultLenders           = 3
	DefaultRegularDelay      = 9 * time.Second
	DefaultLoopInterval      = 2 * time.Second
	DefaultMaxLoopIterations = 100
	DefaultReplyTimeout      = 5 * time.Second
	DefaultStoreTimeout      = 2 * time.Second
	DefaultSimilarTTL        = 10 * time.Minute
)

var (
	ErrNoFetcher  = errors.New("offers fetcher is required")
	ErrNoCSVPath  = errors.New("no csv path given and no default configured")
	ErrNoQuerier  = errors.New("no similarity querier")
	ErrLoopTarget = errors.New("loop message needs a self handle and an event broadcast")
)

// Sink receives a copy of every loop event, e.g. to fan it out over Redis or
// NATS. Publish is called off the actor loop.
type Sink interface {
	Publish(ctx context.Context, ev LoopEvent) error
}

type Metrics struct {
	OffersAggregated  metrics.Counter
	LoopEvents        metrics.Counter
	LoopEventsDropped metrics.Counter
	CreditRows        metrics.Counter
	SinkErrors        metrics.Counter
	NextID            metrics.Gauge
}

func (m *Metrics) defaults() {
	for _, c := range []*metrics.Counter{&m.OffersAggregated, &m.LoopEvents, &m.LoopEventsDropped, &m.CreditRows, &m.SinkErrors} {
		if *c == nil {
			*c = metrics.NopCounter()
		}
	}
	if m.NextID == nil {
		m.NextID = metrics.NopGauge()
	}
}

type Config struct {
	Offers offers.Fetcher
	// Generator builds the offers attached to loop events. Defaults to a
	// randomly seeded generator.
	Generator *offers.Generator
	Lenders   int

	RegularDelay      time.Duration
	LoopInterval      time.Duration
	MaxLoopIterations int
	// ReplyTimeout bounds how long GetOffersMPSC waits on a full channel.
	ReplyTimeout time.Duration

	Credit  credit.Loader
	CSVPath string

	// Similars answers FetchSimilars messages that carry no querier.
	Similars similar.Querier
	// SimilarCache fronts Similars only. Optional.
	SimilarCache cache.TypedCache[[]similar.Match]
	SimilarTTL   time.Duration

	// Snapshots receives the latest aggregation. Optional.
	Snapshots    kv.Store
	StoreTimeout time.Duration

	Sinks   []Sink
	Metrics Metrics
}

func (c *Config) validate() error {
	if c.Offers == nil {
		return ErrNoFetcher
	}
	if c.Lenders < 0 {
		return fmt.Errorf("lenders must not be negative: %d", c.Lenders)
	}
	if c.MaxLoopIterations < 0 {
		return fmt.Errorf("max loop iterations must not be negative: %d", c.MaxLoopIterations)
	}
	for name, d := range map[string]time.Duration{
		"regular delay": c.RegularDelay,
		"loop interval": c.LoopInterval,
		"reply timeout": c.ReplyTimeout,
		"store timeout": c.StoreTimeout,
		"similar ttl":   c.SimilarTTL,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative: %s", name, d)
		}
	}
	return nil
}

func (c *Config) defaults() {
	if c.Generator == nil {
		c.Generator = offers.NewGenerator(offers.GeneratorOpts{})
	}
	if c.Lenders == 0 {
		c.Lenders = DefaultLenders
	}
	if c.RegularDelay == 0 {
		c.RegularDelay = DefaultRegularDelay
	}
	if c.LoopInterval == 0 {
		c.LoopInterval = DefaultLoopInterval
	}
	if c.MaxLoopIterations == 0 {
		c.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if c.ReplyTimeout == 0 {
		c.ReplyTimeout = DefaultReplyTimeout
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.SimilarTTL == 0 {
		c.SimilarTTL = DefaultSimilarTTL
	}
	if c.Credit == nil {
		c.Credit = credit.CSVLoader{}
	}
	c.Metrics.defaults()
}
