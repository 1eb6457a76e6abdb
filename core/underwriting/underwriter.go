// Package underwriting is the loan-marketplace actor: it hands out unique
// ids, aggregates lender offers, runs repeating offer polls, ingests credit
// files and resolves writing-sample similarity.
package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/cache"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/similar"
	"github.com/r4z4/loanactors/ports/kv"
)

// SnapshotKey is where the latest aggregation is stored.
const SnapshotKey = "offers/latest"

type Snapshot struct {
	ID     uint32            `json:"id"`
	Offers offers.ByServicer `json:"offers"`
	At     time.Time         `json:"at"`
}

type underwriter struct {
	cfg    Config
	nextID uint32
	// similar is the configured store, fronted by the cache when one is set.
	similar similar.Querier
}

// New spawns the underwriting actor and returns its first handle.
func New(cfg Config, opt actor.Options) (*actor.Handle[Message], error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("underwriting config: %w", err)
	}
	cfg.defaults()

	u := &underwriter{cfg: cfg, similar: cfg.Similars}
	if cfg.Similars != nil && cfg.SimilarCache != nil {
		u.similar = similar.Cached(cfg.Similars, cfg.SimilarCache, cache.WithTTL(cfg.SimilarTTL))
	}
	return actor.Spawn[Message](opt, u)
}

func (u *underwriter) Handle(hc actor.HandlerCtx, msg Message) error {
	switch m := msg.(type) {
	case GetUniqueID:
		id := u.bump()
		if m.Reply != nil && !m.Reply.Resolve(id) {
			hc.Log().Debug("reply abandoned", slog.String("kind", m.Kind()))
		}
		return nil

	case GetOffers:
		out, err := u.aggregate(hc, m.Prefetched)
		if err != nil {
			return err
		}
		if m.Reply != nil {
			m.Reply.Resolve(out)
		}
		return nil

	case GetOffersMPSC:
		out, err := u.aggregate(hc, m.Prefetched)
		u.replyShared(hc, m, OffersReply{Ref: m.Ref, Offers: out, Err: err})
		return err

	case GetOffersLoop:
		return u.loop(hc, m)

	case RegularMessage:
		return u.regular(hc, m)

	case PopulateDB:
		return u.populate(hc, m)

	case FetchSimilars:
		return u.similars(hc, m)
	}
	return fmt.Errorf("unknown message %T", msg)
}

func (u *underwriter) bump() uint32 {
	u.nextID++
	u.cfg.Metrics.NextID.Set(float64(u.nextID))
	return u.nextID
}

func (u *underwriter) aggregate(hc actor.HandlerCtx, prefetched offers.ByServicer) (offers.ByServicer, error) {
	u.bump()

	out := prefetched.Clone()
	if len(out) == 0 {
		var err error
		if out, err = u.cfg.Offers.Fetch(hc, u.cfg.Lenders); err != nil {
			return nil, fmt.Errorf("fetch offers: %w", err)
		}
	}
	u.cfg.Metrics.OffersAggregated.Inc()
	hc.Log().Debug("offers aggregated",
		slog.Int("servicers", len(out)),
		slog.Int("offers", out.Count()),
		slog.Bool("prefetched", len(prefetched) > 0),
	)

	u.snapshot(hc, out)
	return out, nil
}

// snapshot is best effort: a failing store never fails the request.
func (u *underwriter) snapshot(hc actor.HandlerCtx, out offers.ByServicer) {
	if u.cfg.Snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(hc, u.cfg.StoreTimeout)
	defer cancel()

	snap := Snapshot{ID: u.nextID, Offers: out, At: time.Now().UTC()}
	if err := kv.Put(ctx, u.cfg.Snapshots, SnapshotKey, snap, kv.PutOptions{}); err != nil {
		hc.Log().Warn("failed to store offers snapshot", slog.Any("error", err))
	}
}

func (u *underwriter) replyShared(hc actor.HandlerCtx, m GetOffersMPSC, r OffersReply) {
	if m.Reply == nil {
		return
	}
	t := time.NewTimer(u.cfg.ReplyTimeout)
	defer t.Stop()
	select {
	case m.Reply <- r:
	case <-hc.Done():
	case <-t.C:
		hc.Log().Warn("shared reply channel full, reply dropped", slog.String("ref", m.Ref))
	}
}

func (u *underwriter) regular(hc actor.HandlerCtx, m RegularMessage) error {
	hc.Log().Info("regular message received", slog.String("text", m.Text))
	if err := sleep(hc, u.cfg.RegularDelay); err != nil {
		return err
	}
	id := u.bump()
	hc.Log().Info("regular message done", slog.Duration("after", u.cfg.RegularDelay), slog.Uint64("next_id", uint64(id)))
	return nil
}

func (u *underwriter) populate(hc actor.HandlerCtx, m PopulateDB) error {
	path := m.Path
	if path == "" {
		path = u.cfg.CSVPath
	}
	if path == "" {
		return ErrNoCSVPath
	}

	s, err := u.cfg.Credit.Load(hc, path)
	if err != nil {
		return fmt.Errorf("load credit files: %w", err)
	}
	u.cfg.Metrics.CreditRows.Add(float64(s.Rows))

	for _, f := range s.Sample {
		hc.Log().Debug("credit file",
			slog.Any("borrower_id", f.BorrowerID),
			slog.Any("emp_title", f.EmpTitle),
			slog.Any("months_since_last_delinq", f.MonthsSinceLastDelinq),
		)
	}
	hc.Log().Info("credit files loaded",
		slog.String("path", path),
		slog.Int("rows", s.Rows),
		slog.Int("skipped", s.Skipped),
		slog.Float64("avg_annual_income", s.AvgAnnualIncome),
	)

	if m.Reply != nil {
		m.Reply.Resolve(s)
	}
	return nil
}

// similars runs the lookup off the loop. A store carried by the message is
// queried directly and never cached.
func (u *underwriter) similars(hc actor.HandlerCtx, m FetchSimilars) error {
	q := m.Querier
	if q == nil {
		q = u.similar
	}
	if q == nil {
		return ErrNoQuerier
	}
	if _, err := similar.First(m.Embeddings); err != nil {
		return err
	}

	hc.Async(func() {
		matches, err := similar.Lookup(hc, q, m.Embeddings, similar.DefaultLimit)
		if err != nil {
			hc.Log().Warn("similars lookup failed", slog.Any("error", err))
			if m.Reply != nil {
				m.Reply.Fail(err)
			}
			return
		}

		log := hc.Log().With(slog.Int("matches", len(matches)))
		if st, ok := cache.StatsOf(u.cfg.SimilarCache); ok {
			log = log.With(slog.Uint64("cache_hits", st.Hits), slog.Uint64("cache_misses", st.Misses))
		}
		log.Debug("similars fetched")
		if m.Reply != nil {
			m.Reply.Resolve(matches)
		}
	})
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LatestOffers reads the last stored aggregation.
func LatestOffers(ctx context.Context, store kv.Store) (Snapshot, error) {
	return kv.Get[Snapshot](ctx, store, SnapshotKey)
}
