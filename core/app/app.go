package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	natsadapter "github.com/r4z4/loanactors/adapters/nats"
	pgadapter "github.com/r4z4/loanactors/adapters/postgres"
	promadapter "github.com/r4z4/loanactors/adapters/prometheus"
	redisadapter "github.com/r4z4/loanactors/adapters/redis"
	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/cache"
	"github.com/r4z4/loanactors/core/credit"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/similar"
	"github.com/r4z4/loanactors/core/underwriting"
	"github.com/r4z4/loanactors/ports/kv"
)

type Config struct {
	Context context.Context
	Log     *slog.Logger
	// Registry receives all metrics. Defaults to a fresh registry with the
	// Go and process collectors.
	Registry *prometheus.Registry

	// === actor ===
	ID                 string
	MailboxSize        int
	MaxConcurrentTasks int
	// ShutdownTimeout bounds how long Close waits for queued messages
	// before stopping the actor. Defaults to 30s.
	ShutdownTimeout time.Duration

	// === offers ===
	// Fetcher overrides the mock lender fetcher.
	Fetcher      offers.Fetcher
	Lenders      int
	OfferDelays  []time.Duration
	Seed         uint64
	RegularDelay time.Duration
	LoopInterval time.Duration
	MaxLoops     int

	// === credit ===
	CSVPath string

	// === similarity ===
	PostgresDSN      string
	SimilarCacheSize int
	SimilarTTL       time.Duration

	// === sinks & storage ===
	RedisAddr    string
	RedisChannel string
	NatsURL      string
	NatsSubject  string
	KvBucket     string
}

type App struct {
	ctx       context.Context
	cancelCtx context.CancelFunc
	log       *slog.Logger
	registry  *prometheus.Registry
	snapshots kv.Store
	handle    *underwriting.Handle
	shutdown  time.Duration
	closers   []func() error
}

func New(config Config) (app *App, err error) {
	app = &App{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, app.closeResources())
			app = nil
		}
	}()

	// === logger ===
	if config.ID == "" {
		config.ID = fmt.Sprintf("underwriter-%s", gonanoid.Must(6))
	}
	if config.Log == nil {
		config.Log = slog.Default()
	}
	app.log = config.Log.With(slog.String("app", config.ID))

	// === context ===
	if config.Context == nil {
		config.Context = context.Background()
	}
	app.ctx, app.cancelCtx = context.WithCancel(config.Context)
	app.closers = append(app.closers, func() error { app.cancelCtx(); return nil })

	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	app.shutdown = config.ShutdownTimeout

	// === metrics ===
	app.registry = config.Registry
	if app.registry == nil {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics := promadapter.NewAll(app.registry)

	// === offers ===
	gen := offers.NewGenerator(offers.GeneratorOpts{Seed: config.Seed})
	fetcher := config.Fetcher
	if fetcher == nil {
		fetcher = offers.NewMockFetcher(gen, config.OfferDelays...)
	}

	uwConfig := underwriting.Config{
		Offers:            fetcher,
		Generator:         gen,
		Lenders:           config.Lenders,
		RegularDelay:      config.RegularDelay,
		LoopInterval:      config.LoopInterval,
		MaxLoopIterations: config.MaxLoops,
		Credit:            credit.CSVLoader{},
		CSVPath:           config.CSVPath,
		SimilarTTL:        config.SimilarTTL,
		Metrics:           metrics.Underwriting,
	}

	// === similarity ===
	if config.PostgresDSN != "" {
		store, err := pgadapter.Open(app.ctx, pgadapter.Config{DSN: config.PostgresDSN})
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		uwConfig.Similars = store
	}
	if config.SimilarCacheSize > 0 {
		lru := cache.NewLRU(cache.LRUOpts{Size: config.SimilarCacheSize})
		app.closers = append(app.closers, func() error {
			st := lru.Stats()
			app.log.Info("similar cache closed",
				slog.Uint64("hits", st.Hits),
				slog.Uint64("misses", st.Misses),
				slog.Uint64("evictions", st.Evictions),
			)
			lru.Close()
			return nil
		})
		uwConfig.SimilarCache = cache.NewTyped[[]similar.Match](lru)
	}

	// === sinks & storage ===
	app.snapshots = kv.NewMemStore()
	if config.NatsURL != "" {
		connect := natsadapter.ReuseConnection(natsadapter.ConnectURL(config.NatsURL))

		store, err := natsadapter.NewKvStore(app.ctx, natsadapter.KvConfig{Connect: connect, Bucket: config.KvBucket})
		if err != nil {
			return nil, fmt.Errorf("nats kv: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		app.snapshots = store

		if config.NatsSubject != "" {
			pub, err := natsadapter.NewPublisher[underwriting.LoopEvent](natsadapter.PublisherConfig{
				Connect: connect,
				Subject: config.NatsSubject,
			})
			if err != nil {
				return nil, fmt.Errorf("nats publisher: %w", err)
			}
			app.closers = append(app.closers, pub.Close)
			uwConfig.Sinks = append(uwConfig.Sinks, pub)
		}
	}
	if config.RedisAddr != "" {
		channel := config.RedisChannel
		if channel == "" {
			channel = "loanactor:loop"
		}
		pub, err := redisadapter.NewPublisher[underwriting.LoopEvent](app.ctx, redisadapter.Config{
			Addr:    config.RedisAddr,
			Channel: channel,
		})
		if err != nil {
			return nil, fmt.Errorf("redis publisher: %w", err)
		}
		app.closers = append(app.closers, pub.Close)
		uwConfig.Sinks = append(uwConfig.Sinks, pub)
	}
	uwConfig.Snapshots = app.snapshots

	// === actor ===
	app.handle, err = underwriting.New(uwConfig, actor.Options{
		ID:                 config.ID,
		MailboxSize:        config.MailboxSize,
		Context:            app.ctx,
		Logger:             app.log,
		Metrics:            metrics.Actor,
		MaxConcurrentTasks: config.MaxConcurrentTasks,
		OnPanic: func(recovered any, stack []byte, msg any) {
			app.log.Error("actor panicked",
				slog.String("actor", config.ID),
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.Any("msg", msg),
			)
		},
	})
	if err != nil {
		return nil, err
	}

	app.log.Info("app started",
		slog.Bool("postgres", config.PostgresDSN != ""),
		slog.Bool("nats", config.NatsURL != ""),
		slog.Bool("redis", config.RedisAddr != ""),
		slog.Int("sinks", len(uwConfig.Sinks)),
	)
	return app, nil
}

// Handle returns a new handle to the actor. The caller must close it.
func (a *App) Handle() *underwriting.Handle { return a.handle.Clone() }

func (a *App) Registry() *prometheus.Registry { return a.registry }

func (a *App) Snapshots() kv.Store { return a.snapshots }

// Close releases the app's handle and waits for the actor to drain its
// mailbox. Handles still held by callers keep the actor running until the
// shutdown timeout, after which it is stopped. Resources are released last.
func (a *App) Close() error {
	a.handle.Close()

	t := time.NewTimer(a.shutdown)
	defer t.Stop()
	select {
	case <-a.handle.Done():
	case <-t.C:
		a.log.Warn("actor did not drain in time, stopping", slog.Duration("timeout", a.shutdown))
		a.handle.Stop()
	}

	err := a.closeResources()
	a.log.Info("app stopped", slog.Any("error", err))
	return err
}

func (a *App) closeResources() (err error) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
