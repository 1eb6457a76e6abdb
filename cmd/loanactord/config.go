package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
)

type config struct {
	LogLevel  string `long:"log-level" env:"LOANACTOR_LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Minimum log level"`
	LogFormat string `long:"log-format" env:"LOANACTOR_LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`

	MetricsAddr string `long:"metrics-addr" env:"LOANACTOR_METRICS_ADDR" default:":9464" description:"Listen address for /metrics, empty to disable"`

	MailboxSize        int           `long:"mailbox-size" env:"LOANACTOR_MAILBOX_SIZE" default:"8" description:"Actor mailbox capacity"`
	MaxConcurrentTasks int           `long:"max-tasks" env:"LOANACTOR_MAX_TASKS" default:"16" description:"Maximum concurrent background tasks of the actor"`
	ShutdownTimeout    time.Duration `long:"shutdown-timeout" env:"LOANACTOR_SHUTDOWN_TIMEOUT" default:"30s" description:"How long to wait for the mailbox to drain on shutdown"`

	Lenders      int             `long:"lenders" env:"LOANACTOR_LENDERS" default:"3" description:"Lenders per offer aggregation"`
	OfferDelays  []time.Duration `long:"offer-delay" env:"LOANACTOR_OFFER_DELAYS" env-delim:"," description:"Simulated lender delays to pick from (repeatable)"`
	RegularDelay time.Duration   `long:"regular-delay" env:"LOANACTOR_REGULAR_DELAY" default:"9s" description:"Work time of a regular message"`
	LoopInterval time.Duration   `long:"loop-interval" env:"LOANACTOR_LOOP_INTERVAL" default:"2s" description:"Wait between offer loop iterations"`
	MaxLoops     int             `long:"max-loop-iterations" env:"LOANACTOR_MAX_LOOP_ITERATIONS" default:"100" description:"Hard cap on offer loop iterations"`
	Loop         int             `long:"loop" env:"LOANACTOR_LOOP" description:"Run an offer loop with this many iterations at startup"`

	CSVPath  string `long:"csv" env:"LOANACTOR_CSV_PATH" description:"Default credit file export for PopulateDB"`
	Populate bool   `long:"populate" env:"LOANACTOR_POPULATE" description:"Ingest the credit file export at startup"`

	PostgresDSN      string        `long:"postgres-dsn" env:"LOANACTOR_POSTGRES_DSN" description:"Postgres DSN of the writing sample store"`
	SimilarCacheSize int           `long:"similar-cache-size" env:"LOANACTOR_SIMILAR_CACHE_SIZE" default:"256" description:"Cached similarity lookups, 0 to disable"`
	SimilarTTL       time.Duration `long:"similar-ttl" env:"LOANACTOR_SIMILAR_TTL" default:"10m" description:"Lifetime of a cached similarity lookup"`

	RedisAddr    string `long:"redis-addr" env:"LOANACTOR_REDIS_ADDR" description:"Redis address for loop events"`
	RedisChannel string `long:"redis-channel" env:"LOANACTOR_REDIS_CHANNEL" default:"loanactor:loop" description:"Redis channel for loop events"`
	NatsURL      string `long:"nats-url" env:"LOANACTOR_NATS_URL" description:"NATS URL for loop events and offer snapshots"`
	NatsSubject  string `long:"nats-subject" env:"LOANACTOR_NATS_SUBJECT" default:"loanactor.loop" description:"NATS subject for loop events"`
	KvBucket     string `long:"kv-bucket" env:"LOANACTOR_KV_BUCKET" default:"loanactor_snapshots" description:"JetStream bucket for offer snapshots"`
}

func loadConfig(args []string) (*config, error) {
	var cfg config
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if cfg.Loop < 0 {
		return nil, fmt.Errorf("loop must not be negative: %d", cfg.Loop)
	}
	return &cfg, nil
}

func (c *config) logger() *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
