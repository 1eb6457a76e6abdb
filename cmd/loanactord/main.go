// Command loanactord runs the underwriting actor with its configured
// collaborators and serves Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/r4z4/loanactors/core/app"
	"github.com/r4z4/loanactors/core/underwriting"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log := cfg.logger()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("loanactord failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(app.Config{
		Log:                log,
		MailboxSize:        cfg.MailboxSize,
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		ShutdownTimeout:    cfg.ShutdownTimeout,
		Lenders:            cfg.Lenders,
		OfferDelays:        cfg.OfferDelays,
		RegularDelay:       cfg.RegularDelay,
		LoopInterval:       cfg.LoopInterval,
		MaxLoops:           cfg.MaxLoops,
		CSVPath:            cfg.CSVPath,
		PostgresDSN:        cfg.PostgresDSN,
		SimilarCacheSize:   cfg.SimilarCacheSize,
		SimilarTTL:         cfg.SimilarTTL,
		RedisAddr:          cfg.RedisAddr,
		RedisChannel:       cfg.RedisChannel,
		NatsURL:            cfg.NatsURL,
		NatsSubject:        cfg.NatsSubject,
		KvBucket:           cfg.KvBucket,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown", slog.Any("error", err))
		}
	}()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
	}

	h := a.Handle()
	defer h.Close()

	if err := h.Send(ctx, underwriting.RegularMessage{Text: "startup"}); err != nil {
		return err
	}

	if cfg.Populate {
		go func() {
			s, err := underwriting.Populate(ctx, h, "")
			if err != nil {
				log.Error("populate", slog.Any("error", err))
				return
			}
			log.Info("populated", slog.Int("rows", s.Rows), slog.Int("skipped", s.Skipped))
		}()
	}

	if cfg.Loop > 0 {
		sub, err := underwriting.StartLoop(ctx, h, underwriting.LoopInstructions{Iterations: cfg.Loop, Context: ctx}, 0)
		if err != nil {
			return err
		}
		go func() {
			for ev := range sub.C() {
				log.Info("loop event",
					slog.Int("iteration", ev.Iteration),
					slog.String("text", ev.Text),
					slog.Int("offers", ev.Offers.Count()),
				)
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func metricsMux(a *app.App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry(), promhttp.HandlerOpts{}))
	return mux
}
