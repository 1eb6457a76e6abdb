package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/offers"
	"github.com/r4z4/loanactors/core/underwriting"
)

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Fetcher == nil {
		cfg.Fetcher = offers.StaticFetcher(offers.NewGenerator(offers.GeneratorOpts{Seed: 3}).Aggregate(2))
	}
	cfg.LoopInterval = time.Millisecond
	cfg.RegularDelay = time.Millisecond
	cfg.Log = slog.New(slog.DiscardHandler)
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func TestApp(t *testing.T) {
	a := newTestApp(t, Config{ID: "uw-test", SimilarCacheSize: 16})

	h := a.Handle()
	id, err := underwriting.NextID(t.Context(), h)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), id)

	got, err := underwriting.Offers(t.Context(), h, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	snap, err := underwriting.LatestOffers(t.Context(), a.Snapshots())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), snap.ID)

	sub, err := underwriting.StartLoop(t.Context(), h, underwriting.LoopInstructions{Iterations: 2}, 0)
	require.NoError(t, err)
	n := 0
	for range sub.C() {
		n++
	}
	assert.Equal(t, 2, n)

	h.Close()
	require.NoError(t, a.Close())

	mfs, err := a.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["loanactor_actor_messages_total"])
	assert.True(t, names["loanactor_underwriting_offers_aggregated_total"])

	_, err = underwriting.NextID(t.Context(), a.handle)
	require.ErrorIs(t, err, actor.ErrMailboxClosed)
}

func TestApp_CloseStopsBusyActor(t *testing.T) {
	a := newTestApp(t, Config{ShutdownTimeout: 20 * time.Millisecond})

	// a leaked handle keeps the mailbox open until the timeout
	leaked := a.Handle()
	defer leaked.Close()

	require.NoError(t, a.Close())
	select {
	case <-leaked.Done():
	default:
		t.Fatal("actor still running after Close")
	}
}

func TestApp_Errors(t *testing.T) {
	_, err := New(Config{
		Log:         slog.New(slog.DiscardHandler),
		PostgresDSN: "::not a dsn",
	})
	require.Error(t, err)

	_, err = New(Config{
		Log:      slog.New(slog.DiscardHandler),
		Registry: prometheus.NewRegistry(),
		MaxLoops: -1,
	})
	require.Error(t, err)
}

func TestApp_ActorLogAttributes(t *testing.T) {
	var buf bytes.Buffer
	a, err := New(Config{
		ID:      "uw-log",
		Log:     slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Fetcher: offers.StaticFetcher(offers.NewGenerator(offers.GeneratorOpts{Seed: 3}).Aggregate(1)),
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	var spawned string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, `"msg":"actor spawned"`) {
			spawned = line
		}
	}
	require.NotEmpty(t, spawned)
	assert.Contains(t, spawned, `"app":"uw-log"`)
	assert.Equal(t, 1, strings.Count(spawned, `"actor":`), spawned)
}
