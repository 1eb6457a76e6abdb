package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/r4z4/loanactors/core/actor"
)

// loop handles one iteration of a GetOffersLoop. The wait before the next
// iteration and the re-enqueue run as a scheduled task, so a full mailbox
// never blocks the actor on itself.
func (u *underwriter) loop(hc actor.HandlerCtx, m GetOffersLoop) error {
	if m.Self == nil || m.Events == nil {
		m.release()
		return ErrLoopTarget
	}
	in := m.Instructions
	if in.Iterations > u.cfg.MaxLoopIterations {
		hc.Log().Warn("loop iterations capped",
			slog.Int("requested", in.Iterations),
			slog.Int("max", u.cfg.MaxLoopIterations),
		)
		in.Iterations = u.cfg.MaxLoopIterations
	}
	if in.Iterations <= 0 || in.cancelled() {
		m.release()
		return nil
	}

	remaining := in.Iterations - 1
	ev := LoopEvent{
		Iteration: m.iteration + 1,
		Remaining: remaining,
		Text:      fmt.Sprintf("From Loop: %d", remaining),
		Offers:    u.cfg.Generator.Aggregate(u.cfg.Lenders),
		At:        time.Now().UTC(),
	}
	hc.Log().Debug("loop iteration", slog.Int("iteration", ev.Iteration), slog.Int("remaining", remaining))
	u.publish(hc, m.Events, ev)

	if remaining == 0 || (in.ListenFor != "" && ev.Text == in.ListenFor) {
		m.release()
		return nil
	}

	next := m
	next.Instructions = in
	next.Instructions.Iterations = remaining
	next.iteration = ev.Iteration

	interval := u.cfg.LoopInterval
	hc.Schedule(func() {
		t := time.NewTimer(interval)
		defer t.Stop()
		select {
		case <-hc.Done():
			next.release()
			return
		case <-in.done():
			next.release()
			return
		case <-t.C:
		}
		if err := next.Self.Send(hc, next); err != nil {
			hc.Log().Debug("loop stopped", slog.Any("error", err))
			next.release()
		}
	})
	return nil
}

func (u *underwriter) publish(hc actor.HandlerCtx, b *actor.Broadcast[LoopEvent], ev LoopEvent) {
	before := b.Dropped()
	b.Publish(ev)
	u.cfg.Metrics.LoopEvents.Inc()
	if d := b.Dropped() - before; d > 0 {
		u.cfg.Metrics.LoopEventsDropped.Add(float64(d))
	}

	if len(u.cfg.Sinks) == 0 {
		return
	}
	sinks, timeout := u.cfg.Sinks, u.cfg.StoreTimeout
	hc.Schedule(func() {
		ctx, cancel := context.WithTimeout(hc, timeout)
		defer cancel()
		for _, s := range sinks {
			if err := s.Publish(ctx, ev); err != nil {
				u.cfg.Metrics.SinkErrors.Inc()
				hc.Log().Warn("loop event sink failed", slog.Any("error", err))
			}
		}
	})
}
