// Package metrics defines the small instrumentation surface used by the
// actor packages, so that they stay independent of any metrics backend.
// See adapters/prometheus for the Prometheus implementation.
package metrics

import "time"

// Counter is a monotonically increasing metric.
type Counter interface {
	Inc()
	// Add increments the counter by delta. delta must be >= 0.
	Add(delta float64)
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// Timer measures one operation. Call ObserveDuration when it completes:
//
//	defer m.MessageDuration("GetOffers").ObserveDuration()
type Timer interface {
	ObserveDuration()
}

// Observer receives durations in seconds.
type Observer interface {
	Observe(seconds float64)
}

type observerTimer struct {
	o     Observer
	start time.Time
}

// NewTimer starts a Timer that reports the elapsed time to o.
func NewTimer(o Observer) Timer {
	return &observerTimer{o: o, start: time.Now()}
}

func (t *observerTimer) ObserveDuration() {
	t.o.Observe(time.Since(t.start).Seconds())
}
