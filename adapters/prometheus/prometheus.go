// Package prometheus implements the actor and underwriting metrics
// interfaces with the Prometheus client.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/metrics"
	"github.com/r4z4/loanactors/core/underwriting"
)

const namespace = "loanactor"

// Default histogram buckets for latency metrics (in seconds). Offer
// aggregation and the regular message sleep for seconds, hence the long tail.
var defaultBuckets = []float64{
	.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 15, 30,
}

// All holds every metric set of the application.
type All struct {
	Actor        actor.Metrics
	Underwriting underwriting.Metrics
}

func NewAll(reg prometheus.Registerer) *All {
	return &All{
		Actor:        NewActorMetrics(reg),
		Underwriting: NewUnderwritingMetrics(reg),
	}
}

func newTimer(o prometheus.Observer) metrics.Timer { return metrics.NewTimer(o) }

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
