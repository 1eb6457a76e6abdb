package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/r4z4/loanactors/core/underwriting"
)

type underwritingMetrics struct {
	offersAggregated  prometheus.Counter
	loopEvents        prometheus.Counter
	loopEventsDropped prometheus.Counter
	creditRows        prometheus.Counter
	sinkErrors        prometheus.Counter
	nextID            prometheus.Gauge
}

// NewUnderwritingMetrics registers the underwriting metric families on reg.
func NewUnderwritingMetrics(reg prometheus.Registerer) underwriting.Metrics {
	return newUnderwritingMetrics(reg).Metrics()
}

func newUnderwritingMetrics(reg prometheus.Registerer) *underwritingMetrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      name,
			Help:      help,
		})
	}
	m := &underwritingMetrics{
		offersAggregated:  counter("offers_aggregated_total", "Offer aggregations served"),
		loopEvents:        counter("loop_events_total", "Loop events published"),
		loopEventsDropped: counter("loop_events_dropped_total", "Loop events lost by slow subscribers"),
		creditRows:        counter("credit_rows_total", "Credit file rows ingested"),
		sinkErrors:        counter("sink_errors_total", "Failed loop event sink publishes"),
		nextID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "underwriting",
			Name:      "next_id",
			Help:      "Last id handed out",
		}),
	}
	reg.MustRegister(
		m.offersAggregated,
		m.loopEvents,
		m.loopEventsDropped,
		m.creditRows,
		m.sinkErrors,
		m.nextID,
	)
	return m
}

// Metrics returns the set in the form underwriting.Config expects.
func (m *underwritingMetrics) Metrics() underwriting.Metrics {
	return underwriting.Metrics{
		OffersAggregated:  m.offersAggregated,
		LoopEvents:        m.loopEvents,
		LoopEventsDropped: m.loopEventsDropped,
		CreditRows:        m.creditRows,
		SinkErrors:        m.sinkErrors,
		NextID:            m.nextID,
	}
}
