package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/r4z4/loanactors/core/actor"
	"github.com/r4z4/loanactors/core/metrics"
)

type actorMetrics struct {
	messageDuration       *prometheus.HistogramVec
	messagesTotal         *prometheus.CounterVec
	panicTotal            *prometheus.CounterVec
	mailboxDepth          *prometheus.GaugeVec
	repliesAbandoned      *prometheus.CounterVec
	schedulerInflight     *prometheus.GaugeVec
	schedulerTaskDuration prometheus.Histogram
	schedulerTasksTotal   *prometheus.CounterVec
}

// NewActorMetrics registers the actor metric families on reg.
func NewActorMetrics(reg prometheus.Registerer) actor.Metrics {
	return newActorMetrics(reg)
}

func newActorMetrics(reg prometheus.Registerer) *actorMetrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_message_duration_seconds",
			Help:      "Message handling time in seconds",
			Buckets:   defaultBuckets,
		}, []string{"kind"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_messages_total",
			Help:      "Total number of messages processed",
		}, []string{"kind", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_panics_total",
			Help:      "Total number of handler panics",
		}, []string{"kind"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actor_mailbox_depth",
			Help:      "Messages still queued after the last receive",
		}, []string{"actor_id"}),

		repliesAbandoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_replies_abandoned_total",
			Help:      "Replies whose caller stopped waiting before the handler finished",
		}, []string{"kind"}),

		schedulerInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actor_scheduler_inflight",
			Help:      "Number of concurrent scheduled tasks",
		}, []string{"actor_id"}),

		schedulerTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_scheduler_task_duration_seconds",
			Help:      "Scheduled task duration in seconds",
			Buckets:   defaultBuckets,
		}),

		schedulerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_scheduler_tasks_total",
			Help:      "Total number of scheduled tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.mailboxDepth,
		m.repliesAbandoned,
		m.schedulerInflight,
		m.schedulerTaskDuration,
		m.schedulerTasksTotal,
	)

	return m
}

func (m *actorMetrics) MessageDuration(kind string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(kind))
}

func (m *actorMetrics) MessageProcessed(kind string, success bool) {
	m.messagesTotal.WithLabelValues(kind, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessagePanic(kind string) {
	m.panicTotal.WithLabelValues(kind).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) ReplyAbandoned(kind string) {
	m.repliesAbandoned.WithLabelValues(kind).Inc()
}

func (m *actorMetrics) SchedulerInflight(actorID string, count int) {
	m.schedulerInflight.WithLabelValues(actorID).Set(float64(count))
}

func (m *actorMetrics) SchedulerTaskDuration() metrics.Timer {
	return newTimer(m.schedulerTaskDuration)
}

func (m *actorMetrics) SchedulerTaskCompleted(success bool) {
	m.schedulerTasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ actor.Metrics = (*actorMetrics)(nil)
