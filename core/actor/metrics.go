package actor

import "github.com/r4z4/loanactors/core/metrics"

// Metrics is the instrumentation surface of an actor. All methods must be
// safe for concurrent use.
type Metrics interface {
	// Message handling
	MessageDuration(kind string) metrics.Timer
	MessageProcessed(kind string, success bool)
	MessagePanic(kind string)

	// Mailbox
	MailboxDepth(actorID string, depth int)

	// Replies
	ReplyAbandoned(kind string)

	// Scheduler
	SchedulerInflight(actorID string, count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

type nopMetrics struct{}

func (nopMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) MessageProcessed(string, bool)        {}
func (nopMetrics) MessagePanic(string)                  {}
func (nopMetrics) MailboxDepth(string, int)             {}
func (nopMetrics) ReplyAbandoned(string)                {}
func (nopMetrics) SchedulerInflight(string, int)        {}
func (nopMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) SchedulerTaskCompleted(bool)          {}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
