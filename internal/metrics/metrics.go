// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Subscription metrics
	IncSubscribed()
	IncUnsubscribed()

	// Delivery metrics
	IncEmailSent(tag string)
	IncEmailFailed(tag, class string) // class: "permanent" or "transient"
	IncQuoteFetchFailed()

	// Scheduler metrics
	ObserveScheduledRun(duration time.Duration, attempted, sent int)

	// Dashboard metrics
	IncLoginAttempt(success bool)
	IncFeedbackReceived()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
