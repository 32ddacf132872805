package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscribed is a no-op.
func (n *NoopRecorder) IncSubscribed() {}

// IncUnsubscribed is a no-op.
func (n *NoopRecorder) IncUnsubscribed() {}

// IncEmailSent is a no-op.
func (n *NoopRecorder) IncEmailSent(tag string) {}

// IncEmailFailed is a no-op.
func (n *NoopRecorder) IncEmailFailed(tag, class string) {}

// IncQuoteFetchFailed is a no-op.
func (n *NoopRecorder) IncQuoteFetchFailed() {}

// ObserveScheduledRun is a no-op.
func (n *NoopRecorder) ObserveScheduledRun(duration time.Duration, attempted, sent int) {}

// IncLoginAttempt is a no-op.
func (n *NoopRecorder) IncLoginAttempt(success bool) {}

// IncFeedbackReceived is a no-op.
func (n *NoopRecorder) IncFeedbackReceived() {}
