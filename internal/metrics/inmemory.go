package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Subscribed             uint64
	Unsubscribed           uint64
	EmailsSent             map[string]uint64
	EmailsFailed           map[string]uint64 // keyed by "tag/class"
	QuoteFetchFailures     uint64
	ScheduledRuns          uint64
	ScheduledRunDurationNs int64
	ScheduledRunRecipients uint64
	LoginSuccesses         uint64
	LoginFailures          uint64
	FeedbackReceived       uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	subscribed             uint64
	unsubscribed           uint64
	quoteFetchFailures     uint64
	scheduledRuns          uint64
	scheduledRunDurationNs int64
	scheduledRunRecipients uint64
	loginSuccesses         uint64
	loginFailures          uint64
	feedbackReceived       uint64

	mu           sync.Mutex
	emailsSent   map[string]uint64
	emailsFailed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		emailsSent:   make(map[string]uint64),
		emailsFailed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	sent := make(map[string]uint64, len(m.emailsSent))
	for k, v := range m.emailsSent {
		sent[k] = v
	}
	failed := make(map[string]uint64, len(m.emailsFailed))
	for k, v := range m.emailsFailed {
		failed[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		Subscribed:             atomic.LoadUint64(&m.subscribed),
		Unsubscribed:           atomic.LoadUint64(&m.unsubscribed),
		EmailsSent:             sent,
		EmailsFailed:           failed,
		QuoteFetchFailures:     atomic.LoadUint64(&m.quoteFetchFailures),
		ScheduledRuns:          atomic.LoadUint64(&m.scheduledRuns),
		ScheduledRunDurationNs: atomic.LoadInt64(&m.scheduledRunDurationNs),
		ScheduledRunRecipients: atomic.LoadUint64(&m.scheduledRunRecipients),
		LoginSuccesses:         atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:          atomic.LoadUint64(&m.loginFailures),
		FeedbackReceived:       atomic.LoadUint64(&m.feedbackReceived),
	}
}

// IncSubscribed increments the subscription counter.
func (m *InMemoryRecorder) IncSubscribed() {
	atomic.AddUint64(&m.subscribed, 1)
}

// IncUnsubscribed increments the unsubscription counter.
func (m *InMemoryRecorder) IncUnsubscribed() {
	atomic.AddUint64(&m.unsubscribed, 1)
}

// IncEmailSent increments the sent counter for a tag.
func (m *InMemoryRecorder) IncEmailSent(tag string) {
	m.mu.Lock()
	m.emailsSent[tag]++
	m.mu.Unlock()
}

// IncEmailFailed increments the failure counter for a tag and class.
func (m *InMemoryRecorder) IncEmailFailed(tag, class string) {
	m.mu.Lock()
	m.emailsFailed[tag+"/"+class]++
	m.mu.Unlock()
}

// IncQuoteFetchFailed increments the quote failure counter.
func (m *InMemoryRecorder) IncQuoteFetchFailed() {
	atomic.AddUint64(&m.quoteFetchFailures, 1)
}

// ObserveScheduledRun records one completed daily run.
func (m *InMemoryRecorder) ObserveScheduledRun(duration time.Duration, attempted, sent int) {
	atomic.AddUint64(&m.scheduledRuns, 1)
	atomic.AddInt64(&m.scheduledRunDurationNs, duration.Nanoseconds())
	atomic.AddUint64(&m.scheduledRunRecipients, uint64(attempted))
}

// IncLoginAttempt records a dashboard login attempt.
func (m *InMemoryRecorder) IncLoginAttempt(success bool) {
	if success {
		atomic.AddUint64(&m.loginSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncFeedbackReceived increments the feedback counter.
func (m *InMemoryRecorder) IncFeedbackReceived() {
	atomic.AddUint64(&m.feedbackReceived, 1)
}
