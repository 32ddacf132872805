package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/quotecast/quotecast/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "quotecast_subscriptions_total %d\n", snap.Subscribed)
	writeMetric(w, "quotecast_unsubscriptions_total %d\n", snap.Unsubscribed)

	for _, tag := range sortedKeys(snap.EmailsSent) {
		writeMetric(w, "quotecast_emails_sent_total{tag=%q} %d\n", tag, snap.EmailsSent[tag])
	}
	for _, key := range sortedKeys(snap.EmailsFailed) {
		tag, class, _ := strings.Cut(key, "/")
		writeMetric(w, "quotecast_emails_failed_total{tag=%q,class=%q} %d\n", tag, class, snap.EmailsFailed[key])
	}
	writeMetric(w, "quotecast_quote_fetch_failures_total %d\n", snap.QuoteFetchFailures)

	writeMetric(w, "quotecast_scheduled_runs_total %d\n", snap.ScheduledRuns)
	writeMetric(w, "quotecast_scheduled_run_duration_seconds_sum %.6f\n", float64(snap.ScheduledRunDurationNs)/1e9)
	writeMetric(w, "quotecast_scheduled_run_recipients_total %d\n", snap.ScheduledRunRecipients)

	writeMetric(w, "quotecast_login_attempts_total{result=\"success\"} %d\n", snap.LoginSuccesses)
	writeMetric(w, "quotecast_login_attempts_total{result=\"failure\"} %d\n", snap.LoginFailures)
	writeMetric(w, "quotecast_feedback_received_total %d\n", snap.FeedbackReceived)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
