//nolint:gochecknoglobals
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fishlog",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})

	InvitationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishlog",
		Name:      "invitation_transitions_total",
		Help:      "Invitation state transitions by resulting status.",
	}, []string{"status"})

	MembershipChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishlog",
		Name:      "membership_changes_total",
		Help:      "Group membership changes by kind.",
	}, []string{"change"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fishlog",
		Name:      "websocket_clients",
		Help:      "The number of connected websocket clients",
	})

	CronRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishlog",
		Name:      "cron_runs_total",
		Help:      "Scheduled job runs by job and result.",
	}, []string{"job", "result"})
)

func InvitationTransition(status string) {
	InvitationTransitions.WithLabelValues(status).Inc()
}

func MembershipChange(change string) {
	MembershipChanges.WithLabelValues(change).Inc()
}
