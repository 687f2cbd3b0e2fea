package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(reconcileNotificationsTotal)
}

var reconcileNotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reconcile_notifications_total",
		Help: "Inbound payment notifications by kind and outcome (applied/incorrect/duplicate/unexpected/error).",
	},
	[]string{"kind", "outcome"},
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncNotification(kind, outcome string) {
	reconcileNotificationsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
