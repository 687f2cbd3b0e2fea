package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionsRemovedTotal,
		subscriptionsTotal,
		ledgerEventsTotal,
	)
}

var (
	subscriptionsRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_removed_total",
			Help: "Subscriptions removed by the expiry sweep or end-of-term notifications.",
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by state.",
		},
		[]string{"state"}, // 'active', 'inactive'
	)

	ledgerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_events_total",
			Help: "Ledger entries appended, by event.",
		},
		[]string{"event"},
	)
)

func IncSubscriptionsRemoved(count int) {
	subscriptionsRemovedTotal.Add(float64(count))
}

func SetSubscriptionsTotal(active, inactive int) {
	subscriptionsTotal.WithLabelValues("active").Set(float64(active))
	subscriptionsTotal.WithLabelValues("inactive").Set(float64(inactive))
}

func IncLedgerEvent(event string) {
	ledgerEventsTotal.WithLabelValues(event).Inc()
}
