package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lankasafe_snapshots_total",
		Help: "Snapshots received from the record store",
	}, []string{"collection"})
	SubscriptionFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lankasafe_subscription_failures_total",
		Help: "Record store subscriptions that ended in an error",
	}, []string{"collection"})
	WriteThroughTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lankasafe_write_through_total",
		Help: "Partial updates and creates sent to the record store",
	}, []string{"collection", "outcome"})
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lankasafe_notifications_total",
		Help: "Officer notifications by relay and outcome",
	}, []string{"relay", "outcome"})
	NotifyDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lankasafe_notify_duration_ms",
		Help:    "Relay send duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lankasafe_ws_clients",
		Help: "Dashboards connected to the push hub",
	})
)

func init() {
	prometheus.MustRegister(SnapshotsTotal)
	prometheus.MustRegister(SubscriptionFailuresTotal)
	prometheus.MustRegister(WriteThroughTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(NotifyDurationMs)
	prometheus.MustRegister(WebsocketClients)
}

// Handler serves the default registry for scraping at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
