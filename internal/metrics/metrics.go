package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tutor", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tutor", Name: "handler_errors_total", Help: "Handler errors (5xx)",
	})
	WalletAdjustments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutor", Name: "wallet_adjustments_total", Help: "Applied wallet adjustments",
	}, []string{"category"})
	ScheduleDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutor", Name: "schedule_decisions_total", Help: "Weekly-cap decisions for new classes",
	}, []string{"outcome"})
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tutor", Name: "notifications_sent_total", Help: "Telegram notifications sent",
	}, []string{"kind"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tutor", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, WalletAdjustments, ScheduleDecisions, NotificationsSent, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
