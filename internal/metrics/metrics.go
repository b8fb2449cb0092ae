package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TapsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance", Name: "taps_total", Help: "Обработанные считывания карт по исходам",
	}, []string{"outcome"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance", Name: "handler_errors_total", Help: "Ошибки обработчиков",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance", Name: "db_ping_seconds", Help: "Задержка ping БД",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(TapsTotal, HandlerErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
