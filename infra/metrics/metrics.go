package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	OrdersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "orders_submitted_total", Help: "Accepted order submissions by symbol"}, []string{"symbol"})
	OrdersCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_cancelled_total", Help: "Cancel requests applied"})
	OrdersRejectedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Submissions rejected by validation"})
	TradesMatchedTotal   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "trades_matched_total", Help: "Fills produced by matching, by symbol"}, []string{"symbol"})
	MatchLatencyUs       = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "match_latency_us", Help: "Submit path latency in microseconds", Buckets: prometheus.ExponentialBuckets(1, 2, 16)})
	OutboxPending        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "outbox_pending", Help: "Trade events not yet acked by the broker"})
	DepthStreamClients   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "depth_stream_clients", Help: "Connected websocket depth subscribers"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		OrdersSubmittedTotal, OrdersCancelledTotal, OrdersRejectedTotal,
		TradesMatchedTotal, MatchLatencyUs, OutboxPending, DepthStreamClients,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
