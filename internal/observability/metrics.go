package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_created_total",
		Help: "Total number of completed sales",
	})

	SaleFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sale_failures_total",
		Help: "Total number of rejected or failed sales",
	}, []string{"kind"})

	RefundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_refunds_total",
		Help: "Total number of approved refunds",
	})

	RefundRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_refund_rejections_total",
		Help: "Total number of rejected or failed refunds",
	}, []string{"kind"})

	SaleNetAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_sale_net_amount",
		Help:    "Net amount of completed sales",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
