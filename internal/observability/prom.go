package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// record store
	StoreOpDuration  *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec

	SubmissionsTotal *prometheus.CounterVec

	// notifications (worker and sync sends)
	DeliveryDuration   *prometheus.HistogramVec
	DeliveryResults    *prometheus.CounterVec
	DeliveriesInFlight prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ServiceName,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ServiceName,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ServiceName,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ServiceName,
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Record store operation latency by kind and op.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"op", "status"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ServiceName,
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Record store errors by op and class.",
			},
			[]string{"op", "class"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ServiceName,
				Name:      "submissions_total",
				Help:      "Form submissions by kind and outcome.",
			},
			[]string{"kind", "outcome"}, // outcome=stored|store_failed|notify_failed
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ServiceName,
				Subsystem: "notifications",
				Name:      "duration_seconds",
				Help:      "Notification send duration by kind and result.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"kind", "result"}, // result=sent|failed|retry|dead
		),
		DeliveryResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ServiceName,
				Subsystem: "notifications",
				Name:      "results_total",
				Help:      "Notification outcomes by kind and result.",
			},
			[]string{"kind", "result"},
		),
		DeliveriesInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ServiceName,
				Subsystem: "notifications",
				Name:      "in_flight",
				Help:      "Notifications currently being sent by this process.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.StoreOpDuration, p.StoreErrorsTotal,
		p.SubmissionsTotal,
		p.DeliveryDuration, p.DeliveryResults, p.DeliveriesInFlight,
	)

	return p
}

// NewTestProm registers against a private registry so tests can build as
// many as they like.
func NewTestProm() *Prom {
	return NewProm(prometheus.NewRegistry())
}

func (p *Prom) ObserveDelivery(kind, result string, d time.Duration) {
	p.DeliveryResults.WithLabelValues(kind, result).Inc()
	p.DeliveryDuration.WithLabelValues(kind, result).Observe(d.Seconds())
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only known after routing
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
