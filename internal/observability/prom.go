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
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// NEO feed
	FeedDuration    *prometheus.HistogramVec
	FeedCacheResult *prometheus.CounterVec

	// Sessions
	SessionsSwept prometheus.Counter
	LoginsTotal   *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staroracle",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "staroracle",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "staroracle",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "staroracle",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staroracle",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		FeedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "staroracle",
				Subsystem: "neofeed",
				Name:      "fetch_duration_seconds",
				Help:      "Upstream NEO feed fetch latency by result.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"result"}, // result=ok|http_error|network_error|parse_error|circuit_open
		),
		FeedCacheResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staroracle",
				Subsystem: "neofeed",
				Name:      "cache_total",
				Help:      "Feed cache lookups by result.",
			},
			[]string{"result"}, // result=hit|miss|error
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "staroracle",
				Subsystem: "sessions",
				Name:      "swept_total",
				Help:      "Expired sessions removed by the sweeper.",
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "staroracle",
				Subsystem: "sessions",
				Name:      "logins_total",
				Help:      "Login attempts by kind and result.",
			},
			[]string{"kind", "result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal, p.FeedDuration, p.FeedCacheResult, p.SessionsSwept, p.LoginsTotal)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
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

// ObserveFeed records one upstream fetch. Safe on a nil receiver.
func (p *Prom) ObserveFeed(result string, d time.Duration) {
	if p == nil {
		return
	}
	p.FeedDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *Prom) ObserveFeedCache(result string) {
	if p == nil {
		return
	}
	p.FeedCacheResult.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveSweep(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.SessionsSwept.Add(float64(n))
}

func (p *Prom) ObserveLogin(kind, result string) {
	if p == nil {
		return
	}
	p.LoginsTotal.WithLabelValues(kind, result).Inc()
}
