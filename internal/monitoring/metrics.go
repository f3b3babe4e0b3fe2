package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the service's Prometheus metrics over a private
// registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	activeRequests  prometheus.Gauge
	invitesIssued   prometheus.Counter
	invitesRedeemed prometheus.Counter
	invitesSwept    prometheus.Counter
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamtasks_http_requests_total",
			Help: "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamtasks_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamtasks_http_active_requests",
			Help: "In-flight HTTP requests.",
		}),
		invitesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamtasks_invites_issued_total",
			Help: "Invite tokens issued.",
		}),
		invitesRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamtasks_invites_redeemed_total",
			Help: "Invite tokens successfully redeemed.",
		}),
		invitesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamtasks_invites_swept_total",
			Help: "Expired invite tokens removed by the sweeper.",
		}),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.activeRequests,
		c.invitesIssued,
		c.invitesRedeemed,
		c.invitesSwept,
	)

	return c
}

func (c *Collector) RecordInviteIssued()      { c.invitesIssued.Inc() }
func (c *Collector) RecordInviteRedeemed()    { c.invitesRedeemed.Inc() }
func (c *Collector) RecordInvitesSwept(n int) { c.invitesSwept.Add(float64(n)) }

// Middleware records request count, latency and in-flight gauge for
// every route.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		c.activeRequests.Inc()

		ctx.Next()

		c.activeRequests.Dec()
		c.requestDuration.Observe(time.Since(start).Seconds())

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		c.requestsTotal.WithLabelValues(
			ctx.Request.Method,
			path,
			strconv.Itoa(ctx.Writer.Status()),
		).Inc()
	}
}

// Handler serves the /metrics endpoint.
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
