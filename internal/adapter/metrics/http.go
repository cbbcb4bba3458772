package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks requests to the local API.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	labels := []string{"method", "route", "status_code"}
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of API requests.",
		}, labels),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 3, 8),
		}, labels),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "in_flight_requests",
			Help: "API requests currently being served.",
		}),
	}

	reg.MustRegister(m.Requests, m.Latency, m.InFlight)
	return m
}

// Middleware records API requests. Scrapes, probes and the overlay socket
// are left out; the socket's upgrade request lives as long as the
// connection.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if !recorded(route) {
				return next(c)
			}
			if route == "" {
				route = "unmatched"
			}

			m.InFlight.Inc()
			start := time.Now()
			err := next(c)
			m.InFlight.Dec()

			status := strconv.Itoa(c.Response().Status)
			m.Requests.WithLabelValues(c.Request().Method, route, status).Inc()
			m.Latency.WithLabelValues(c.Request().Method, route, status).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func recorded(route string) bool {
	switch {
	case route == "/metrics", route == "/connection/websocket":
		return false
	case strings.HasPrefix(route, "/health/"):
		return false
	default:
		return true
	}
}
