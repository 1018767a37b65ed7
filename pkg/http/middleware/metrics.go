package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demandcast_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "demandcast_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 30, 120, 600},
		},
		[]string{"route", "method"},
	)

	regOnce sync.Once
)

// RequestMetrics records per-route request counts and latencies. The echo
// route template is used as the label to keep cardinality low.
func RequestMetrics() echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method

			httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Response().Status)).Inc()
			httpRequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
