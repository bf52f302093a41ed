package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsCreated đếm số đơn đặt chỗ commit thành công.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_reservations_created_total",
		Help: "Total number of reservations successfully created",
	})

	ReservationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_reservations_completed_total",
		Help: "Total number of reservations completed",
	})

	ReservationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_reservations_cancelled_total",
		Help: "Total number of reservations cancelled",
	})

	// ReservationsRejected đếm số lần Reserve bị từ chối, label reason
	// là "forbidden" (vai trò / loại xe) hoặc "conflict" (chỗ đã được đặt).
	ReservationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_reservations_rejected_total",
		Help: "Total number of rejected reservation attempts by reason",
	}, []string{"reason"})

	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// GinMiddleware ghi nhận counter và duration cho mỗi request.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler trả về handler cho GET /metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
