package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimind_attempts_total",
			Help: "Answers processed, by correctness",
		},
		[]string{"correct"},
	)

	GateSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimind_gate_selections_total",
			Help: "Gate question selections, by outcome",
		},
		[]string{"outcome"},
	)

	StreakTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unimind_streak_transitions_total",
			Help: "Daily streak updates, by transition",
		},
		[]string{"transition"},
	)

	MasteryRating = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unimind_topic_rating",
			Help:    "Topic mastery rating after each processed answer",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AttemptsTotal)
		prometheus.MustRegister(GateSelections)
		prometheus.MustRegister(StreakTransitions)
		prometheus.MustRegister(MasteryRating)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
