// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace 默认命名空间
const DefaultNamespace = "hotel_inventory"

// 业务结果标签
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	reservationsTotal    *prometheus.CounterVec
	checkInsTotal        *prometheus.CounterVec
	roomStatusChanges    *prometheus.CounterVec
	availabilityChecks   *prometheus.CounterVec
	lockWaitDuration     prometheus.Histogram
	sequencesPruned      prometheus.Counter
}

var (
	defaultMetrics *Metrics
	mu             sync.Mutex
)

// Init 初始化指标收集器
// 同一命名空间只能初始化一次，重复注册会 panic
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := build(namespace)

	mu.Lock()
	defaultMetrics = m
	mu.Unlock()
	return m
}

func build(namespace string) *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		reservationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservations_total",
				Help:      "Total number of reservation operations",
			},
			[]string{"action", "result"},
		),
		checkInsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_ins_total",
				Help:      "Total number of check-in operations",
			},
			[]string{"action", "result"},
		),
		roomStatusChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "room_status_changes_total",
				Help:      "Total number of room status writes",
			},
			[]string{"status"},
		),
		availabilityChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "availability_checks_total",
				Help:      "Total number of availability checks",
			},
			[]string{"available"},
		),
		lockWaitDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "room_lock_wait_seconds",
				Help:      "Time spent waiting for a room lock",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
		sequencesPruned: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_sequences_pruned_total",
				Help:      "Total number of pruned reservation number sequences",
			},
		),
	}
}

// GetMetrics 获取默认指标收集器，未初始化时按默认命名空间初始化
func GetMetrics() *Metrics {
	mu.Lock()
	defer mu.Unlock()
	if defaultMetrics == nil {
		defaultMetrics = build(DefaultNamespace)
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware(skipPath string) gin.HandlerFunc {
	if skipPath == "" {
		skipPath = "/metrics"
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == skipPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordReservation 记录预订操作
func (m *Metrics) RecordReservation(action, result string) {
	m.reservationsTotal.WithLabelValues(action, result).Inc()
}

// RecordCheckIn 记录入住操作
func (m *Metrics) RecordCheckIn(action, result string) {
	m.checkInsTotal.WithLabelValues(action, result).Inc()
}

// RecordRoomStatus 记录房间状态写入
func (m *Metrics) RecordRoomStatus(status string) {
	m.roomStatusChanges.WithLabelValues(status).Inc()
}

// RecordAvailability 记录可用性判定
func (m *Metrics) RecordAvailability(available bool) {
	m.availabilityChecks.WithLabelValues(strconv.FormatBool(available)).Inc()
}

// ObserveLockWait 记录房间锁等待时长
func (m *Metrics) ObserveLockWait(d time.Duration) {
	m.lockWaitDuration.Observe(d.Seconds())
}

// AddSequencesPruned 记录清理的序列数
func (m *Metrics) AddSequencesPruned(n int64) {
	if n > 0 {
		m.sequencesPruned.Add(float64(n))
	}
}

// Result 按错误得到结果标签
// rejected 表示业务拒绝，error 表示内部失败
func Result(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return ResultSuccess
	case rejected != nil && rejected(err):
		return ResultRejected
	default:
		return ResultError
	}
}
