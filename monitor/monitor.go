// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	RequestLatency prometheus.Histogram
	StoreErrors    prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "HTTP request processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of requests that failed on the store",
		}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestLatency,
		m.StoreErrors,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go http.ListenAndServe(addr, nil)
}

func (m *Monitor) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.metrics.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.metrics.RequestLatency.Observe(duration.Seconds())
	if status >= http.StatusInternalServerError {
		m.metrics.StoreErrors.Inc()
	}

	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}
