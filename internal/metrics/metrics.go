package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reportsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_created_total",
			Help: "Total number of reports registered",
		},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_uploads_total",
			Help: "Total number of file upload attempts",
		},
		[]string{"result"}, // accepted, rejected, failed
	)

	realtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Total number of change-feed events applied",
		},
		[]string{"table", "kind"},
	)

	realtimeConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected",
			Help: "Whether the change-feed bridge is connected (1) or not (0)",
		},
	)

	websocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected dashboard websocket clients",
		},
	)

	reportsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reports_by_status",
			Help: "Number of reports by derived status",
		},
		[]string{"status"},
	)

	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(reportsCreatedTotal)
	prometheus.MustRegister(uploadsTotal)
	prometheus.MustRegister(realtimeEventsTotal)
	prometheus.MustRegister(realtimeConnected)
	prometheus.MustRegister(websocketClients)
	prometheus.MustRegister(reportsByStatus)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)

	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one handled HTTP request.
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordReportCreated counts one newly registered report.
func RecordReportCreated() {
	reportsCreatedTotal.Inc()
}

// RecordUpload counts one upload attempt by outcome.
func RecordUpload(result string) {
	uploadsTotal.WithLabelValues(result).Inc()
}

// RecordRealtimeEvent counts one applied change-feed event.
func RecordRealtimeEvent(table, kind string) {
	realtimeEventsTotal.WithLabelValues(table, kind).Inc()
}

// SetRealtimeConnected reflects the bridge connectivity.
func SetRealtimeConnected(connected bool) {
	if connected {
		realtimeConnected.Set(1)
	} else {
		realtimeConnected.Set(0)
	}
}

// SetWebsocketClients reflects the dashboard client count.
func SetWebsocketClients(count int) {
	websocketClients.Set(float64(count))
}

// SetReportsByStatus reflects the report status distribution.
func SetReportsByStatus(status string, count float64) {
	reportsByStatus.WithLabelValues(status).Set(count)
}

// UpdateDatabaseConnections samples the sql pool gauges.
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))

	return nil
}
