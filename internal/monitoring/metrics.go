package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ScansTotal         prometheus.Counter
	ListingsFound      prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	MonitorRunning     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "crouswatch_scans_total",
			Help: "The total number of completed scan cycles",
		}),
		ListingsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "crouswatch_listings_found_total",
			Help: "The total number of listings found across all scans",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crouswatch_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'network', 'http', 'parse', 'notify'
		NotificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crouswatch_notifications_total",
			Help: "The total number of notification attempts",
		}, []string{"status"}), // 'sent' or 'failed'
		MonitorRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "crouswatch_monitor_running",
			Help: "Whether the monitor loop is currently running",
		}),
	}
}

func (m *Metrics) IncScansTotal() {
	m.ScansTotal.Inc()
}

func (m *Metrics) AddListingsFound(n int) {
	m.ListingsFound.Add(float64(n))
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) IncNotificationsTotal(status string) {
	m.NotificationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetMonitorRunning(running bool) {
	if running {
		m.MonitorRunning.Set(1)
		return
	}
	m.MonitorRunning.Set(0)
}
