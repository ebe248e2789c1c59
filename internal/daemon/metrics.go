package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	AccrualTicks   prometheus.Counter
	AccruedSeconds *prometheus.CounterVec
	Commands       *prometheus.CounterVec
	TrackedApps    prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AccrualTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "tynamo_accrual_ticks_total",
			Help: "Accrual ticks that credited at least one app",
		}),
		AccruedSeconds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tynamo_accrued_seconds_total",
				Help: "Seconds of usage credited per app",
			},
			[]string{"app"},
		),
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tynamo_commands_total",
				Help: "Commands served by the API",
			},
			[]string{"command", "status"},
		),
		TrackedApps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tynamo_tracked_apps",
			Help: "Number of tracked apps",
		}),
	}
}

// RecordAccrual is installed as the usage monitor's accrual hook.
func (m *Metrics) RecordAccrual(credited []string, seconds int64) {
	m.AccrualTicks.Inc()
	for _, app := range credited {
		m.AccruedSeconds.WithLabelValues(app).Add(float64(seconds))
	}
}

func (m *Metrics) RecordCommand(command string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Commands.WithLabelValues(command, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
