// Package monitor exports instrument session activity as Prometheus metrics.
package monitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skgsergio/bkp9151-toolkit/lib/bkp9151"
)

// Metrics implements bkp9151.Observer.
type Metrics struct {
	commands     *prometheus.CounterVec
	failures     *prometheus.CounterVec
	deviceErrors prometheus.Counter
	lastCode     prometheus.Gauge
	roundTrip    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. Passing nil uses a fresh
// registry, which is what Handler then serves.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bkp9151_commands_total",
			Help: "Commands sent to the instrument.",
		}, []string{"op", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bkp9151_command_errors_total",
			Help: "Commands that failed, by failure class.",
		}, []string{"op", "class"}),
		deviceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bkp9151_device_errors_total",
			Help: "Non-zero entries read from the instrument error queue.",
		}),
		lastCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bkp9151_last_error_code",
			Help: "Code of the most recent error queue entry.",
		}),
		roundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bkp9151_round_trip_seconds",
			Help:    "Time for a command and its error queue query.",
			Buckets: []float64{.025, .05, .1, .15, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.commands, m.failures, m.deviceErrors, m.lastCode, m.roundTrip} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func kindOf(cmd bkp9151.Command) string {
	if cmd.IsQuery() {
		return "query"
	}
	return "set"
}

// ClassOf names the failure class of an error returned by a session.
func ClassOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bkp9151.ErrSessionClosed):
		return "closed"
	case errors.Is(err, bkp9151.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, bkp9151.ErrReadTimeout):
		return "timeout"
	case errors.Is(err, bkp9151.ErrDeviceBusy):
		return "busy"
	case errors.Is(err, bkp9151.ErrTransport):
		return "transport"
	default:
		return "other"
	}
}

// ObserveCommand records one command. Commands rejected before any I/O only
// count as failures.
func (m *Metrics) ObserveCommand(cmd bkp9151.Command, elapsed time.Duration, report bkp9151.ErrorReport, err error) {
	switch class := ClassOf(err); class {
	case "closed", "invalid_parameter":
		m.failures.WithLabelValues(cmd.Op(), class).Inc()
		return
	}

	kind := kindOf(cmd)
	m.commands.WithLabelValues(cmd.Op(), kind).Inc()
	m.roundTrip.WithLabelValues(kind).Observe(elapsed.Seconds())

	if err != nil {
		m.failures.WithLabelValues(cmd.Op(), ClassOf(err)).Inc()
		return
	}

	if report.Parsed {
		m.lastCode.Set(float64(report.Code))
		if report.Code != 0 {
			m.deviceErrors.Inc()
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
