package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for HeyRaji
type Metrics struct {
	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Auth metrics
	AuthAttempts     *prometheus.CounterVec
	OTPSends         *prometheus.CounterVec
	CallbackOutcomes *prometheus.CounterVec
	CallbackDuration *prometheus.HistogramVec

	// Auth backend HTTP metrics
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec

	// Settings metrics
	SettingsLoads    *prometheus.CounterVec
	SettingsSaves    *prometheus.CounterVec
	LocaleMigrations *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heyraji_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_auth_attempts_total",
				Help: "Total number of attempts to obtain a session, by method and result",
			},
			[]string{"method", "result"},
		),
		OTPSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_otp_sends_total",
				Help: "Total number of one-time code requests",
			},
			[]string{"result"},
		),
		CallbackOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_callback_outcomes_total",
				Help: "Total number of auth callbacks by terminal state",
			},
			[]string{"state"},
		),
		CallbackDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heyraji_callback_duration_seconds",
				Help:    "Time from callback start to terminal state in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"state"},
		),

		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_backend_requests_total",
				Help: "Total number of auth backend requests",
			},
			[]string{"endpoint", "status"},
		),
		BackendLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heyraji_backend_latency_seconds",
				Help:    "Auth backend request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),

		SettingsLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_settings_loads_total",
				Help: "Total number of settings reads by outcome",
			},
			[]string{"outcome"},
		),
		SettingsSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_settings_saves_total",
				Help: "Total number of settings writes by result",
			},
			[]string{"result"},
		),
		LocaleMigrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_locale_migrations_total",
				Help: "Total number of stored languages rewritten on read",
			},
			[]string{"kind"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heyraji_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// The Record helpers are safe to call on a nil *Metrics so that components
// can run without a registry.

// RecordCommand records one command execution.
func (m *Metrics) RecordCommand(command string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordAuthAttempt records a session attempt for method ("otp_verify",
// "code_exchange", "token_pair", "existing_session", "refresh").
func (m *Metrics) RecordAuthAttempt(method, result string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(method, result).Inc()
}

// RecordOTPSend records a one-time code request.
func (m *Metrics) RecordOTPSend(result string) {
	if m == nil {
		return
	}
	m.OTPSends.WithLabelValues(result).Inc()
}

// RecordCallback records a callback reaching a terminal state.
func (m *Metrics) RecordCallback(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallbackOutcomes.WithLabelValues(state).Inc()
	m.CallbackDuration.WithLabelValues(state).Observe(d.Seconds())
}

// RecordBackendRequest records one auth backend round trip. status is the
// HTTP status code, or 0 when no response was received.
func (m *Metrics) RecordBackendRequest(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendRequests.WithLabelValues(endpoint, label).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordSettingsLoad records a settings read ("stored", "defaults", "fallback").
func (m *Metrics) RecordSettingsLoad(outcome string) {
	if m == nil {
		return
	}
	m.SettingsLoads.WithLabelValues(outcome).Inc()
}

// RecordSettingsSave records a settings write ("ok", "rejected", "error").
func (m *Metrics) RecordSettingsSave(result string) {
	if m == nil {
		return
	}
	m.SettingsSaves.WithLabelValues(result).Inc()
}

// RecordLocaleMigration records a stored language rewritten on read.
func (m *Metrics) RecordLocaleMigration(kind string) {
	if m == nil {
		return
	}
	m.LocaleMigrations.WithLabelValues(kind).Inc()
}

// RecordError counts an error by its code. Errors without a code are
// counted under "unknown".
func (m *Metrics) RecordError(code, component string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
