package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRegistry creates an isolated registry so one process run exports only
// its own metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// WriteTextfile writes every metric gathered from g to path in the
// node_exporter textfile collector format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
