// Package health runs diagnostic checks against the pieces HeyRaji depends on:
// the settings storage backend, the session store and the auth backend.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewStorageChecker(store, settings.StorageKey))
//	manager.AddChecker(health.NewSessionChecker(sessions))
//
//	for _, result := range manager.Check(ctx) {
//	    log.Info("health check", "name", result.Name, "status", result.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies a single dependency.
type Checker interface {
	// Name identifies the check in results, lowercase with hyphens.
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded indicates the component works but needs attention,
	// for example an expired session.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy indicates the component is not working.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result is the outcome of one check.
type Result struct {
	// Name is filled in by the Manager from Checker.Name.
	Name string

	Status  Status
	Message string

	// Remedy is a command or action that would fix a degraded or unhealthy
	// component.
	Remedy string

	Details map[string]interface{}
	Latency time.Duration
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithRemedy sets the suggested fix and returns the result for chaining.
func (r *Result) WithRemedy(remedy string) *Result {
	r.Remedy = remedy
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
