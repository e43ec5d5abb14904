package health

import (
	"testing"
	"time"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("Status.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		status Status
	}{
		{"healthy", Healthy("msg"), StatusHealthy},
		{"degraded", Degraded("msg"), StatusDegraded},
		{"unhealthy", Unhealthy("msg"), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Message != "msg" {
				t.Errorf("Message = %q, want %q", tt.result.Message, "msg")
			}
			if tt.result.Details == nil {
				t.Error("Details should be initialized")
			}
		})
	}
}

func TestFluentAPI(t *testing.T) {
	result := Degraded("not signed in").
		WithDetail("backend", "file").
		WithRemedy("heyraji auth login").
		WithLatency(50 * time.Millisecond)

	if result.Remedy != "heyraji auth login" {
		t.Errorf("Remedy = %q", result.Remedy)
	}
	if result.Latency != 50*time.Millisecond {
		t.Errorf("Latency = %v, want %v", result.Latency, 50*time.Millisecond)
	}
	if val, ok := result.Details["backend"].(string); !ok || val != "file" {
		t.Errorf("Details[backend] = %v, want %q", result.Details["backend"], "file")
	}
}
