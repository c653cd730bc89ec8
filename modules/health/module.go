package health

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// HealthModule publishes the reporter through mono's health checks.
type HealthModule struct {
	reporter *Reporter
	logger   types.Logger
}

var _ mono.Module = (*HealthModule)(nil)
var _ mono.HealthCheckableModule = (*HealthModule)(nil)

// NewModule creates a health module around reporter.
func NewModule(reporter *Reporter, logger types.Logger) *HealthModule {
	return &HealthModule{reporter: reporter, logger: logger}
}

func (m *HealthModule) Name() string {
	return "health"
}

// Reporter returns the underlying reporter.
func (m *HealthModule) Reporter() *Reporter {
	return m.reporter
}

func (m *HealthModule) Start(_ context.Context) error {
	m.logger.Info("Health module started", "version", m.reporter.Version())
	return nil
}

func (m *HealthModule) Stop(_ context.Context) error {
	m.logger.Info("Health module stopped")
	return nil
}

// Health is unhealthy only when memory use crosses the unhealthy threshold.
func (m *HealthModule) Health(_ context.Context) mono.HealthStatus {
	report := m.reporter.Report()
	return mono.HealthStatus{
		Healthy: report.Status != StatusUnhealthy,
		Message: string(report.Status),
		Details: map[string]any{
			"uptime":         report.Uptime,
			"version":        report.Version,
			"memory_percent": report.Memory.Percent,
		},
	}
}
