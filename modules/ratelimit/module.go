package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis connection used by the limiter. With an empty
// address the module stays disabled and its handler passes every request.
type Module struct {
	addr     string
	password string
	config   Config
	client   *redis.Client
	limiter  *SlidingWindowLimiter
	logger   types.Logger
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a rate limiting module for the Redis server at addr.
func NewModule(addr, password string, config Config, logger types.Logger) *Module {
	return &Module{
		addr:     addr,
		password: password,
		config:   config,
		logger:   logger,
	}
}

func (m *Module) Name() string {
	return "ratelimit"
}

// Enabled reports whether a Redis address was configured.
func (m *Module) Enabled() bool {
	return m.addr != ""
}

func (m *Module) Start(ctx context.Context) error {
	if !m.Enabled() {
		m.logger.Info("Rate limiting disabled, no Redis address configured")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:     m.addr,
		Password: m.password,
	})
	if err := m.client.Ping(ctx).Err(); err != nil {
		_ = m.client.Close()
		m.client = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", m.addr, err)
	}

	m.limiter = NewSlidingWindowLimiter(m.client, m.config)
	m.logger.Info("Rate limiting enabled",
		"redis", m.addr,
		"requests", m.config.Requests,
		"window", m.config.Window.String())
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Error("Error closing Redis connection", "error", err)
		}
		m.client = nil
	}
	m.logger.Info("Rate limit module stopped")
	return nil
}

// Handler returns the Fiber middleware. The limiter is resolved per request,
// so the handler may be mounted before Start runs.
func (m *Module) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.limiter == nil {
			return c.Next()
		}
		return Middleware(m.limiter, m.config.Requests)(c)
	}
}

func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if !m.Enabled() {
		return mono.HealthStatus{Healthy: true, Message: "disabled"}
	}
	if m.client == nil {
		return mono.HealthStatus{Healthy: false, Message: "redis client not initialized"}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: err.Error()}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"redis": m.addr},
	}
}
