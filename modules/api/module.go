package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-registry/modules/activity"
	"github.com/example/task-registry/modules/health"
	"github.com/example/task-registry/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AppName        string
	AllowedOrigins string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	// AccessLog enables the request logging middleware.
	AccessLog bool
}

// APIModule is the driving adapter that exposes the task registry over HTTP.
// It reaches the core domain only through TaskPort and ActivityPort.
type APIModule struct {
	opts         Options
	app          *fiber.App
	taskPort     task.TaskPort
	activityPort activity.ActivityPort
	reporter     *health.Reporter
	rateLimit    fiber.Handler
	logger       types.Logger
}

var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates the API module. rateLimit may be nil.
func NewModule(opts Options, reporter *health.Reporter, rateLimit fiber.Handler, logger types.Logger) *APIModule {
	return &APIModule{
		opts:      opts,
		reporter:  reporter,
		rateLimit: rateLimit,
		logger:    logger,
	}
}

func (m *APIModule) Name() string {
	return "api"
}

func (m *APIModule) Dependencies() []string {
	return []string{"task", "activity"}
}

func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "activity":
		m.activityPort = activity.NewActivityAdapter(container)
	}
}

func (m *APIModule) Start(_ context.Context) error {
	if m.taskPort == nil {
		return errors.New("task port dependency not set")
	}
	if m.activityPort == nil {
		return errors.New("activity port dependency not set")
	}

	m.app = m.setupApp()

	// Catch immediate startup errors such as a port already in use.
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.opts.Addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "addr", m.opts.Addr)
	return nil
}

func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	if m.app == nil {
		return mono.HealthStatus{Healthy: false, Message: "server not started"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"addr": m.opts.Addr},
	}
}

// setupApp builds the Fiber app with middleware and routes.
func (m *APIModule) setupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               m.opts.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		ReadTimeout:           m.opts.ReadTimeout,
		WriteTimeout:          m.opts.WriteTimeout,
		IdleTimeout:           m.opts.IdleTimeout,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if m.opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
		}))
	}
	if m.opts.AllowedOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: m.opts.AllowedOrigins,
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders: "Content-Type,Authorization",
		}))
	}
	if m.rateLimit != nil {
		app.Use(m.rateLimit)
	}

	m.registerRoutes(app)
	return app
}

// errorHandler renders errors in the response envelope. Server errors never
// expose their cause.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		m.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fail(message))
}
