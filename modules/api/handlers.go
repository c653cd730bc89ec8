package api

import (
	"errors"
	"os"
	"strconv"

	domain "github.com/example/task-registry/domain/task"
	"github.com/example/task-registry/modules/health"
	"github.com/example/task-registry/modules/task"
	"github.com/gofiber/fiber/v2"
)

const defaultActivityLimit = 50

// registerRoutes mounts every endpoint on app.
func (m *APIModule) registerRoutes(app *fiber.App) {
	app.Get("/", m.info)
	app.Get("/health", m.health)
	app.Get("/health/live", m.live)
	app.Get("/ready", m.ready)
	app.Get("/activity", m.recentActivity)

	m.registerTaskRoutes(app.Group("/tasks"))
	m.registerTaskRoutes(app.Group("/api/v1/tasks"))
}

func (m *APIModule) registerTaskRoutes(r fiber.Router) {
	r.Post("/", m.createTask)
	r.Get("/", m.listTasks)
	// stats must be registered before /:id
	r.Get("/stats", m.taskStats)
	r.Get("/:id", m.getTask)
	r.Put("/:id", m.updateTask)
	r.Delete("/:id", m.deleteTask)
}

// createTask handles POST /tasks.
func (m *APIModule) createTask(c *fiber.Ctx) error {
	in, err := domain.DecodeInput(c.Body())
	if err != nil {
		return m.sendError(c, err)
	}

	created, err := m.taskPort.CreateTask(c.UserContext(), in)
	if err != nil {
		return m.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ok(created))
}

// listTasks handles GET /tasks. Unknown status or priority values and
// malformed pagination parameters are ignored.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	var filter domain.Filter
	if s, valid := domain.ParseStatus(c.Query("status")); valid {
		filter.Status = &s
	}
	if p, valid := domain.ParsePriority(c.Query("priority")); valid {
		filter.Priority = &p
	}
	filter.Limit = nonNegativeQuery(c, "limit")
	filter.Offset = nonNegativeQuery(c, "offset")

	reply, err := m.taskPort.ListTasks(c.UserContext(), filter)
	if err != nil {
		return m.sendError(c, err)
	}
	return c.JSON(okList(reply.Tasks, len(reply.Tasks)))
}

// taskStats handles GET /tasks/stats.
func (m *APIModule) taskStats(c *fiber.Ctx) error {
	stats, err := m.taskPort.TaskStats(c.UserContext())
	if err != nil {
		return m.sendError(c, err)
	}
	return c.JSON(ok(stats))
}

// getTask handles GET /tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	t, err := m.taskPort.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.sendError(c, err)
	}
	return c.JSON(ok(t))
}

// updateTask handles PUT /tasks/:id.
func (m *APIModule) updateTask(c *fiber.Ctx) error {
	id := c.Params("id")

	patch, err := domain.DecodePatch(c.Body())
	if err != nil {
		// A missing task takes precedence over a bad body.
		if _, getErr := m.taskPort.GetTask(c.UserContext(), id); errors.Is(getErr, task.ErrTaskNotFound) {
			return m.sendError(c, getErr)
		}
		return m.sendError(c, err)
	}

	updated, err := m.taskPort.UpdateTask(c.UserContext(), id, patch)
	if err != nil {
		return m.sendError(c, err)
	}
	return c.JSON(ok(updated))
}

// deleteTask handles DELETE /tasks/:id.
func (m *APIModule) deleteTask(c *fiber.Ctx) error {
	deleted, err := m.taskPort.DeleteTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.sendError(c, err)
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fail(msgTaskNotFound))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// recentActivity handles GET /activity.
func (m *APIModule) recentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultActivityLimit)
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	entries, err := m.activityPort.RecentActivity(c.UserContext(), limit)
	if err != nil {
		return m.sendError(c, err)
	}
	return c.JSON(okList(entries, len(entries)))
}

// health handles GET /health, answering 503 when unhealthy.
func (m *APIModule) health(c *fiber.Ctx) error {
	report := m.reporter.Report()
	status := fiber.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// live handles GET /health/live.
func (m *APIModule) live(c *fiber.Ctx) error {
	return c.JSON(LiveResponse{
		Status: "alive",
		PID:    os.Getpid(),
		Uptime: m.reporter.Uptime().Seconds(),
	})
}

// ready handles GET /ready.
func (m *APIModule) ready(c *fiber.Ctx) error {
	if m.taskPort == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ReadyResponse{Status: "not ready"})
	}
	return c.JSON(ReadyResponse{Status: "ready"})
}

// info handles GET /.
func (m *APIModule) info(c *fiber.Ctx) error {
	return c.JSON(InfoResponse{
		Name:      m.opts.AppName,
		Version:   m.reporter.Version(),
		Endpoints: endpoints,
	})
}

// sendError maps domain errors to status codes.
func (m *APIModule) sendError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrMalformedBody):
		return c.Status(fiber.StatusBadRequest).JSON(fail(msgInvalidJSON))
	case errors.As(err, &verr):
		resp := fail(msgValidationFailed)
		resp.Details = verr.Fields
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.Is(err, task.ErrTaskNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fail(msgTaskNotFound))
	default:
		m.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fail(msgInternal))
	}
}

// nonNegativeQuery returns the integer query parameter key, or 0 when it is
// absent, malformed or negative.
func nonNegativeQuery(c *fiber.Ctx, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
