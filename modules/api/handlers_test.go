package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/example/task-registry/domain/task"
	"github.com/example/task-registry/modules/activity"
	"github.com/example/task-registry/modules/health"
	"github.com/example/task-registry/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// registryPort serves TaskPort straight from a registry.
type registryPort struct {
	r *task.Registry
}

func (p registryPort) CreateTask(_ context.Context, in domain.Input) (*domain.Task, error) {
	t, err := p.r.Create(in)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p registryPort) GetTask(_ context.Context, id string) (*domain.Task, error) {
	t, err := p.r.Get(id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p registryPort) ListTasks(_ context.Context, f domain.Filter) (*task.ListTasksReply, error) {
	return &task.ListTasksReply{Tasks: p.r.List(f), Total: p.r.Count(f)}, nil
}

func (p registryPort) UpdateTask(_ context.Context, id string, patch domain.Patch) (*domain.Task, error) {
	t, err := p.r.Update(id, patch)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p registryPort) DeleteTask(_ context.Context, id string) (bool, error) {
	return p.r.Delete(id), nil
}

func (p registryPort) TaskStats(_ context.Context) (*domain.Stats, error) {
	s := p.r.Stats()
	return &s, nil
}

// brokenPort fails every call with an infrastructure error.
type brokenPort struct{}

var errBroken = errors.New("nats: connection closed")

func (brokenPort) CreateTask(context.Context, domain.Input) (*domain.Task, error) { return nil, errBroken }
func (brokenPort) GetTask(context.Context, string) (*domain.Task, error)         { return nil, errBroken }
func (brokenPort) ListTasks(context.Context, domain.Filter) (*task.ListTasksReply, error) {
	return nil, errBroken
}
func (brokenPort) UpdateTask(context.Context, string, domain.Patch) (*domain.Task, error) {
	return nil, errBroken
}
func (brokenPort) DeleteTask(context.Context, string) (bool, error)   { return false, errBroken }
func (brokenPort) TaskStats(context.Context) (*domain.Stats, error) { return nil, errBroken }

type feedPort struct {
	feed *activity.Feed
}

func (p feedPort) RecentActivity(_ context.Context, limit int) ([]activity.Entry, error) {
	return p.feed.Recent(limit), nil
}

func newTestModule(port task.TaskPort, memPercent uint64) (*APIModule, *fiber.App) {
	reporter := health.NewReporter("1.0.0", health.WithMemorySampler(func() (uint64, uint64) {
		return memPercent, 100
	}))
	m := NewModule(Options{AppName: "Task Registry"}, reporter, nil, &mockLogger{})
	m.taskPort = port
	feed := activity.NewFeed(10)
	feed.Record(activity.Entry{TaskID: "a", Kind: activity.KindCreated})
	feed.Record(activity.Entry{TaskID: "b", Kind: activity.KindCreated})
	m.activityPort = feedPort{feed: feed}
	return m, m.setupApp()
}

func newTestApp() *fiber.App {
	_, app := newTestModule(registryPort{r: task.NewRegistry()}, 10)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	return resp.StatusCode, decoded
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, isMap := body["data"].(map[string]any)
	require.True(t, isMap, "data is not an object: %v", body["data"])
	return d
}

func TestAPI_TaskLifecycle(t *testing.T) {
	for _, prefix := range []string{"/tasks", "/api/v1/tasks"} {
		t.Run(prefix, func(t *testing.T) {
			app := newTestApp()

			code, body := do(t, app, "POST", prefix, `{"title":"Deploy","priority":"high"}`)
			require.Equal(t, fiber.StatusCreated, code)
			assert.Equal(t, true, body["success"])
			created := data(t, body)
			assert.Equal(t, "pending", created["status"])
			assert.Equal(t, "high", created["priority"])
			assert.Nil(t, created["dueDate"])
			id := created["id"].(string)

			code, body = do(t, app, "PUT", prefix+"/"+id, `{"status":"completed"}`)
			require.Equal(t, fiber.StatusOK, code)
			updated := data(t, body)
			assert.Equal(t, "completed", updated["status"])
			assert.Equal(t, "Deploy", updated["title"])
			assert.Equal(t, created["createdAt"], updated["createdAt"])

			code, body = do(t, app, "GET", prefix+"/stats", "")
			require.Equal(t, fiber.StatusOK, code)
			stats := data(t, body)
			assert.Equal(t, float64(1), stats["total"])
			assert.Equal(t, float64(1), stats["byStatus"].(map[string]any)["completed"])
			assert.Equal(t, float64(0), stats["byStatus"].(map[string]any)["pending"])

			code, body = do(t, app, "DELETE", prefix+"/"+id, "")
			assert.Equal(t, fiber.StatusNoContent, code)
			assert.Nil(t, body)

			code, body = do(t, app, "GET", prefix+"/"+id, "")
			assert.Equal(t, fiber.StatusNotFound, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Task not found", body["error"])
		})
	}
}

func TestAPI_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  int
		error string
		field string
	}{
		{"empty title", `{"title":""}`, fiber.StatusBadRequest, "Validation failed", "title"},
		{"missing title", `{"description":"x"}`, fiber.StatusBadRequest, "Validation failed", "title"},
		{"long title", `{"title":"` + strings.Repeat("A", 201) + `"}`, fiber.StatusBadRequest, "Validation failed", "title"},
		{"bad priority", `{"title":"ok","priority":"urgent"}`, fiber.StatusBadRequest, "Validation failed", "priority"},
		{"wrong type", `{"title":42}`, fiber.StatusBadRequest, "Validation failed", "title"},
		{"not json", `{"title":`, fiber.StatusBadRequest, "Invalid JSON body", ""},
		{"array", `[1,2]`, fiber.StatusBadRequest, "Invalid JSON body", ""},
		{"empty body", ``, fiber.StatusBadRequest, "Invalid JSON body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			code, body := do(t, app, "POST", "/tasks", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.error, body["error"])
			if tt.field != "" {
				details, isList := body["details"].([]any)
				require.True(t, isList)
				require.NotEmpty(t, details)
				assert.Equal(t, tt.field, details[0].(map[string]any)["field"])
			}

			_, list := do(t, app, "GET", "/tasks", "")
			assert.Equal(t, float64(0), list["count"], "rejected create must not store a task")
		})
	}

	code, _ := do(t, newTestApp(), "POST", "/tasks", `{"title":"`+strings.Repeat("A", 200)+`"}`)
	assert.Equal(t, fiber.StatusCreated, code)
}

func TestAPI_ListFilters(t *testing.T) {
	app := newTestApp()
	for _, body := range []string{
		`{"title":"a","priority":"low"}`,
		`{"title":"b","priority":"high"}`,
		`{"title":"c","priority":"high","status":"in-progress"}`,
	} {
		code, _ := do(t, app, "POST", "/tasks", body)
		require.Equal(t, fiber.StatusCreated, code)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a", "b", "c"}},
		{"?priority=high", []string{"b", "c"}},
		{"?status=pending", []string{"a", "b"}},
		{"?status=in-progress&priority=high", []string{"c"}},
		{"?status=bogus", []string{"a", "b", "c"}},
		{"?priority=urgent&status=pending", []string{"a", "b"}},
		{"?limit=2", []string{"a", "b"}},
		{"?offset=1&limit=1", []string{"b"}},
		{"?limit=abc", []string{"a", "b", "c"}},
		{"?offset=-2", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, body := do(t, app, "GET", "/tasks"+tt.query, "")
			require.Equal(t, fiber.StatusOK, code)
			items := body["data"].([]any)
			var titles []string
			for _, it := range items {
				titles = append(titles, it.(map[string]any)["title"].(string))
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, float64(len(tt.want)), body["count"])
		})
	}
}

func TestAPI_EmptyListIsArray(t *testing.T) {
	code, body := do(t, newTestApp(), "GET", "/tasks", "")
	require.Equal(t, fiber.StatusOK, code)
	items, isList := body["data"].([]any)
	require.True(t, isList)
	assert.Empty(t, items)
	assert.Equal(t, float64(0), body["count"])
}

func TestAPI_UpdateErrors(t *testing.T) {
	app := newTestApp()
	_, body := do(t, app, "POST", "/tasks", `{"title":"X","priority":"low"}`)
	id := data(t, body)["id"].(string)

	code, body := do(t, app, "PUT", "/tasks/missing", `{"title":"Y"}`)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Task not found", body["error"])

	code, _ = do(t, app, "PUT", "/tasks/missing", `not json`)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body = do(t, app, "PUT", "/tasks/"+id, `{"status":"done"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", body["error"])

	code, body = do(t, app, "PUT", "/tasks/"+id, `{"title":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = do(t, app, "PUT", "/tasks/"+id, `{oops`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid JSON body", body["error"])

	_, body = do(t, app, "GET", "/tasks/"+id, "")
	unchanged := data(t, body)
	assert.Equal(t, "X", unchanged["title"])
	assert.Equal(t, "low", unchanged["priority"])
}

func TestAPI_UpdateDueDate(t *testing.T) {
	app := newTestApp()
	_, body := do(t, app, "POST", "/tasks", `{"title":"X","dueDate":"2030-01-02T03:04:05+02:00"}`)
	created := data(t, body)
	assert.Equal(t, "2030-01-02T01:04:05Z", created["dueDate"])

	code, body := do(t, app, "PUT", "/tasks/"+created["id"].(string), `{"dueDate":null}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Nil(t, data(t, body)["dueDate"])
}

func TestAPI_DeleteMissing(t *testing.T) {
	code, body := do(t, newTestApp(), "DELETE", "/tasks/nope", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Task not found", body["error"])
}

func TestAPI_InternalErrorsAreHidden(t *testing.T) {
	_, app := newTestModule(brokenPort{}, 10)

	for _, tc := range []struct{ method, path, body string }{
		{"GET", "/tasks", ""},
		{"GET", "/tasks/x", ""},
		{"POST", "/tasks", `{"title":"a"}`},
		{"DELETE", "/tasks/x", ""},
		{"GET", "/tasks/stats", ""},
	} {
		code, body := do(t, app, tc.method, tc.path, tc.body)
		assert.Equal(t, fiber.StatusInternalServerError, code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Internal Server Error", body["error"])
		assert.NotContains(t, body["error"], "nats")
	}
}

func TestAPI_UnknownRoute(t *testing.T) {
	code, body := do(t, newTestApp(), "GET", "/nope", "")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestAPI_Health(t *testing.T) {
	_, app := newTestModule(registryPort{r: task.NewRegistry()}, 80)
	code, body := do(t, app, "GET", "/health", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "timestamp")
	memory := body["memory"].(map[string]any)
	assert.Equal(t, float64(80), memory["percent"])

	_, sick := newTestModule(registryPort{r: task.NewRegistry()}, 95)
	code, body = do(t, sick, "GET", "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestAPI_Probes(t *testing.T) {
	app := newTestApp()

	code, body := do(t, app, "GET", "/health/live", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "alive", body["status"])
	assert.Greater(t, body["pid"], float64(0))

	code, body = do(t, app, "GET", "/ready", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, body = do(t, app, "GET", "/", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Task Registry", body["name"])
	assert.NotEmpty(t, body["endpoints"])
}

func TestAPI_Activity(t *testing.T) {
	app := newTestApp()

	code, body := do(t, app, "GET", "/activity", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])

	_, body = do(t, app, "GET", "/activity?limit=1", "")
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].(map[string]any)["taskId"])
}

func TestAPIModule_Lifecycle(t *testing.T) {
	m := NewModule(Options{Addr: ":0"}, health.NewReporter("dev"), nil, &mockLogger{})
	assert.Equal(t, "api", m.Name())
	assert.Equal(t, []string{"task", "activity"}, m.Dependencies())
	assert.Error(t, m.Start(context.Background()), "start without ports must fail")
	assert.False(t, m.Health(context.Background()).Healthy)
	assert.NoError(t, m.Stop(context.Background()))
}
