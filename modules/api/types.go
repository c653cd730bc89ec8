package api

import (
	domain "github.com/example/task-registry/domain/task"
)

// Response is the envelope shared by every JSON endpoint.
type Response struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Error   string              `json:"error,omitempty"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func ok(data any) Response {
	return Response{Success: true, Data: data}
}

func okList(data any, count int) Response {
	return Response{Success: true, Data: data, Count: &count}
}

func fail(message string) Response {
	return Response{Success: false, Error: message}
}

// Error messages returned to clients.
const (
	msgValidationFailed = "Validation failed"
	msgInvalidJSON      = "Invalid JSON body"
	msgTaskNotFound     = "Task not found"
	msgInternal         = "Internal Server Error"
)

// LiveResponse is the liveness probe body.
type LiveResponse struct {
	Status string  `json:"status"`
	PID    int     `json:"pid"`
	Uptime float64 `json:"uptime"`
}

// ReadyResponse is the readiness probe body.
type ReadyResponse struct {
	Status string `json:"status"`
}

// InfoResponse describes the service at GET /.
type InfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// endpoints lists the routes advertised by GET /.
var endpoints = []string{
	"POST   /tasks",
	"GET    /tasks",
	"GET    /tasks/stats",
	"GET    /tasks/:id",
	"PUT    /tasks/:id",
	"DELETE /tasks/:id",
	"GET    /activity",
	"GET    /health",
	"GET    /health/live",
	"GET    /ready",
}
