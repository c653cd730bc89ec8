package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-registry/domain/task"
)

// Service names registered by the task module.
const (
	ServiceCreateTask = "create-task"
	ServiceGetTask    = "get-task"
	ServiceListTasks  = "list-tasks"
	ServiceUpdateTask = "update-task"
	ServiceDeleteTask = "delete-task"
	ServiceTaskStats  = "task-stats"
)

// ErrorReply carries a domain error through a service reply.
type ErrorReply struct {
	Error   string              `json:"error,omitempty"`
	Code    string              `json:"code,omitempty"`
	Details []domain.FieldError `json:"details,omitempty"`
}

// Err rebuilds the typed error carried by the reply, or nil.
func (r ErrorReply) Err() error {
	switch r.Code {
	case "":
		return nil
	case CodeValidation:
		return &domain.ValidationError{Fields: r.Details}
	case CodeNotFound:
		return fmt.Errorf("%w%s", ErrTaskNotFound, strings.TrimPrefix(r.Error, ErrTaskNotFound.Error()))
	default:
		return errors.New(r.Error)
	}
}

// errorReply converts err into its reply form.
func errorReply(err error) ErrorReply {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return ErrorReply{Error: err.Error(), Code: CodeValidation, Details: verr.Fields}
	case errors.Is(err, ErrTaskNotFound):
		return ErrorReply{Error: err.Error(), Code: CodeNotFound}
	default:
		return ErrorReply{Error: err.Error(), Code: CodeInternal}
	}
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Input domain.Input `json:"input"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Filter domain.Filter `json:"filter"`
}

// UpdateTaskRequest is the request for updating a task.
type UpdateTaskRequest struct {
	TaskID string       `json:"task_id"`
	Patch  domain.Patch `json:"patch"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// StatsRequest is the request for aggregate statistics.
type StatsRequest struct{}

// TaskReply is the reply for operations returning a single task.
type TaskReply struct {
	Task *domain.Task `json:"task,omitempty"`
	ErrorReply
}

// ListTasksReply is the reply for listing tasks.
type ListTasksReply struct {
	Tasks []domain.Task `json:"tasks"`
	Total int           `json:"total"`
	ErrorReply
}

// DeleteTaskReply is the reply for deleting a task.
type DeleteTaskReply struct {
	Deleted bool `json:"deleted"`
	ErrorReply
}

// StatsReply is the reply for aggregate statistics.
type StatsReply struct {
	Stats domain.Stats `json:"stats"`
	ErrorReply
}

// TaskPort defines the interface for task operations (hexagonal port).
// Driving adapters such as the HTTP API use it to reach the registry.
// Errors are ErrTaskNotFound or *domain.ValidationError where applicable.
type TaskPort interface {
	CreateTask(ctx context.Context, in domain.Input) (*domain.Task, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.Filter) (*ListTasksReply, error)
	UpdateTask(ctx context.Context, taskID string, patch domain.Patch) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) (bool, error)
	TaskStats(ctx context.Context) (*domain.Stats, error)
}
