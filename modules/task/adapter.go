package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-registry/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func (a *taskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, in domain.Input) (*domain.Task, error) {
	var resp TaskReply
	if err := a.call(ctx, ServiceCreateTask, &CreateTaskRequest{Input: in}, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

// GetTask retrieves a task by ID via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var resp TaskReply
	if err := a.call(ctx, ServiceGetTask, &GetTaskRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

// ListTasks lists tasks matching filter via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, filter domain.Filter) (*ListTasksReply, error) {
	var resp ListTasksReply
	if err := a.call(ctx, ServiceListTasks, &ListTasksRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.Task{}
	}
	return &resp, nil
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, taskID string, patch domain.Patch) (*domain.Task, error) {
	var resp TaskReply
	req := &UpdateTaskRequest{TaskID: taskID, Patch: patch}
	if err := a.call(ctx, ServiceUpdateTask, req, &resp); err != nil {
		return nil, err
	}
	return taskOrError(resp)
}

// DeleteTask deletes a task via the delete-task service and reports whether it existed.
func (a *taskAdapter) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	var resp DeleteTaskReply
	if err := a.call(ctx, ServiceDeleteTask, &DeleteTaskRequest{TaskID: taskID}, &resp); err != nil {
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// TaskStats fetches aggregate counts via the task-stats service.
func (a *taskAdapter) TaskStats(ctx context.Context) (*domain.Stats, error) {
	var resp StatsReply
	if err := a.call(ctx, ServiceTaskStats, &StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

func taskOrError(resp TaskReply) (*domain.Task, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("empty task reply")
	}
	return resp.Task, nil
}
