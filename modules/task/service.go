package task

import (
	"context"
	"time"

	domain "github.com/example/task-registry/domain/task"
	"github.com/example/task-registry/events"
	"github.com/go-monolith/mono"
)

// createTask handles the create-task service request.
func (m *TaskModule) createTask(_ context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	created, err := m.registry.Create(req.Input)
	if err != nil {
		return TaskReply{ErrorReply: errorReply(err)}, nil
	}

	m.logger.Info("Task created", "id", created.ID, "priority", created.Priority)

	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    created.ID,
			Title:     created.Title,
			Status:    string(created.Status),
			Priority:  string(created.Priority),
			CreatedAt: created.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			// Event publishing is best-effort.
			m.logger.Warn("Failed to publish TaskCreated event", "id", created.ID, "error", err)
		}
	}

	return TaskReply{Task: &created}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(_ context.Context, req GetTaskRequest, _ *mono.Msg) (TaskReply, error) {
	t, err := m.registry.Get(req.TaskID)
	if err != nil {
		return TaskReply{ErrorReply: errorReply(err)}, nil
	}
	return TaskReply{Task: &t}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(_ context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksReply, error) {
	return ListTasksReply{
		Tasks: m.registry.List(req.Filter),
		Total: m.registry.Count(req.Filter),
	}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(_ context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskReply, error) {
	updated, err := m.registry.Update(req.TaskID, req.Patch)
	if err != nil {
		return TaskReply{ErrorReply: errorReply(err)}, nil
	}

	changed := changedFields(req.Patch)
	m.logger.Info("Task updated", "id", updated.ID, "changed", changed)

	if m.eventBus != nil {
		event := events.TaskUpdatedEvent{
			TaskID:    updated.ID,
			Title:     updated.Title,
			Status:    string(updated.Status),
			Priority:  string(updated.Priority),
			Changed:   changed,
			UpdatedAt: updated.UpdatedAt,
		}
		if err := events.TaskUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish TaskUpdated event", "id", updated.ID, "error", err)
		}
	}

	return TaskReply{Task: &updated}, nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(_ context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskReply, error) {
	if !m.registry.Delete(req.TaskID) {
		return DeleteTaskReply{Deleted: false}, nil
	}

	m.logger.Info("Task deleted", "id", req.TaskID)

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    req.TaskID,
			DeletedAt: time.Now().UTC(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			m.logger.Warn("Failed to publish TaskDeleted event", "id", req.TaskID, "error", err)
		}
	}

	return DeleteTaskReply{Deleted: true}, nil
}

// taskStats handles the task-stats service request.
func (m *TaskModule) taskStats(_ context.Context, _ StatsRequest, _ *mono.Msg) (StatsReply, error) {
	return StatsReply{Stats: m.registry.Stats()}, nil
}

func changedFields(p domain.Patch) []string {
	var changed []string
	if p.Title != nil {
		changed = append(changed, "title")
	}
	if p.Description != nil {
		changed = append(changed, "description")
	}
	if p.Status != nil {
		changed = append(changed, "status")
	}
	if p.Priority != nil {
		changed = append(changed, "priority")
	}
	if p.DueDate != nil || p.ClearDueDate {
		changed = append(changed, "dueDate")
	}
	return changed
}
