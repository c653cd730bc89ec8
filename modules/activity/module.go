package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/task-registry/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// ActivityModule consumes task events into a Feed (driven adapter).
type ActivityModule struct {
	feed   *Feed
	logger types.Logger
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an activity module keeping capacity entries.
func NewModule(capacity int, logger types.Logger) *ActivityModule {
	return &ActivityModule{
		feed:   NewFeed(capacity),
		logger: logger,
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

// Feed returns the module's feed.
func (m *ActivityModule) Feed() *Feed {
	return m.feed
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers", "events", []string{"TaskCreated", "TaskUpdated", "TaskDeleted"})
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRecentActivity, json.Unmarshal, json.Marshal, m.recentActivity,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRecentActivity, err)
	}
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.logger.Debug("Task created event", "id", event.TaskID)
	m.feed.Record(Entry{
		TaskID:    event.TaskID,
		Kind:      KindCreated,
		Message:   fmt.Sprintf("Task '%s' created with %s priority", event.Title, event.Priority),
		Timestamp: stamp(event.CreatedAt),
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.logger.Debug("Task updated event", "id", event.TaskID)
	msg := fmt.Sprintf("Task '%s' updated", event.Title)
	if len(event.Changed) > 0 {
		msg += " (" + strings.Join(event.Changed, ", ") + ")"
	}
	m.feed.Record(Entry{
		TaskID:    event.TaskID,
		Kind:      KindUpdated,
		Message:   msg,
		Timestamp: stamp(event.UpdatedAt),
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.logger.Debug("Task deleted event", "id", event.TaskID)
	m.feed.Record(Entry{
		TaskID:    event.TaskID,
		Kind:      KindDeleted,
		Message:   fmt.Sprintf("Task %s deleted", event.TaskID),
		Timestamp: stamp(event.DeletedAt),
	})
	return nil
}

func (m *ActivityModule) recentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityReply, error) {
	return RecentActivityReply{Entries: m.feed.Recent(req.Limit)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "capacity", m.feed.capacity)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped", "entries", m.feed.Len())
	return nil
}

// stamp falls back to the current time for events without one.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
