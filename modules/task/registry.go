package task

import (
	"fmt"
	"sync"
	"time"

	domain "github.com/example/task-registry/domain/task"
	"github.com/google/uuid"
)

// IDGenerator returns a fresh task id. It must never repeat within a process.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(gen IDGenerator) RegistryOption {
	return func(r *Registry) {
		r.newID = gen
	}
}

// WithClock overrides time.Now.
func WithClock(clock Clock) RegistryOption {
	return func(r *Registry) {
		r.now = clock
	}
}

// Registry is the in-memory owner of all tasks. It is safe for concurrent use;
// every call holds the lock for its whole duration. Values handed out are copies.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
	newID IDGenerator
	now   Clock
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tasks: make(map[string]*domain.Task),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates in and stores a new task.
func (r *Registry) Create(in domain.Input) (domain.Task, error) {
	fields, err := domain.Validate(in)
	if err != nil {
		return domain.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	if _, exists := r.tasks[id]; exists {
		return domain.Task{}, fmt.Errorf("id generator returned duplicate id %q", id)
	}

	now := r.now().UTC()
	t := &domain.Task{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		Priority:    fields.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     fields.DueDate,
	}
	r.tasks[id] = t
	r.order = append(r.order, id)

	return t.Clone(), nil
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, found := r.tasks[id]
	if !found {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t.Clone(), nil
}

// List returns matching tasks in insertion order, paginated by f.Offset and f.Limit.
func (r *Registry) List(f domain.Filter) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Task, 0)
	skipped := 0
	for _, id := range r.order {
		t := r.tasks[id]
		if !f.Matches(*t) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if f.Limit > 0 && len(result) >= f.Limit {
			break
		}
		result = append(result, t.Clone())
	}
	return result
}

// Count returns the number of tasks matching f, ignoring pagination.
func (r *Registry) Count(f domain.Filter) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.tasks {
		if f.Matches(*t) {
			n++
		}
	}
	return n
}

// Update applies p to the task. The update is all-or-nothing and always
// advances UpdatedAt.
func (r *Registry) Update(id string, p domain.Patch) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, found := r.tasks[id]
	if !found {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err := domain.ValidatePatch(p); err != nil {
		return domain.Task{}, err
	}

	next := current.Clone()
	p.Apply(&next)

	now := r.now().UTC()
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Nanosecond)
	}
	next.UpdatedAt = now

	r.tasks[id] = &next
	return next.Clone(), nil
}

// Delete removes the task and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.tasks[id]; !found {
		return false
	}
	delete(r.tasks, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Stats computes aggregate counts over the current contents.
func (r *Registry) Stats() domain.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.NewStats()
	for _, t := range r.tasks {
		stats.Add(*t)
	}
	return stats
}
