package spec

import (
	"fmt"
	"sync"
)

// Registry holds the task and workflow specifications known to one
// application instance, keyed by identity. It replaces any notion of a global
// module-level registry: callers construct one per process and pass it to the
// graph builder explicitly.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[Identity]*TaskSpec
	workflows map[Identity]*WorkflowSpec
}

// NewRegistry creates and initializes an empty Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		tasks:     make(map[Identity]*TaskSpec),
		workflows: make(map[Identity]*WorkflowSpec),
	}
}

// RegisterTask adds a task specification. Re-registering an identity is an
// error: specifications are immutable once published.
func (r *Registry) RegisterTask(t *TaskSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; exists {
		return fmt.Errorf("task %s is already registered", t.ID)
	}
	r.tasks[t.ID] = t
	return nil
}

// RegisterWorkflow adds a workflow specification. Re-registering an identity
// is an error.
func (r *Registry) RegisterWorkflow(w *WorkflowSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[w.ID]; exists {
		return fmt.Errorf("workflow %s is already registered", w.ID)
	}
	r.workflows[w.ID] = w
	return nil
}

// Task looks up a task specification by identity.
func (r *Registry) Task(id Identity) (*TaskSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Workflow looks up a workflow specification by identity.
func (r *Registry) Workflow(id Identity) (*WorkflowSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workflows[id]
	return w, ok
}

// Tasks returns all registered task specifications.
func (r *Registry) Tasks() []*TaskSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TaskSpec, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out
}
