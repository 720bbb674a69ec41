// Package invoker is the sole boundary between the orchestration core and the
// external collaborators that actually do the work: feature stores, model
// training code, databases, or anything else registered as a task handler.
//
// A task body receives a mapping from parameter name to resolved value and
// returns a mapping from output name to value, or fails with a typed error.
// The core never sees anything richer than that contract.
package invoker

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/spec"
)

// Handler is the executable body of a task.
type Handler func(ctx context.Context, args map[string]cty.Value) (map[string]cty.Value, error)

// LaunchFunc dispatches an externally-invoked workflow: a separately
// scheduled execution with its own parallelism budget. The application wires
// one in; the core only waits for its terminal result.
type LaunchFunc func(ctx context.Context, wf *spec.WorkflowSpec, args map[string]cty.Value) (map[string]cty.Value, error)

// TaskExecutionError wraps a failure reported by a task's external
// collaborator. It fails the owning node.
type TaskExecutionError struct {
	Task spec.Identity
	Err  error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Err
}

// Invoker dispatches resolved task and external-workflow invocations.
type Invoker interface {
	// InvokeTask runs the task's registered handler with resolved arguments
	// and returns its outputs converted to the declared output types.
	InvokeTask(ctx context.Context, task *spec.TaskSpec, args map[string]cty.Value) (map[string]cty.Value, error)
	// InvokeWorkflow dispatches an external workflow invocation and blocks
	// until it reaches a terminal status.
	InvokeWorkflow(ctx context.Context, wf *spec.WorkflowSpec, args map[string]cty.Value) (map[string]cty.Value, error)
}

// Registry maps handler names to Go task bodies for a single application
// instance.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a named handler. Re-registering a name is an error.
func (r *Registry) Register(name string, h Handler) error {
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q is already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Handler looks up a handler by name.
func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Validate checks that every task in the spec registry names a registered
// handler. A mismatch between declarations and code is a startup defect.
func (r *Registry) Validate(tasks []*spec.TaskSpec) error {
	for _, t := range tasks {
		if _, ok := r.handlers[t.Handler]; !ok {
			return fmt.Errorf("task %s names unregistered handler %q", t.ID, t.Handler)
		}
	}
	return nil
}

// Local is the in-process Invoker: it runs task handlers directly and hands
// external workflow invocations to an application-installed launcher.
type Local struct {
	handlers *Registry
	launch   LaunchFunc
}

// NewLocal creates a Local invoker over the given handler registry.
func NewLocal(handlers *Registry) *Local {
	return &Local{handlers: handlers}
}

// SetLauncher installs the dispatcher for external workflow invocations.
func (l *Local) SetLauncher(launch LaunchFunc) {
	l.launch = launch
}

// InvokeTask implements Invoker.
func (l *Local) InvokeTask(ctx context.Context, task *spec.TaskSpec, args map[string]cty.Value) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	h, ok := l.handlers.Handler(task.Handler)
	if !ok {
		return nil, &TaskExecutionError{Task: task.ID, Err: fmt.Errorf("no handler registered as %q", task.Handler)}
	}

	logger.Debug("Invoking task handler.", "task", task.ID.String(), "handler", task.Handler)
	outputs, err := h(ctx, args)
	if err != nil {
		return nil, &TaskExecutionError{Task: task.ID, Err: err}
	}

	checked := make(map[string]cty.Value, len(task.Outputs))
	for _, out := range task.Outputs {
		val, ok := outputs[out.Name]
		if !ok {
			return nil, &TaskExecutionError{Task: task.ID, Err: fmt.Errorf("handler returned no value for output %q", out.Name)}
		}
		converted, err := convert.Convert(val, out.Type)
		if err != nil {
			return nil, &TaskExecutionError{Task: task.ID, Err: fmt.Errorf("output %q: %w", out.Name, err)}
		}
		checked[out.Name] = converted
	}
	return checked, nil
}

// InvokeWorkflow implements Invoker.
func (l *Local) InvokeWorkflow(ctx context.Context, wf *spec.WorkflowSpec, args map[string]cty.Value) (map[string]cty.Value, error) {
	if l.launch == nil {
		return nil, fmt.Errorf("no external workflow launcher configured")
	}
	return l.launch(ctx, wf, args)
}
