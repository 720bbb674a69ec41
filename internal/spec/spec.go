package spec

import (
	"github.com/zclconf/go-cty/cty"
)

// Parameter is a single typed input of a task or workflow.
type Parameter struct {
	Name string
	Type cty.Type
	// Default is the fallback value used when a caller binds nothing to this
	// parameter. cty.NilVal means no default; such a parameter is required.
	Default cty.Value
}

// HasDefault reports whether the parameter carries a declared default value.
func (p Parameter) HasDefault() bool {
	return p.Default != cty.NilVal
}

// Output is a single typed, named output of a task or workflow.
type Output struct {
	Name string
	Type cty.Type
}

// TaskSpec describes a single unit of external work: its identity, its typed
// inputs and outputs, and the name of the registered handler that owns its
// executable body. The body is invoked through the invoker boundary, never
// copied.
type TaskSpec struct {
	ID      Identity
	Inputs  []Parameter
	Outputs []Output
	// Handler names the Go function registered with the invoker that executes
	// this task.
	Handler string
	// Cacheable marks the task's results as memoizable by input fingerprint.
	Cacheable bool
}

// Input returns the named input parameter, or nil if not declared.
func (t *TaskSpec) Input(name string) *Parameter {
	for i := range t.Inputs {
		if t.Inputs[i].Name == name {
			return &t.Inputs[i]
		}
	}
	return nil
}

// Output returns the named output, or nil if not declared.
func (t *TaskSpec) Output(name string) *Output {
	for i := range t.Outputs {
		if t.Outputs[i].Name == name {
			return &t.Outputs[i]
		}
	}
	return nil
}

// CallMode distinguishes how a workflow reference is composed into its caller.
type CallMode int

const (
	// ModeInline splices the referenced workflow's entire graph into the
	// caller's graph at build time. Inlined nodes share the caller's
	// parallelism ceiling.
	ModeInline CallMode = iota
	// ModeExternal dispatches the referenced workflow as a separately
	// scheduled execution with its own parallelism budget. It contributes a
	// single opaque node to the caller's graph.
	ModeExternal
)

// String returns the declaration-surface spelling of the mode.
func (m CallMode) String() string {
	if m == ModeExternal {
		return "external"
	}
	return "inline"
}

// NodeDecl is one call declared inside a workflow body: a task invocation or a
// sub-workflow invocation, plus the bindings feeding its inputs.
type NodeDecl struct {
	// ID is the node's name within its lexical workflow. Uniqueness within
	// the flattened graph is established by the inliner's prefixing rule.
	ID string
	// Rename, when set, replaces ID as the call site's name. It exists so a
	// caller can disambiguate graph rendering and control the prefix applied
	// to an inlined sub-workflow's nodes.
	Rename string
	// Task is set when this call invokes a task. Mutually exclusive with
	// Workflow.
	Task Identity
	// Workflow is set when this call invokes a sub-workflow.
	Workflow Identity
	// Mode selects inline splicing versus external dispatch for workflow
	// calls. Ignored for task calls.
	Mode CallMode
	// Args binds this call's input parameter names to values.
	Args map[string]Binding
}

// Name returns the effective call-site name: Rename when present, else ID.
func (d *NodeDecl) Name() string {
	if d.Rename != "" {
		return d.Rename
	}
	return d.ID
}

// IsTask reports whether the declaration invokes a task rather than a workflow.
func (d *NodeDecl) IsTask() bool {
	return !d.Task.IsZero()
}

// WorkflowSpec describes a named, versioned composition of task and
// sub-workflow calls. It is immutable once registered.
type WorkflowSpec struct {
	ID      Identity
	Inputs  []Parameter
	Outputs []Output
	// Nodes lists the declared calls in lexical order. Bindings may only
	// reference calls declared earlier in this list, which makes the graph
	// acyclic by construction.
	Nodes []NodeDecl
	// OutputBindings maps each declared output name to the binding that
	// produces its value.
	OutputBindings map[string]Binding
}

// Input returns the named workflow input parameter, or nil if not declared.
func (w *WorkflowSpec) Input(name string) *Parameter {
	for i := range w.Inputs {
		if w.Inputs[i].Name == name {
			return &w.Inputs[i]
		}
	}
	return nil
}

// Output returns the named workflow output, or nil if not declared.
func (w *WorkflowSpec) Output(name string) *Output {
	for i := range w.Outputs {
		if w.Outputs[i].Name == name {
			return &w.Outputs[i]
		}
	}
	return nil
}

// Node returns the declaration with the given local id, or nil.
func (w *WorkflowSpec) Node(id string) *NodeDecl {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}
