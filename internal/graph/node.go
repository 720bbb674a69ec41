package graph

import (
	"sync/atomic"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/nodeid"
	"github.com/vk/weftflow/internal/spec"
)

// Kind distinguishes the two executable node flavors in a flattened graph.
type Kind int

const (
	// KindTask is a node backed by a TaskSpec, dispatched through the task
	// invoker (possibly satisfied from cache).
	KindTask Kind = iota
	// KindExternal is an opaque externally-launched workflow invocation. It
	// contributes no internal nodes to this graph and does not share its
	// parallelism ceiling.
	KindExternal
)

// Node is a single vertex in the flattened execution graph. The structural
// fields are read-only after Build; execution state is managed atomically and
// the result is write-once.
type Node struct {
	id    *nodeid.Address
	order int

	Kind Kind
	// Task holds the specification for KindTask nodes. It is nil otherwise.
	Task *spec.TaskSpec
	// Workflow holds the specification for KindExternal nodes. It is nil otherwise.
	Workflow *spec.WorkflowSpec
	// Args binds this node's input parameter names to values. Node references
	// inside these bindings use flattened graph ids.
	Args map[string]spec.Binding

	deps       map[string]*Node
	dependents map[string]*Node

	// depCount is an atomic counter for unmet dependencies, used by the executor.
	depCount atomic.Int32
	// state is the node's current execution state, managed atomically. State
	// stores also publish the result fields: outputs and err are written
	// strictly before the store of the terminal state that exposes them.
	state atomic.Int32

	outputs map[string]cty.Value
	err     error
}

// ID returns the canonical string representation of the node's address.
func (n *Node) ID() string {
	return n.id.String()
}

// Address returns the structured address of the node.
func (n *Node) Address() *nodeid.Address {
	return n.id
}

// Order returns the node's position in flattened declaration order.
func (n *Node) Order() int {
	return n.order
}

// Input returns the declared input parameter the given argument binds to.
func (n *Node) Input(name string) *spec.Parameter {
	if n.Kind == KindTask {
		return n.Task.Input(name)
	}
	return n.Workflow.Input(name)
}

// claiming is an internal sentinel held while a skip or cancel transition
// records its cause. Only the goroutine that won the CAS into claiming may
// write err; State reports the window as still Pending.
const claiming = int32(-1)

// State atomically retrieves the node's execution state.
func (n *Node) State() State {
	s := n.state.Load()
	if s == claiming {
		return Pending
	}
	return State(s)
}

// TryStart transitions Pending to Running. It returns false if the node has
// already left Pending, e.g. because it was skipped or cancelled.
func (n *Node) TryStart() bool {
	return n.state.CompareAndSwap(int32(Pending), int32(Running))
}

// Succeed records the node's outputs and marks it Succeeded.
func (n *Node) Succeed(outputs map[string]cty.Value) {
	n.outputs = outputs
	n.state.Store(int32(Succeeded))
}

// Fail records the node's error and marks it Failed.
func (n *Node) Fail(err error) {
	n.err = err
	n.state.Store(int32(Failed))
}

// Cancel records the cancellation cause and marks the node Cancelled. It is
// reserved for the worker that owns the node in the Running state.
func (n *Node) Cancel(err error) {
	n.err = err
	n.state.Store(int32(Cancelled))
}

// TrySkip transitions Pending directly to Skipped, recording the ancestor
// failure as the cause. It returns false if the node already left Pending.
// Losing callers must not touch the node; only the winner writes the cause.
func (n *Node) TrySkip(cause error) bool {
	if !n.state.CompareAndSwap(int32(Pending), claiming) {
		return false
	}
	n.err = cause
	n.state.Store(int32(Skipped))
	return true
}

// TryCancel transitions Pending directly to Cancelled.
func (n *Node) TryCancel(cause error) bool {
	if !n.state.CompareAndSwap(int32(Pending), claiming) {
		return false
	}
	n.err = cause
	n.state.Store(int32(Cancelled))
	return true
}

// Outputs returns the node's resolved output values. Valid only once the
// node's state is Succeeded.
func (n *Node) Outputs() map[string]cty.Value {
	return n.outputs
}

// Err returns the node's failure, skip, or cancellation cause.
func (n *Node) Err() error {
	return n.err
}

// DepCount atomically returns the current number of unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount atomically decrements the dependency counter and returns
// the new value.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// setInitialCounters seeds the dependency counter from the linked edges.
func (n *Node) setInitialCounters() {
	n.depCount.Store(int32(len(n.deps)))
}
