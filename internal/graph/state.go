package graph

// State represents the execution state of a node in the graph.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies to complete.
	Pending State = iota
	// Running indicates the node is currently being executed by a worker.
	Running
	// Succeeded indicates the node completed and its outputs are available.
	Succeeded
	// Failed indicates the node's execution or input resolution failed.
	Failed
	// Skipped indicates an ancestor failed, so the node was never dispatched.
	Skipped
	// Cancelled indicates the run was cancelled before the node could run.
	Cancelled
)

// String returns the lower-case name used in logs and reports.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final. Terminal states are immutable.
func (s State) Terminal() bool {
	switch s {
	case Succeeded, Failed, Skipped, Cancelled:
		return true
	default:
		return false
	}
}
