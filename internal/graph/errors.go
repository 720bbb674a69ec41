package graph

import (
	"fmt"
	"strings"

	"github.com/vk/weftflow/internal/spec"
)

// BindingError reports a structural graph defect found at build time: a
// binding referencing an unknown node, parameter, input, or output, or one
// whose types cannot be reconciled. No partial build survives a BindingError.
type BindingError struct {
	// Workflow is the lexical workflow containing the defect.
	Workflow spec.Identity
	// Node is the offending call-site id within that workflow, when one exists.
	Node string
	// Param is the offending input parameter or output name, when one exists.
	Param string
	Msg   string
}

func (e *BindingError) Error() string {
	var sb strings.Builder
	sb.WriteString("binding error")
	if !e.Workflow.IsZero() {
		fmt.Fprintf(&sb, " in workflow %s", e.Workflow)
	}
	if e.Node != "" {
		fmt.Fprintf(&sb, ", node %q", e.Node)
	}
	if e.Param != "" {
		fmt.Fprintf(&sb, ", parameter %q", e.Param)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// RecursionError reports that sub-workflow inlining could not terminate:
// either a workflow reachable from itself, or nesting beyond the configured
// depth bound. It is a build-time, fatal error.
type RecursionError struct {
	// Workflow is the identity whose expansion triggered the error.
	Workflow spec.Identity
	// Chain is the inlining path from the top-level workflow to the trigger.
	Chain []spec.Identity
	// Depth is the nesting depth at which expansion stopped.
	Depth int
	// MaxDepth is the configured bound, when the bound (rather than a
	// detected cycle) stopped expansion.
	MaxDepth int
}

func (e *RecursionError) Error() string {
	if e.MaxDepth > 0 {
		return fmt.Sprintf("sub-workflow nesting in %s exceeds maximum depth %d", e.Workflow, e.MaxDepth)
	}
	parts := make([]string, 0, len(e.Chain)+1)
	for _, id := range e.Chain {
		parts = append(parts, id.String())
	}
	parts = append(parts, e.Workflow.String())
	return fmt.Sprintf("recursive sub-workflow reference: %s", strings.Join(parts, " -> "))
}
