// Package resolve turns the bindings of a ready node into concrete values.
//
// Resolution never blocks: it operates only on literals, the top-level
// invocation's arguments (with declared defaults as fallback), and the
// already-published results of Succeeded upstream nodes. The executor
// guarantees every upstream dependency is terminal before calling in.
package resolve

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/spec"
)

// MissingInputError reports a required workflow input that the top-level
// invocation did not supply and that has no declared default. It fails the
// specific node (or output) that needed the value.
type MissingInputError struct {
	Workflow spec.Identity
	Input    string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("workflow %s: required input %q was not supplied and has no default", e.Workflow, e.Input)
}

// UnresolvedOutputError reports a binding that named an upstream node which
// is not Succeeded at resolution time. Scheduling order makes this
// structurally impossible, so it is treated as a defect in the core itself,
// never as a user error.
type UnresolvedOutputError struct {
	Node   string
	Output string
	State  graph.State
}

func (e *UnresolvedOutputError) Error() string {
	return fmt.Sprintf("internal invariant violation: output %s.%s read while node is %s", e.Node, e.Output, e.State)
}

// Inputs resolves every argument binding of the given node to a concrete
// value, converted to the declared parameter type. args holds the top-level
// invocation's supplied workflow arguments.
func Inputs(g *graph.Graph, n *graph.Node, args map[string]cty.Value) (map[string]cty.Value, error) {
	resolved := make(map[string]cty.Value, len(n.Args))
	for param, b := range n.Args {
		p := n.Input(param)
		val, err := value(g, b, args)
		if err != nil {
			return nil, err
		}
		converted, err := convert.Convert(val, p.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s, parameter %q: %w", n.ID(), param, err)
		}
		resolved[param] = converted
	}
	return resolved, nil
}

// Outputs resolves the workflow's declared output bindings once every node
// has Succeeded, producing the top-level invocation's return values.
func Outputs(g *graph.Graph, args map[string]cty.Value) (map[string]cty.Value, error) {
	resolved := make(map[string]cty.Value, len(g.Outputs))
	for name, b := range g.Outputs {
		out := g.Workflow.Output(name)
		val, err := value(g, b, args)
		if err != nil {
			return nil, err
		}
		converted, err := convert.Convert(val, out.Type)
		if err != nil {
			return nil, fmt.Errorf("workflow output %q: %w", name, err)
		}
		resolved[name] = converted
	}
	return resolved, nil
}

func value(g *graph.Graph, b spec.Binding, args map[string]cty.Value) (cty.Value, error) {
	switch b.Kind {
	case spec.BindLiteral:
		return b.Literal, nil

	case spec.BindInput:
		if val, ok := args[b.Input]; ok {
			return val, nil
		}
		p := g.Workflow.Input(b.Input)
		if p != nil && p.HasDefault() {
			return p.Default, nil
		}
		return cty.NilVal, &MissingInputError{Workflow: g.Workflow.ID, Input: b.Input}

	case spec.BindOutput:
		src := g.Node(b.Node)
		if src == nil {
			return cty.NilVal, &UnresolvedOutputError{Node: b.Node, Output: b.Output, State: graph.Pending}
		}
		if st := src.State(); st != graph.Succeeded {
			return cty.NilVal, &UnresolvedOutputError{Node: b.Node, Output: b.Output, State: st}
		}
		val, ok := src.Outputs()[b.Output]
		if !ok {
			return cty.NilVal, &UnresolvedOutputError{Node: b.Node, Output: b.Output, State: graph.Succeeded}
		}
		return val, nil

	default:
		return cty.NilVal, fmt.Errorf("unknown binding kind %d", b.Kind)
	}
}
