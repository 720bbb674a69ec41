package graph

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/spec"
)

// DefaultMaxDepth bounds sub-workflow nesting when Options leaves it unset.
const DefaultMaxDepth = 100

// Options configures graph construction.
type Options struct {
	// MaxDepth bounds sub-workflow inlining depth. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Build constructs the complete, validated, fully-inlined execution graph for
// one invocation of the given workflow. It is purely structural: nothing is
// executed, and any defect aborts the whole build.
func Build(ctx context.Context, wf *spec.WorkflowSpec, reg *spec.Registry, opts Options) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.", "workflow", wf.ID.String())

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// First pass: inline sub-workflows into a flat call list.
	f := &flattener{reg: reg, maxDepth: maxDepth}
	outputs, err := f.flatten(wf, nil, nil)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: inlining complete.", "node_count", len(f.calls))

	// Second pass: create nodes in flattened declaration order.
	g := &Graph{
		Workflow: wf,
		Outputs:  outputs,
		nodes:    make(map[string]*Node, len(f.calls)),
	}
	for _, call := range f.calls {
		n := &Node{id: call.addr, Args: call.args}
		if call.task != nil {
			n.Kind = KindTask
			n.Task = call.task
		} else {
			n.Kind = KindExternal
			n.Workflow = call.workflow
		}
		if err := g.addNode(n); err != nil {
			return nil, &BindingError{Workflow: wf.ID, Node: call.addr.String(), Msg: err.Error()}
		}
	}
	logger.Debug("Build: node creation complete.")

	// Third pass: validate bindings and link dependency edges.
	if err := validateAndLink(g); err != nil {
		return nil, err
	}
	logger.Debug("Build: node linking complete.")

	for _, n := range g.order {
		n.setInitialCounters()
	}

	if err := g.detectCycles(); err != nil {
		return nil, &BindingError{Workflow: wf.ID, Msg: err.Error()}
	}
	logger.Debug("Build: graph construction successful.")
	return g, nil
}

// validateAndLink checks every binding of every node against the flattened
// graph and records the dependency edges the valid ones imply.
func validateAndLink(g *Graph) error {
	wfID := g.Workflow.ID

	for _, n := range g.order {
		for param, b := range n.Args {
			p := n.Input(param)
			if p == nil {
				// fillDefaults already rejected unknown argument names.
				return &BindingError{Workflow: wfID, Node: n.ID(), Param: param, Msg: "callee declares no such input"}
			}
			fromType, err := bindingType(g, n, param, b)
			if err != nil {
				return err
			}
			if !typesCompatible(fromType, p.Type) {
				return &BindingError{
					Workflow: wfID, Node: n.ID(), Param: param,
					Msg: "cannot convert " + fromType.FriendlyName() + " to " + p.Type.FriendlyName(),
				}
			}
			if b.Kind == spec.BindOutput {
				if err := g.addEdge(b.Node, n.ID()); err != nil {
					return &BindingError{Workflow: wfID, Node: n.ID(), Param: param, Msg: err.Error()}
				}
			}
		}
	}

	for name, b := range g.Outputs {
		out := g.Workflow.Output(name)
		if out == nil {
			return &BindingError{Workflow: wfID, Param: name, Msg: "binding for undeclared workflow output"}
		}
		fromType, err := bindingType(g, nil, name, b)
		if err != nil {
			return err
		}
		if !typesCompatible(fromType, out.Type) {
			return &BindingError{
				Workflow: wfID, Param: name,
				Msg: "cannot convert " + fromType.FriendlyName() + " to " + out.Type.FriendlyName(),
			}
		}
	}
	return nil
}

// bindingType resolves the static type a binding will produce, validating the
// reference along the way. consumer is nil for workflow-output bindings.
func bindingType(g *Graph, consumer *Node, param string, b spec.Binding) (cty.Type, error) {
	wfID := g.Workflow.ID
	node := ""
	if consumer != nil {
		node = consumer.ID()
	}

	switch b.Kind {
	case spec.BindLiteral:
		return b.Literal.Type(), nil

	case spec.BindInput:
		p := g.Workflow.Input(b.Input)
		if p == nil {
			return cty.NilType, &BindingError{Workflow: wfID, Node: node, Param: param, Msg: "reference to undeclared workflow input " + b.Input}
		}
		return p.Type, nil

	case spec.BindOutput:
		src := g.Node(b.Node)
		if src == nil {
			return cty.NilType, &BindingError{Workflow: wfID, Node: node, Param: param, Msg: "reference to unknown node " + b.Node}
		}
		if consumer != nil && src.order >= consumer.order {
			// Structurally impossible after inlining; kept as a defense.
			return cty.NilType, &BindingError{Workflow: wfID, Node: node, Param: param, Msg: "binding references node " + b.Node + " declared later in the graph"}
		}
		var out *spec.Output
		if src.Kind == KindTask {
			out = src.Task.Output(b.Output)
		} else {
			out = src.Workflow.Output(b.Output)
		}
		if out == nil {
			return cty.NilType, &BindingError{Workflow: wfID, Node: node, Param: param, Msg: "node " + b.Node + " declares no output " + b.Output}
		}
		return out.Type, nil

	default:
		return cty.NilType, &BindingError{Workflow: wfID, Node: node, Param: param, Msg: "unknown binding kind"}
	}
}

// typesCompatible reports whether a value of type from can feed a parameter
// of type to, directly or through a safe cty conversion.
func typesCompatible(from, to cty.Type) bool {
	if from == cty.NilType || to == cty.NilType {
		return true
	}
	if from.Equals(to) || from.HasDynamicTypes() || to.HasDynamicTypes() ||
		from.Equals(cty.DynamicPseudoType) || to.Equals(cty.DynamicPseudoType) {
		return true
	}
	return convert.GetConversionUnsafe(from, to) != nil
}
