package hclspec

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/spec"
)

// translateRoot converts one decoded file into registered specifications.
func translateRoot(ctx context.Context, root *fileRoot, reg *spec.Registry) error {
	for _, tb := range root.Tasks {
		t, err := translateTask(ctx, tb)
		if err != nil {
			return err
		}
		if err := reg.RegisterTask(t); err != nil {
			return err
		}
	}
	for _, wb := range root.Workflows {
		w, err := translateWorkflow(ctx, wb)
		if err != nil {
			return err
		}
		if err := reg.RegisterWorkflow(w); err != nil {
			return err
		}
	}
	return nil
}

func translateTask(ctx context.Context, tb *taskBlock) (*spec.TaskSpec, error) {
	logger := ctxlog.FromContext(ctx)
	t := &spec.TaskSpec{
		ID:        spec.NewIdentity(tb.Name, tb.Version),
		Handler:   tb.Handler,
		Cacheable: tb.Cacheable,
	}
	logger.Debug("Translating task block.", "task", t.ID.String())

	inputs, err := translateInputs(ctx, tb.Inputs)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", t.ID, err)
	}
	t.Inputs = inputs

	for _, ob := range tb.Outputs {
		if ob.Value != nil {
			return nil, fmt.Errorf("task %s, output %q: tasks declare output types only, not values", t.ID, ob.Name)
		}
		outType, err := typeExprToCtyType(ctx, ob.Type)
		if err != nil {
			return nil, fmt.Errorf("task %s, output %q: %w", t.ID, ob.Name, err)
		}
		t.Outputs = append(t.Outputs, spec.Output{Name: ob.Name, Type: outType})
	}
	return t, nil
}

func translateWorkflow(ctx context.Context, wb *workflowBlock) (*spec.WorkflowSpec, error) {
	logger := ctxlog.FromContext(ctx)
	w := &spec.WorkflowSpec{
		ID:             spec.NewIdentity(wb.Name, wb.Version),
		OutputBindings: make(map[string]spec.Binding, len(wb.Outputs)),
	}
	logger.Debug("Translating workflow block.", "workflow", w.ID.String())

	inputs, err := translateInputs(ctx, wb.Inputs)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", w.ID, err)
	}
	w.Inputs = inputs

	for _, cb := range wb.Calls {
		decl, err := translateCall(cb)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", w.ID, err)
		}
		w.Nodes = append(w.Nodes, *decl)
	}

	for _, ob := range wb.Outputs {
		outType, err := typeExprToCtyType(ctx, ob.Type)
		if err != nil {
			return nil, fmt.Errorf("workflow %s, output %q: %w", w.ID, ob.Name, err)
		}
		if ob.Value == nil {
			return nil, fmt.Errorf("workflow %s, output %q: missing value binding", w.ID, ob.Name)
		}
		b, err := exprToBinding(ob.Value)
		if err != nil {
			return nil, fmt.Errorf("workflow %s, output %q: %w", w.ID, ob.Name, err)
		}
		w.Outputs = append(w.Outputs, spec.Output{Name: ob.Name, Type: outType})
		w.OutputBindings[ob.Name] = b
	}
	return w, nil
}

func translateInputs(ctx context.Context, blocks []*inputBlock) ([]spec.Parameter, error) {
	params := make([]spec.Parameter, 0, len(blocks))
	for _, ib := range blocks {
		paramType, err := typeExprToCtyType(ctx, ib.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", ib.Name, err)
		}
		p := spec.Parameter{Name: ib.Name, Type: paramType}
		if ib.Default != nil {
			val, diags := ib.Default.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("input %q: default must be a literal: %w", ib.Name, diags)
			}
			converted, err := convert.Convert(val, paramType)
			if err != nil {
				return nil, fmt.Errorf("input %q: default: %w", ib.Name, err)
			}
			p.Default = converted
		}
		params = append(params, p)
	}
	return params, nil
}

func translateCall(cb *callBlock) (*spec.NodeDecl, error) {
	decl := &spec.NodeDecl{ID: cb.ID, Rename: cb.Rename}

	switch {
	case cb.Task != "" && cb.Workflow != "":
		return nil, fmt.Errorf("call %q: task and workflow are mutually exclusive", cb.ID)
	case cb.Task != "":
		id, err := spec.ParseIdentity(cb.Task)
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", cb.ID, err)
		}
		decl.Task = id
		if cb.Mode != "" {
			return nil, fmt.Errorf("call %q: mode applies only to workflow calls", cb.ID)
		}
	case cb.Workflow != "":
		id, err := spec.ParseIdentity(cb.Workflow)
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", cb.ID, err)
		}
		decl.Workflow = id
		switch cb.Mode {
		case "", "inline":
			decl.Mode = spec.ModeInline
		case "external":
			decl.Mode = spec.ModeExternal
		default:
			return nil, fmt.Errorf("call %q: invalid mode %q (want inline or external)", cb.ID, cb.Mode)
		}
	default:
		return nil, fmt.Errorf("call %q: must name a task or a workflow", cb.ID)
	}

	decl.Args = make(map[string]spec.Binding)
	if cb.Args != nil {
		attrs, diags := cb.Args.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("call %q: args: %w", cb.ID, diags)
		}
		for name, attr := range attrs {
			b, err := exprToBinding(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("call %q, argument %q: %w", cb.ID, name, err)
			}
			decl.Args[name] = b
		}
	}
	return decl, nil
}

// exprToBinding classifies an argument expression: a reference of the form
// `input.<name>` or `call.<id>.<output>`, or otherwise a literal value
// evaluated with no variables in scope.
func exprToBinding(expr hcl.Expression) (spec.Binding, error) {
	if trav, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		switch root := trav.RootName(); root {
		case "input":
			if len(trav) != 2 {
				return spec.Binding{}, fmt.Errorf("input reference must be input.<name>")
			}
			attr, ok := trav[1].(hcl.TraverseAttr)
			if !ok {
				return spec.Binding{}, fmt.Errorf("input reference must be input.<name>")
			}
			return spec.InputBinding(attr.Name), nil
		case "call":
			if len(trav) != 3 {
				return spec.Binding{}, fmt.Errorf("call reference must be call.<id>.<output>")
			}
			node, okNode := trav[1].(hcl.TraverseAttr)
			output, okOut := trav[2].(hcl.TraverseAttr)
			if !okNode || !okOut {
				return spec.Binding{}, fmt.Errorf("call reference must be call.<id>.<output>")
			}
			return spec.OutputBinding(node.Name, output.Name), nil
		default:
			return spec.Binding{}, fmt.Errorf("unknown reference root %q (want input or call)", root)
		}
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return spec.Binding{}, fmt.Errorf("expression is neither a reference nor a literal: %w", diags)
	}
	if val == cty.NilVal {
		return spec.Binding{}, fmt.Errorf("expression produced no value")
	}
	return spec.LiteralBinding(val), nil
}
