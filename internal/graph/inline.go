package graph

import (
	"github.com/vk/weftflow/internal/nodeid"
	"github.com/vk/weftflow/internal/spec"
)

// flatCall is one node of the flattened graph before Node construction: a
// task call or an external workflow invocation, with bindings rewritten to
// flattened ids.
type flatCall struct {
	addr     *nodeid.Address
	task     *spec.TaskSpec
	workflow *spec.WorkflowSpec
	args     map[string]spec.Binding
}

// flattener performs the inlining pass: it walks a workflow's declarations in
// lexical order and recursively splices inline sub-workflow graphs into a
// single flat call list.
type flattener struct {
	reg      *spec.Registry
	maxDepth int
	// chain is the stack of workflow identities currently being expanded,
	// used to reject self-referential and mutually-recursive nesting.
	chain []spec.Identity
	calls []flatCall
}

// flatten expands one workflow under the given address prefix. inputRewrite
// maps the workflow's own input names to the bindings its call site supplied;
// it is nil for the top-level workflow, whose inputs stay symbolic until
// invocation. The returned map carries the workflow's declared outputs
// rewritten to flattened bindings, so callers can splice them through to
// whatever consumed the call site's outputs.
func (f *flattener) flatten(wf *spec.WorkflowSpec, prefix *nodeid.Address, inputRewrite map[string]spec.Binding) (map[string]spec.Binding, error) {
	for _, id := range f.chain {
		if id == wf.ID {
			return nil, &RecursionError{Workflow: wf.ID, Chain: f.chain}
		}
	}
	if len(f.chain) >= f.maxDepth {
		return nil, &RecursionError{Workflow: wf.ID, Depth: len(f.chain), MaxDepth: f.maxDepth}
	}
	f.chain = append(f.chain, wf.ID)
	defer func() { f.chain = f.chain[:len(f.chain)-1] }()

	// locals resolves a lexically-declared call id to either the flattened
	// node id (task and external calls) or the inlined sub-workflow's
	// rewritten output bindings.
	locals := make(map[string]any, len(wf.Nodes))
	usedNames := make(map[string]bool, len(wf.Nodes))

	for i := range wf.Nodes {
		decl := &wf.Nodes[i]
		name := decl.Name()
		if !nodeid.ValidSegment(decl.ID) || !nodeid.ValidSegment(name) {
			return nil, &BindingError{Workflow: wf.ID, Node: decl.ID, Msg: "node name is not a valid identifier segment"}
		}
		if _, dup := locals[decl.ID]; dup {
			return nil, &BindingError{Workflow: wf.ID, Node: decl.ID, Msg: "duplicate node id"}
		}
		if usedNames[name] {
			return nil, &BindingError{Workflow: wf.ID, Node: decl.ID, Msg: "call-site name " + name + " is already in use at this level"}
		}
		usedNames[name] = true

		addr := prefix.Child(name)
		args, err := f.rewriteArgs(wf, decl, locals, inputRewrite)
		if err != nil {
			return nil, err
		}

		if decl.IsTask() {
			task, ok := f.reg.Task(decl.Task)
			if !ok {
				return nil, &BindingError{Workflow: wf.ID, Node: decl.ID, Msg: "unknown task " + decl.Task.String()}
			}
			if err := fillDefaults(wf, decl, args, task.Inputs); err != nil {
				return nil, err
			}
			f.calls = append(f.calls, flatCall{addr: addr, task: task, args: args})
			locals[decl.ID] = addr.String()
			continue
		}

		sub, ok := f.reg.Workflow(decl.Workflow)
		if !ok {
			return nil, &BindingError{Workflow: wf.ID, Node: decl.ID, Msg: "unknown workflow " + decl.Workflow.String()}
		}
		if err := fillDefaults(wf, decl, args, sub.Inputs); err != nil {
			return nil, err
		}

		if decl.Mode == spec.ModeExternal {
			f.calls = append(f.calls, flatCall{addr: addr, workflow: sub, args: args})
			locals[decl.ID] = addr.String()
			continue
		}

		subOutputs, err := f.flatten(sub, addr, args)
		if err != nil {
			return nil, err
		}
		locals[decl.ID] = subOutputs
	}

	outputs := make(map[string]spec.Binding, len(wf.OutputBindings))
	for name, b := range wf.OutputBindings {
		rewritten, err := f.rewrite(wf, "", name, b, locals, inputRewrite)
		if err != nil {
			return nil, err
		}
		outputs[name] = rewritten
	}
	return outputs, nil
}

// rewriteArgs rewrites every argument binding of one declaration.
func (f *flattener) rewriteArgs(wf *spec.WorkflowSpec, decl *spec.NodeDecl, locals map[string]any, inputRewrite map[string]spec.Binding) (map[string]spec.Binding, error) {
	args := make(map[string]spec.Binding, len(decl.Args))
	for param, b := range decl.Args {
		rewritten, err := f.rewrite(wf, decl.ID, param, b, locals, inputRewrite)
		if err != nil {
			return nil, err
		}
		args[param] = rewritten
	}
	return args, nil
}

// rewrite maps a lexical binding onto the flattened graph. Literals pass
// through. Workflow-input references stay symbolic at the top level and are
// substituted with the call site's own binding when the workflow was inlined.
// Node-output references are renamed to flattened ids, or chased through an
// inlined sub-workflow's declared outputs.
func (f *flattener) rewrite(wf *spec.WorkflowSpec, node, param string, b spec.Binding, locals map[string]any, inputRewrite map[string]spec.Binding) (spec.Binding, error) {
	switch b.Kind {
	case spec.BindLiteral:
		return b, nil

	case spec.BindInput:
		if wf.Input(b.Input) == nil {
			return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "reference to undeclared workflow input " + b.Input}
		}
		if inputRewrite == nil {
			return b, nil
		}
		rb, ok := inputRewrite[b.Input]
		if !ok {
			// fillDefaults bound every declared input at the call site.
			return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "input " + b.Input + " was not bound at the call site"}
		}
		return rb, nil

	case spec.BindOutput:
		local, ok := locals[b.Node]
		if !ok {
			// Also hit by forward references: bindings may only point at
			// nodes declared earlier in lexical order.
			return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "reference to undeclared or later node " + b.Node}
		}
		switch src := local.(type) {
		case string:
			return spec.OutputBinding(src, b.Output), nil
		case map[string]spec.Binding:
			ob, ok := src[b.Output]
			if !ok {
				return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "sub-workflow " + b.Node + " declares no output " + b.Output}
			}
			return ob, nil
		default:
			return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "unresolvable reference to node " + b.Node}
		}

	default:
		return spec.Binding{}, &BindingError{Workflow: wf.ID, Node: node, Param: param, Msg: "unknown binding kind"}
	}
}

// fillDefaults checks the declaration's arguments against the callee's
// declared parameters: unknown argument names are structural errors, and
// unbound parameters either take their declared default or fail the build.
func fillDefaults(wf *spec.WorkflowSpec, decl *spec.NodeDecl, args map[string]spec.Binding, params []spec.Parameter) error {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	for name := range args {
		if !declared[name] {
			return &BindingError{Workflow: wf.ID, Node: decl.ID, Param: name, Msg: "callee declares no such input"}
		}
	}
	for _, p := range params {
		if _, bound := args[p.Name]; bound {
			continue
		}
		if !p.HasDefault() {
			return &BindingError{Workflow: wf.ID, Node: decl.ID, Param: p.Name, Msg: "required input is not bound and has no default"}
		}
		args[p.Name] = spec.LiteralBinding(p.Default)
	}
	return nil
}
