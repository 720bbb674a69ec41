package spec

import "github.com/zclconf/go-cty/cty"

// BindingKind enumerates the three sources a call argument can draw from.
type BindingKind int

const (
	// BindLiteral binds a constant value known at declaration time.
	BindLiteral BindingKind = iota
	// BindInput binds a workflow-level input by name.
	BindInput
	// BindOutput binds a named output of an upstream node.
	BindOutput
)

// Binding is one edge of the data-flow graph: a declared dependency from a
// literal, a workflow input, or an upstream node's output, into a call's
// input parameter.
type Binding struct {
	Kind BindingKind
	// Literal holds the constant for BindLiteral.
	Literal cty.Value
	// Input names the workflow input for BindInput.
	Input string
	// Node and Output locate the upstream value for BindOutput. Node is a
	// local id within the lexical workflow before inlining and a flattened
	// graph id after.
	Node   string
	Output string
}

// LiteralBinding binds a constant value.
func LiteralBinding(v cty.Value) Binding {
	return Binding{Kind: BindLiteral, Literal: v}
}

// InputBinding binds a workflow-level input by name.
func InputBinding(name string) Binding {
	return Binding{Kind: BindInput, Input: name}
}

// OutputBinding binds the named output of an upstream node.
func OutputBinding(node, output string) Binding {
	return Binding{Kind: BindOutput, Node: node, Output: output}
}
