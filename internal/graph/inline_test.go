package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/spec"
	"github.com/vk/weftflow/internal/testutil"
)

func TestInline_SiblingSubworkflowsGetDistinctIDs(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	// Both call sites expand leaf_subwf, whose internal nodes are named n0
	// and n1 in both copies. Prefixing keeps the flattened ids distinct.
	wf := &spec.WorkflowSpec{
		ID: spec.NewIdentity("siblings", ""),
		Nodes: []spec.NodeDecl{
			{ID: "s0", Workflow: spec.NewIdentity("leaf_subwf", "")},
			{ID: "s1", Workflow: spec.NewIdentity("leaf_subwf", "")},
		},
	}

	g := mustBuild(t, wf, reg)
	require.Equal(t, []string{"s0.n0", "s0.n1", "s1.n0", "s1.n1"}, nodeIDs(g))
}

func TestInline_RenameOverridesCallSiteID(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	wf := testutil.ParentWorkflow()
	wf.Nodes[1].Rename = "leaf-call"

	g := mustBuild(t, wf, reg)
	require.Equal(t, []string{"n0", "leaf-call.n0", "leaf-call.n1"}, nodeIDs(g))

	// Bindings keep working through the renamed prefix.
	require.Equal(t, spec.OutputBinding("leaf-call.n0", "c"), g.Outputs["o1"])
}

func TestInline_DuplicateEffectiveNames(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	arg := map[string]spec.Binding{"a": spec.LiteralBinding(cty.NumberIntVal(1))}
	wf := &spec.WorkflowSpec{
		ID: spec.NewIdentity("wf", ""),
		Nodes: []spec.NodeDecl{
			{ID: "n0", Task: spec.NewIdentity("t1", ""), Args: arg},
			{ID: "n1", Rename: "n0", Task: spec.NewIdentity("t1", ""), Args: arg},
		},
	}

	_, err := graph.Build(context.Background(), wf, reg, graph.Options{})
	var bindErr *graph.BindingError
	require.ErrorAs(t, err, &bindErr)
	require.Contains(t, bindErr.Msg, "already in use")
}

func TestInline_DefaultsFilledAtCallSite(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	// leaf_subwf's input defaults to 42; calling it with no arguments binds
	// the default as a literal on the inlined entry node.
	wf := &spec.WorkflowSpec{
		ID:    spec.NewIdentity("wf", ""),
		Nodes: []spec.NodeDecl{{ID: "s", Workflow: spec.NewIdentity("leaf_subwf", "")}},
	}

	g := mustBuild(t, wf, reg)

	entry := g.Node("s.n0")
	require.NotNil(t, entry)
	b := entry.Args["a"]
	require.Equal(t, spec.BindLiteral, b.Kind)
	require.True(t, b.Literal.RawEquals(cty.NumberIntVal(42)))
}

func TestInline_CallSiteBindingSubstitutesInputReference(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	g := mustBuild(t, testutil.ParentWorkflow(), reg)

	// Inside leaf_subwf, n0 binds a = input.a. After inlining at call site
	// n1, that reference is replaced by the caller's binding for a.
	entry := g.Node("n1.n0")
	require.Equal(t, spec.OutputBinding("n0", "t1_int_output"), entry.Args["a"])
}

func TestInline_SelfRecursionDetected(t *testing.T) {
	t.Parallel()
	reg := spec.NewRegistry()

	wf := &spec.WorkflowSpec{
		ID:    spec.NewIdentity("loop", ""),
		Nodes: []spec.NodeDecl{{ID: "again", Workflow: spec.NewIdentity("loop", "")}},
	}
	require.NoError(t, reg.RegisterWorkflow(wf))

	_, err := graph.Build(context.Background(), wf, reg, graph.Options{})
	var recErr *graph.RecursionError
	require.ErrorAs(t, err, &recErr)
	require.Equal(t, wf.ID, recErr.Workflow)
	require.Zero(t, recErr.MaxDepth, "a detected cycle is reported as such, not as a depth overflow")
}

func TestInline_MutualRecursionDetected(t *testing.T) {
	t.Parallel()
	reg := spec.NewRegistry()

	a := &spec.WorkflowSpec{
		ID:    spec.NewIdentity("a", ""),
		Nodes: []spec.NodeDecl{{ID: "n0", Workflow: spec.NewIdentity("b", "")}},
	}
	b := &spec.WorkflowSpec{
		ID:    spec.NewIdentity("b", ""),
		Nodes: []spec.NodeDecl{{ID: "n0", Workflow: spec.NewIdentity("a", "")}},
	}
	require.NoError(t, reg.RegisterWorkflow(a))
	require.NoError(t, reg.RegisterWorkflow(b))

	_, err := graph.Build(context.Background(), a, reg, graph.Options{})
	var recErr *graph.RecursionError
	require.ErrorAs(t, err, &recErr)
	require.Equal(t, a.ID, recErr.Workflow)
	require.Equal(t, []spec.Identity{a.ID, b.ID}, recErr.Chain)
}

func TestInline_DepthBound(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	_, err := graph.Build(context.Background(), testutil.ParentWorkflow(), reg, graph.Options{MaxDepth: 1})
	var recErr *graph.RecursionError
	require.ErrorAs(t, err, &recErr)
	require.Equal(t, 1, recErr.MaxDepth)

	// The same nesting builds fine one level deeper.
	_, err = graph.Build(context.Background(), testutil.ParentWorkflow(), reg, graph.Options{MaxDepth: 2})
	require.NoError(t, err)
}

func TestInline_ExternalCallDoesNotRecurse(t *testing.T) {
	t.Parallel()
	reg := spec.NewRegistry()

	// A workflow referencing itself in external mode is a single opaque node,
	// not an expansion, so the build terminates.
	wf := &spec.WorkflowSpec{
		ID: spec.NewIdentity("loop", ""),
		Nodes: []spec.NodeDecl{{
			ID:       "again",
			Workflow: spec.NewIdentity("loop", ""),
			Mode:     spec.ModeExternal,
		}},
	}
	require.NoError(t, reg.RegisterWorkflow(wf))

	g := mustBuild(t, wf, reg)
	require.Equal(t, []string{"again"}, nodeIDs(g))
	require.Equal(t, graph.KindExternal, g.Node("again").Kind)
}
