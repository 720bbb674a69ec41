package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/resolve"
	"github.com/vk/weftflow/internal/spec"
	"github.com/vk/weftflow/internal/testutil"
)

func buildLeaf(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(context.Background(), testutil.LeafWorkflow(), testutil.FixtureRegistry(t), graph.Options{})
	require.NoError(t, err)
	return g
}

func TestInputs_LiteralAndConversion(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	// A string literal bound to a number parameter converts at resolution.
	wf := &spec.WorkflowSpec{
		ID: spec.NewIdentity("wf", ""),
		Nodes: []spec.NodeDecl{{
			ID:   "n0",
			Task: spec.NewIdentity("t1", ""),
			Args: map[string]spec.Binding{"a": spec.LiteralBinding(cty.StringVal("5"))},
		}},
	}
	g, err := graph.Build(context.Background(), wf, reg, graph.Options{})
	require.NoError(t, err)

	resolved, err := resolve.Inputs(g, g.Node("n0"), nil)
	require.NoError(t, err)
	require.True(t, resolved["a"].RawEquals(cty.NumberIntVal(5)))
}

func TestInputs_WorkflowInputAndDefault(t *testing.T) {
	t.Parallel()
	g := buildLeaf(t)

	// Supplied argument wins.
	resolved, err := resolve.Inputs(g, g.Node("n0"), map[string]cty.Value{"a": cty.NumberIntVal(7)})
	require.NoError(t, err)
	require.True(t, resolved["a"].RawEquals(cty.NumberIntVal(7)))

	// With nothing supplied the declared default applies.
	resolved, err = resolve.Inputs(g, g.Node("n0"), nil)
	require.NoError(t, err)
	require.True(t, resolved["a"].RawEquals(cty.NumberIntVal(42)))
}

func TestInputs_MissingRequiredInput(t *testing.T) {
	t.Parallel()
	reg := testutil.FixtureRegistry(t)

	g, err := graph.Build(context.Background(), testutil.ParentWorkflow(), reg, graph.Options{})
	require.NoError(t, err)

	_, err = resolve.Inputs(g, g.Node("n0"), nil)
	var missing *resolve.MissingInputError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "a", missing.Input)
	require.Equal(t, spec.NewIdentity("parent_wf", ""), missing.Workflow)
}

func TestInputs_UpstreamOutput(t *testing.T) {
	t.Parallel()
	g := buildLeaf(t)

	// n1 consumes n0's numeric output; reading it before n0 is Succeeded is
	// an internal invariant violation.
	_, err := resolve.Inputs(g, g.Node("n1"), nil)
	var unresolved *resolve.UnresolvedOutputError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "n0", unresolved.Node)
	require.Equal(t, graph.Pending, unresolved.State)

	g.Node("n0").Succeed(map[string]cty.Value{
		"t1_int_output": cty.NumberIntVal(44),
		"c":             cty.StringVal("world"),
	})

	resolved, err := resolve.Inputs(g, g.Node("n1"), nil)
	require.NoError(t, err)
	require.True(t, resolved["a"].RawEquals(cty.NumberIntVal(44)))
}

func TestInputs_OutputOfFailedNode(t *testing.T) {
	t.Parallel()
	g := buildLeaf(t)

	n0 := g.Node("n0")
	require.True(t, n0.TryStart())
	n0.Fail(context.DeadlineExceeded)

	_, err := resolve.Inputs(g, g.Node("n1"), nil)
	var unresolved *resolve.UnresolvedOutputError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, graph.Failed, unresolved.State)
}

func TestOutputs(t *testing.T) {
	t.Parallel()
	g := buildLeaf(t)

	g.Node("n0").Succeed(map[string]cty.Value{
		"t1_int_output": cty.NumberIntVal(44),
		"c":             cty.StringVal("world"),
	})
	g.Node("n1").Succeed(map[string]cty.Value{
		"t1_int_output": cty.NumberIntVal(46),
		"c":             cty.StringVal("world"),
	})

	outputs, err := resolve.Outputs(g, nil)
	require.NoError(t, err)
	require.True(t, outputs["o0"].RawEquals(cty.StringVal("world")))
	require.True(t, outputs["o1"].RawEquals(cty.StringVal("world")))
}
