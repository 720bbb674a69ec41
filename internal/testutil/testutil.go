// Package testutil carries shared test fixtures: a thread-safe log buffer,
// a small handler set, and the three-level workflow scenario used across
// graph, executor, and application tests.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/invoker"
	"github.com/vk/weftflow/internal/spec"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// AddWorld is the handler behind the t1 fixture task: it returns the "a"
// input shifted by two, plus a constant greeting.
func AddWorld(_ context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	return map[string]cty.Value{
		"t1_int_output": args["a"].Add(cty.NumberIntVal(2)),
		"c":             cty.StringVal("world"),
	}, nil
}

// NewHandlers returns a handler registry with the fixture handlers installed.
func NewHandlers(t *testing.T) *invoker.Registry {
	t.Helper()
	reg := invoker.NewRegistry()
	require.NoError(t, reg.Register("add_world", AddWorld))
	return reg
}

// T1Task declares the fixture task t1: (a: number) -> (t1_int_output: number,
// c: string).
func T1Task() *spec.TaskSpec {
	return &spec.TaskSpec{
		ID:     spec.NewIdentity("t1", ""),
		Inputs: []spec.Parameter{{Name: "a", Type: cty.Number}},
		Outputs: []spec.Output{
			{Name: "t1_int_output", Type: cty.Number},
			{Name: "c", Type: cty.String},
		},
		Handler: "add_world",
	}
}

// LeafWorkflow declares leaf_subwf: t1 chained twice, returning both
// greetings. Its single input defaults to 42.
func LeafWorkflow() *spec.WorkflowSpec {
	t1 := spec.NewIdentity("t1", "")
	return &spec.WorkflowSpec{
		ID:     spec.NewIdentity("leaf_subwf", ""),
		Inputs: []spec.Parameter{{Name: "a", Type: cty.Number, Default: cty.NumberIntVal(42)}},
		Outputs: []spec.Output{
			{Name: "o0", Type: cty.String},
			{Name: "o1", Type: cty.String},
		},
		Nodes: []spec.NodeDecl{
			{ID: "n0", Task: t1, Args: map[string]spec.Binding{"a": spec.InputBinding("a")}},
			{ID: "n1", Task: t1, Args: map[string]spec.Binding{"a": spec.OutputBinding("n0", "t1_int_output")}},
		},
		OutputBindings: map[string]spec.Binding{
			"o0": spec.OutputBinding("n0", "c"),
			"o1": spec.OutputBinding("n1", "c"),
		},
	}
}

// ParentWorkflow declares parent_wf: one t1 call feeding an inlined
// leaf_subwf, returning the shifted number and both greetings.
func ParentWorkflow() *spec.WorkflowSpec {
	return &spec.WorkflowSpec{
		ID:     spec.NewIdentity("parent_wf", ""),
		Inputs: []spec.Parameter{{Name: "a", Type: cty.Number}},
		Outputs: []spec.Output{
			{Name: "o0", Type: cty.Number},
			{Name: "o1", Type: cty.String},
			{Name: "o2", Type: cty.String},
		},
		Nodes: []spec.NodeDecl{
			{ID: "n0", Task: spec.NewIdentity("t1", ""), Args: map[string]spec.Binding{"a": spec.InputBinding("a")}},
			{ID: "n1", Workflow: spec.NewIdentity("leaf_subwf", ""), Args: map[string]spec.Binding{"a": spec.OutputBinding("n0", "t1_int_output")}},
		},
		OutputBindings: map[string]spec.Binding{
			"o0": spec.OutputBinding("n0", "t1_int_output"),
			"o1": spec.OutputBinding("n1", "o0"),
			"o2": spec.OutputBinding("n1", "o1"),
		},
	}
}

// FixtureRegistry returns a registry holding the full t1 / leaf_subwf /
// parent_wf scenario.
func FixtureRegistry(t *testing.T) *spec.Registry {
	t.Helper()
	reg := spec.NewRegistry()
	require.NoError(t, reg.RegisterTask(T1Task()))
	require.NoError(t, reg.RegisterWorkflow(LeafWorkflow()))
	require.NoError(t, reg.RegisterWorkflow(ParentWorkflow()))
	return reg
}

// FixtureHCL is the same scenario expressed as a declaration file.
const FixtureHCL = `
task "t1" {
  handler = "add_world"

  input "a" {
    type = number
  }
  output "t1_int_output" {
    type = number
  }
  output "c" {
    type = string
  }
}

workflow "leaf_subwf" {
  input "a" {
    type    = number
    default = 42
  }

  call "n0" {
    task = "t1"
    args {
      a = input.a
    }
  }
  call "n1" {
    task = "t1"
    args {
      a = call.n0.t1_int_output
    }
  }

  output "o0" {
    type  = string
    value = call.n0.c
  }
  output "o1" {
    type  = string
    value = call.n1.c
  }
}

workflow "parent_wf" {
  input "a" {
    type = number
  }

  call "n0" {
    task = "t1"
    args {
      a = input.a
    }
  }
  call "n1" {
    workflow = "leaf_subwf"
    args {
      a = call.n0.t1_int_output
    }
  }

  output "o0" {
    type  = number
    value = call.n0.t1_int_output
  }
  output "o1" {
    type  = string
    value = call.n1.o0
  }
  output "o2" {
    type  = string
    value = call.n1.o1
  }
}
`
