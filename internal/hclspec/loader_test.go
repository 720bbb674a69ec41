package hclspec_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/hclspec"
	"github.com/vk/weftflow/internal/spec"
	"github.com/vk/weftflow/internal/testutil"
)

func loadSource(t *testing.T, src string) (*spec.Registry, error) {
	t.Helper()
	return hclspec.NewLoader().LoadSource(context.Background(), "test.hcl", []byte(src))
}

func mustLoadSource(t *testing.T, src string) *spec.Registry {
	t.Helper()
	reg, err := loadSource(t, src)
	require.NoError(t, err)
	return reg
}

func TestLoadSource_NestedWorkflowFixture(t *testing.T) {
	t.Parallel()
	reg := mustLoadSource(t, testutil.FixtureHCL)

	task, ok := reg.Task(spec.NewIdentity("t1", ""))
	require.True(t, ok)
	require.Equal(t, "add_world", task.Handler)
	require.False(t, task.Cacheable)
	require.Len(t, task.Inputs, 1)
	require.Equal(t, cty.Number, task.Inputs[0].Type)
	require.Len(t, task.Outputs, 2)
	require.Equal(t, "t1_int_output", task.Outputs[0].Name)
	require.Equal(t, cty.String, task.Outputs[1].Type)

	leaf, ok := reg.Workflow(spec.NewIdentity("leaf_subwf", ""))
	require.True(t, ok)
	require.True(t, leaf.Inputs[0].HasDefault())
	require.True(t, leaf.Inputs[0].Default.RawEquals(cty.NumberIntVal(42)))

	// Calls keep declaration order and their binding shapes.
	require.Len(t, leaf.Nodes, 2)
	require.Equal(t, "n0", leaf.Nodes[0].ID)
	require.Equal(t, spec.InputBinding("a"), leaf.Nodes[0].Args["a"])
	require.Equal(t, spec.OutputBinding("n0", "t1_int_output"), leaf.Nodes[1].Args["a"])
	require.Equal(t, spec.OutputBinding("n1", "c"), leaf.OutputBindings["o1"])

	parent, ok := reg.Workflow(spec.NewIdentity("parent_wf", ""))
	require.True(t, ok)
	require.False(t, parent.Nodes[1].IsTask())
	require.Equal(t, spec.ModeInline, parent.Nodes[1].Mode)
	require.Equal(t, spec.NewIdentity("leaf_subwf", ""), parent.Nodes[1].Workflow)
}

func TestLoadSource_CallModifiers(t *testing.T) {
	t.Parallel()
	reg := mustLoadSource(t, `
task "t" {
  handler   = "noop"
  cacheable = true
}

workflow "wf" {
  call "direct" {
    task = "t"
  }
  call "detached" {
    workflow = "wf2@v2"
    mode     = "external"
    rename   = "spawned"
  }
}
`)

	task, ok := reg.Task(spec.NewIdentity("t", ""))
	require.True(t, ok)
	require.True(t, task.Cacheable)

	wf, ok := reg.Workflow(spec.NewIdentity("wf", ""))
	require.True(t, ok)
	require.Len(t, wf.Nodes, 2)

	detached := wf.Nodes[1]
	require.Equal(t, spec.ModeExternal, detached.Mode)
	require.Equal(t, "spawned", detached.Name())
	require.Equal(t, spec.NewIdentity("wf2", "v2"), detached.Workflow)
}

func TestLoadSource_LiteralArguments(t *testing.T) {
	t.Parallel()
	reg := mustLoadSource(t, `
task "t" {
  handler = "noop"
  input "n" {
    type = number
  }
  input "s" {
    type = string
  }
  input "flag" {
    type = bool
  }
}

workflow "wf" {
  call "n0" {
    task = "t"
    args {
      n    = 7
      s    = "hello"
      flag = true
    }
  }
}
`)

	wf, ok := reg.Workflow(spec.NewIdentity("wf", ""))
	require.True(t, ok)
	args := wf.Nodes[0].Args
	require.Equal(t, spec.BindLiteral, args["n"].Kind)
	require.True(t, args["n"].Literal.RawEquals(cty.NumberIntVal(7)))
	require.True(t, args["s"].Literal.RawEquals(cty.StringVal("hello")))
	require.True(t, args["flag"].Literal.RawEquals(cty.True))
}

func TestLoadSource_TypeExpressions(t *testing.T) {
	t.Parallel()
	reg := mustLoadSource(t, `
task "t" {
  handler = "noop"
  input "strings" {
    type = list(string)
  }
  input "lookup" {
    type = map(number)
  }
  input "unique" {
    type = set(string)
  }
  input "shape" {
    type = object({ name = string, count = number })
  }
  input "anything" {
    type = any
  }
}
`)

	task, ok := reg.Task(spec.NewIdentity("t", ""))
	require.True(t, ok)

	expected := map[string]cty.Type{
		"strings":  cty.List(cty.String),
		"lookup":   cty.Map(cty.Number),
		"unique":   cty.Set(cty.String),
		"shape":    cty.Object(map[string]cty.Type{"name": cty.String, "count": cty.Number}),
		"anything": cty.DynamicPseudoType,
	}
	for name, expectedType := range expected {
		p := task.Input(name)
		require.NotNil(t, p, "input %q", name)
		require.True(t, p.Type.Equals(expectedType), "input %q: got %s", name, p.Type.FriendlyName())
	}
}

func TestLoadSource_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "call naming both task and workflow",
			src: `
workflow "wf" {
  call "n0" {
    task     = "t"
    workflow = "sub"
  }
}
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "call naming neither",
			src: `
workflow "wf" {
  call "n0" {
  }
}
`,
			wantErr: "must name a task or a workflow",
		},
		{
			name: "invalid mode",
			src: `
workflow "wf" {
  call "n0" {
    workflow = "sub"
    mode     = "sideways"
  }
}
`,
			wantErr: "invalid mode",
		},
		{
			name: "mode on a task call",
			src: `
workflow "wf" {
  call "n0" {
    task = "t"
    mode = "external"
  }
}
`,
			wantErr: "mode applies only to workflow calls",
		},
		{
			name: "task output with a value",
			src: `
task "t" {
  handler = "noop"
  output "x" {
    type  = string
    value = "nope"
  }
}
`,
			wantErr: "output types only",
		},
		{
			name: "workflow output without a value",
			src: `
workflow "wf" {
  output "x" {
    type = string
  }
}
`,
			wantErr: "missing value binding",
		},
		{
			name: "unknown reference root",
			src: `
workflow "wf" {
  call "n0" {
    task = "t"
    args {
      a = step.n1.out
    }
  }
}
`,
			wantErr: "unknown reference root",
		},
		{
			name: "unknown primitive type",
			src: `
task "t" {
  handler = "noop"
  input "a" {
    type = integer
  }
}
`,
			wantErr: "unknown primitive type",
		},
		{
			name: "collection of any",
			src: `
task "t" {
  handler = "noop"
  input "a" {
    type = list(any)
  }
}
`,
			wantErr: "cannot contain type 'any'",
		},
		{
			name: "duplicate task declaration",
			src: `
task "t" {
  handler = "noop"
}
task "t" {
  handler = "noop"
}
`,
			wantErr: "already registered",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadSource(t, tc.src)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_WalksDirectories(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	taskSrc := `
task "t" {
  handler = "noop"
}
`
	wfSrc := `
workflow "wf" {
  call "n0" {
    task = "t"
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.hcl"), []byte(taskSrc), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "flows"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flows", "wf.hcl"), []byte(wfSrc), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	reg, err := hclspec.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	_, ok := reg.Task(spec.NewIdentity("t", ""))
	require.True(t, ok)
	_, ok = reg.Workflow(spec.NewIdentity("wf", ""))
	require.True(t, ok)
}

func TestLoad_MissingPath(t *testing.T) {
	t.Parallel()
	_, err := hclspec.NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}

func TestLoadSource_ParseError(t *testing.T) {
	t.Parallel()
	_, err := loadSource(t, `task "t" {`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}
