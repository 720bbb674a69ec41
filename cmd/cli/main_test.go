package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	flow := `
task "add" {
  handler = "sum"

  input "a" {
    type = number
  }
  input "b" {
    type = number
  }
  output "result" {
    type = number
  }
}

workflow "main" {
  input "a" {
    type = number
  }

  call "n0" {
    task = "add"
    args {
      a = input.a
      b = 2
    }
  }

  output "out" {
    type  = number
    value = call.n0.result
  }
}
`
	path := filepath.Join(t.TempDir(), "flow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(flow), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{
		"-f", path,
		"-workflow", "main",
		"-arg", "a=3",
		"-log-level", "error",
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "out = 5")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	err := run(out, []string{"-h"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined")
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	invalid := `
task "broken" {
  handler = "sum"
`
	path := filepath.Join(t.TempDir(), "flow.hcl")
	require.NoError(t, os.WriteFile(path, []byte(invalid), 0o600))

	err := run(&bytes.Buffer{}, []string{"-f", path, "-workflow", "main", "-log-level", "error"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load flow definitions")
}
