package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{FlowPath: "flow.hcl", Workflow: "parent_wf"})
	require.NoError(t, err)
	require.Equal(t, "flow.hcl", cfg.FlowPath)

	_, err = NewConfig(Config{Workflow: "parent_wf"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "FlowPath")

	_, err = NewConfig(Config{FlowPath: "flow.hcl"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Workflow")
}
