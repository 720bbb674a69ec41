package hclspec

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes all top-level blocks from one declaration file.
type fileRoot struct {
	Tasks     []*taskBlock     `hcl:"task,block"`
	Workflows []*workflowBlock `hcl:"workflow,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

// taskBlock is the HCL surface of a TaskSpec.
type taskBlock struct {
	Name      string            `hcl:"name,label"`
	Version   string            `hcl:"version,optional"`
	Handler   string            `hcl:"handler"`
	Cacheable bool              `hcl:"cacheable,optional"`
	Inputs    []*inputBlock     `hcl:"input,block"`
	Outputs   []*outputDefBlock `hcl:"output,block"`
}

// workflowBlock is the HCL surface of a WorkflowSpec.
type workflowBlock struct {
	Name    string            `hcl:"name,label"`
	Version string            `hcl:"version,optional"`
	Inputs  []*inputBlock     `hcl:"input,block"`
	Calls   []*callBlock      `hcl:"call,block"`
	Outputs []*outputDefBlock `hcl:"output,block"`
}

// inputBlock declares one typed input parameter, optionally with a default.
type inputBlock struct {
	Name    string         `hcl:"name,label"`
	Type    hcl.Expression `hcl:"type"`
	Default hcl.Expression `hcl:"default,optional"`
}

// outputDefBlock declares one typed output. Task outputs carry no value
// expression; workflow outputs must bind one.
type outputDefBlock struct {
	Name  string         `hcl:"name,label"`
	Type  hcl.Expression `hcl:"type"`
	Value hcl.Expression `hcl:"value,optional"`
}

// callBlock declares one node: a task call or a sub-workflow call.
type callBlock struct {
	ID       string     `hcl:"id,label"`
	Task     string     `hcl:"task,optional"`
	Workflow string     `hcl:"workflow,optional"`
	Mode     string     `hcl:"mode,optional"`
	Rename   string     `hcl:"rename,optional"`
	Args     *argsBlock `hcl:"args,block"`
}

// argsBlock holds the raw argument attributes of a call.
type argsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
