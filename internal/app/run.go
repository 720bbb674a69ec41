package app

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/executor"
	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/observer"
	"github.com/vk/weftflow/internal/spec"
)

// Run executes the configured workflow end to end and writes its bound
// outputs, in declared order, to the application's output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	id, err := spec.ParseIdentity(a.config.Workflow)
	if err != nil {
		return err
	}
	wf, ok := a.specs.Workflow(id)
	if !ok {
		return fmt.Errorf("workflow %s is not defined in %s", id, a.config.FlowPath)
	}

	args, err := parseArgs(wf, a.config.Args)
	if err != nil {
		return err
	}

	a.logger.Debug("Building execution graph...")
	g, err := graph.Build(ctx, wf, a.specs, graph.Options{MaxDepth: a.config.MaxDepth})
	if err != nil {
		return fmt.Errorf("failed to build execution graph: %w", err)
	}
	a.logger.Debug("Execution graph built.", "node_count", g.Len())

	a.logger.Info("🚀 Starting concurrent execution...")
	res, err := executor.Run(ctx, g, args, executor.Options{
		Workers:  a.config.Workers,
		Observer: observer.Slog{Logger: a.logger},
		Invoker:  a.invoker,
		Cache:    a.cache,
	})
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	return a.printOutputs(wf, res.Outputs)
}

// parseArgs converts command-line argument strings into typed values using
// the workflow's declared input types. Unknown names are rejected up front.
func parseArgs(wf *spec.WorkflowSpec, raw map[string]string) (map[string]cty.Value, error) {
	args := make(map[string]cty.Value, len(raw))
	for name, str := range raw {
		param := wf.Input(name)
		if param == nil {
			return nil, fmt.Errorf("workflow %s declares no input %q", wf.ID, name)
		}
		val, err := convert.Convert(cty.StringVal(str), param.Type)
		if err != nil {
			return nil, fmt.Errorf("input %q: cannot use %q as %s: %w", name, str, param.Type.FriendlyName(), err)
		}
		args[name] = val
	}
	return args, nil
}

// printOutputs writes each declared workflow output as a "name = json" line.
func (a *App) printOutputs(wf *spec.WorkflowSpec, outputs map[string]cty.Value) error {
	for _, out := range wf.Outputs {
		val, ok := outputs[out.Name]
		if !ok {
			continue
		}
		payload, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return fmt.Errorf("failed to render output %q: %w", out.Name, err)
		}
		fmt.Fprintf(a.outW, "%s = %s\n", out.Name, payload)
	}
	return nil
}
