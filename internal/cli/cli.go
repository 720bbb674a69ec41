package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/weftflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// argList collects repeated -arg name=value flags.
type argList map[string]string

func (a argList) String() string {
	pairs := make([]string, 0, len(a))
	for k, v := range a {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (a argList) Set(raw string) error {
	name, value, found := strings.Cut(raw, "=")
	if !found || name == "" {
		return fmt.Errorf("argument must be of the form name=value, got %q", raw)
	}
	if _, dup := a[name]; dup {
		return fmt.Errorf("argument %q given more than once", name)
	}
	a[name] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("weftflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Weftflow - a local workflow orchestration engine.

Usage:
  weftflow [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the flow file or directory.")
	fFlag := flagSet.String("f", "", "Path to the flow file or directory (shorthand).")
	workflowFlag := flagSet.String("workflow", "", "Workflow to run, as 'name' or 'name@version'.")
	workflowArgs := make(argList)
	flagSet.Var(workflowArgs, "arg", "Workflow input as name=value. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 10, "Number of concurrent workers for one graph run. 0 is unbounded.")
	maxDepthFlag := flagSet.Int("max-depth", 0, "Sub-workflow nesting limit. 0 uses the built-in default.")
	cacheFlag := flagSet.String("cache", "", "Path to a SQLite cache database. Empty keeps the cache in memory.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *flowFlag != "" {
		path = *flowFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	if *workflowFlag == "" {
		return nil, false, &ExitError{Code: 2, Message: "the -workflow flag is required"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *maxDepthFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid max-depth: must not be negative"}
	}

	config, err := app.NewConfig(app.Config{
		FlowPath:  path,
		Workflow:  *workflowFlag,
		Args:      workflowArgs,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		Workers:   *workersFlag,
		MaxDepth:  *maxDepthFlag,
		CachePath: *cacheFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
