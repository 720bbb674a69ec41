package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/weftflow/internal/app"
	"github.com/vk/weftflow/internal/builtin"
	"github.com/vk/weftflow/internal/cli"
	"github.com/vk/weftflow/internal/invoker"
)

// main is the entrypoint for the weftflow application.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	handlers := invoker.NewRegistry()
	if err := builtin.Register(handlers); err != nil {
		return err
	}

	a, err := app.NewApp(cfg, handlers, outW)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(context.Background())
}
