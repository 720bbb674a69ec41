// Package builtin registers the handler set that ships with the weftflow
// binary. Flow files bind their task declarations to these by handler name;
// anything beyond this set is registered by the embedding application.
package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/invoker"
)

// Register installs every built-in handler into the registry.
func Register(reg *invoker.Registry) error {
	handlers := map[string]invoker.Handler{
		"sum":       sum,
		"concat":    concat,
		"uppercase": uppercase,
		"print":     printMessage,
		"sleep":     sleep,
	}
	for name, h := range handlers {
		if err := reg.Register(name, h); err != nil {
			return err
		}
	}
	return nil
}

func requireArg(args map[string]cty.Value, name string) (cty.Value, error) {
	v, ok := args[name]
	if !ok || v == cty.NilVal {
		return cty.NilVal, fmt.Errorf("missing input %q", name)
	}
	return v, nil
}

// sum adds the numbers "a" and "b" into "result".
func sum(_ context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	a, err := requireArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := requireArg(args, "b")
	if err != nil {
		return nil, err
	}
	return map[string]cty.Value{"result": a.Add(b)}, nil
}

// concat joins the strings "a" and "b" into "result".
func concat(_ context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	a, err := requireArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := requireArg(args, "b")
	if err != nil {
		return nil, err
	}
	return map[string]cty.Value{"result": cty.StringVal(a.AsString() + b.AsString())}, nil
}

// uppercase folds the string "text" to upper case as "result".
func uppercase(_ context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	text, err := requireArg(args, "text")
	if err != nil {
		return nil, err
	}
	return map[string]cty.Value{"result": cty.StringVal(strings.ToUpper(text.AsString()))}, nil
}

// printMessage logs the "message" input at info level. It declares no outputs.
func printMessage(ctx context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	message, err := requireArg(args, "message")
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("print", "message", message.AsString())
	return map[string]cty.Value{}, nil
}

// sleep pauses for "seconds" or until the context is cancelled.
func sleep(ctx context.Context, args map[string]cty.Value) (map[string]cty.Value, error) {
	seconds, err := requireArg(args, "seconds")
	if err != nil {
		return nil, err
	}
	f, _ := seconds.AsBigFloat().Float64()
	select {
	case <-time.After(time.Duration(f * float64(time.Second))):
		return map[string]cty.Value{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
