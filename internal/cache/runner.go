package cache

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/singleflight"

	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/spec"
)

// Runner is the cache-aware execution path for cacheable tasks. It owns the
// single-flight guard: concurrent identical keys share one underlying
// execution, with late requesters waiting on the first's result.
type Runner struct {
	store Store
	group singleflight.Group
}

// NewRunner creates a Runner over the given store.
func NewRunner(store Store) *Runner {
	return &Runner{store: store}
}

type doResult struct {
	outputs map[string]cty.Value
	hit     bool
}

// Do executes fn at most once for the task's cache key. On a store hit the
// stored outputs are replayed and fn never runs; on a miss fn runs and its
// outputs are stored before being returned. hit reports whether the outputs
// came from the store rather than a fresh execution.
func (r *Runner) Do(ctx context.Context, task *spec.TaskSpec, inputs map[string]cty.Value, fn func(ctx context.Context) (map[string]cty.Value, error)) (outputs map[string]cty.Value, hit bool, err error) {
	logger := ctxlog.FromContext(ctx)

	key, err := KeyFor(task, inputs)
	if err != nil {
		return nil, false, err
	}

	v, err, _ := r.group.Do(string(key), func() (any, error) {
		payload, ok, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			stored, err := DecodeOutputs(payload)
			if err != nil {
				return nil, err
			}
			logger.Debug("Cache hit.", "task", task.ID.String(), "key", string(key))
			return doResult{outputs: stored, hit: true}, nil
		}

		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := EncodeOutputs(out)
		if err != nil {
			return nil, err
		}
		if err := r.store.Put(ctx, key, encoded); err != nil {
			return nil, err
		}
		logger.Debug("Cache entry stored.", "task", task.ID.String(), "key", string(key))
		return doResult{outputs: out}, nil
	})
	if err != nil {
		return nil, false, err
	}

	res := v.(doResult)
	return res.outputs, res.hit, nil
}
