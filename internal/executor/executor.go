package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/weftflow/internal/cache"
	"github.com/vk/weftflow/internal/ctxlog"
	"github.com/vk/weftflow/internal/graph"
	"github.com/vk/weftflow/internal/invoker"
	"github.com/vk/weftflow/internal/observer"
	"github.com/vk/weftflow/internal/resolve"
)

// Options configures one run.
type Options struct {
	// Workers is the parallelism ceiling shared across every node in the
	// graph, inlined sub-workflow nodes included. Zero or negative means
	// unbounded.
	Workers int
	// Observer receives node status transitions. Nil means none.
	Observer observer.Observer
	// Invoker dispatches task bodies and external workflow invocations.
	Invoker invoker.Invoker
	// Cache, when set, memoizes tasks marked cacheable. Nil disables caching.
	Cache *cache.Runner
}

// Result is the outcome of one run: terminal states for every node and, when
// all of them succeeded, the workflow's bound output values.
type Result struct {
	RunID   uuid.UUID
	Outputs map[string]cty.Value
	States  map[string]graph.State
}

// RunError is the structured failure report for a run that did not fully
// succeed: every failed node with its underlying error, plus every node that
// was skipped or cancelled as a consequence.
type RunError struct {
	RunID     uuid.UUID
	Failed    map[string]error
	Skipped   []string
	Cancelled []string
}

func (e *RunError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var sb strings.Builder
	fmt.Fprintf(&sb, "workflow run failed: %d failed, %d skipped, %d cancelled", len(e.Failed), len(e.Skipped), len(e.Cancelled))
	for _, id := range ids {
		fmt.Fprintf(&sb, "; %s: %v", id, e.Failed[id])
	}
	return sb.String()
}

// CancelledError marks a node terminated by run cancellation, either before
// it could be dispatched or while its body was in flight.
type CancelledError struct {
	Node  string
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("node %s cancelled: %v", e.Node, e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// run holds the state shared by one execution's workers.
type run struct {
	id    uuid.UUID
	graph *graph.Graph
	args  map[string]cty.Value
	opts  Options
	obs   observer.Observer

	ready chan *graph.Node
	wg    sync.WaitGroup
}

// Run executes the graph and blocks until every node is terminal. The
// returned Result is valid even when err is non-nil; err is a *RunError when
// any node failed, was skipped, or was cancelled.
func Run(ctx context.Context, g *graph.Graph, args map[string]cty.Value, opts Options) (*Result, error) {
	if opts.Invoker == nil {
		return nil, fmt.Errorf("executor: no invoker configured")
	}
	obs := opts.Observer
	if obs == nil {
		obs = observer.Nop{}
	}

	e := &run{
		id:    uuid.New(),
		graph: g,
		args:  args,
		opts:  opts,
		obs:   obs,
		ready: make(chan *graph.Node, g.Len()),
	}

	logger := ctxlog.FromContext(ctx).With("run_id", e.id.String(), "workflow", g.Workflow.ID.String())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Run starting.", "node_count", g.Len())

	workers := opts.Workers
	if workers <= 0 || workers > g.Len() {
		workers = g.Len()
	}

	e.wg.Add(g.Len())
	for _, n := range g.Nodes() {
		if n.DepCount() == 0 {
			e.ready <- n
		}
	}
	for i := 0; i < workers; i++ {
		go e.worker(ctx, i)
	}
	go func() {
		// Every enqueue happens before the enqueuing node's wg.Done, so the
		// channel is safe to close once the count drains.
		e.wg.Wait()
		close(e.ready)
	}()

	e.wg.Wait()
	return e.report(ctx)
}

// worker is the processing loop for a single concurrent worker.
func (e *run) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range e.ready {
		if err := ctx.Err(); err != nil {
			// No new dispatches after cancellation; drain what's queued.
			e.cancelTree(n, err)
			continue
		}
		if !n.TryStart() {
			// A propagated skip or cancellation owns this node already.
			continue
		}
		e.observe(n, graph.Pending, graph.Running, nil, false)

		logger.Debug("Worker picked up node.", "workerID", workerID, "nodeID", n.ID())
		e.execute(ctx, n)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// execute resolves the node's inputs, dispatches it, and settles its
// terminal state.
func (e *run) execute(ctx context.Context, n *graph.Node) {
	resolved, err := resolve.Inputs(e.graph, n, e.args)
	if err != nil {
		e.fail(ctx, n, err)
		return
	}

	var outputs map[string]cty.Value
	var hit bool
	switch n.Kind {
	case graph.KindExternal:
		// Externally-launched workflow: its own scheduling, its own ceiling.
		outputs, err = e.opts.Invoker.InvokeWorkflow(ctx, n.Workflow, resolved)
	default:
		if n.Task.Cacheable && e.opts.Cache != nil {
			outputs, hit, err = e.opts.Cache.Do(ctx, n.Task, resolved, func(ctx context.Context) (map[string]cty.Value, error) {
				return e.opts.Invoker.InvokeTask(ctx, n.Task, resolved)
			})
		} else {
			outputs, err = e.opts.Invoker.InvokeTask(ctx, n.Task, resolved)
		}
	}
	if err != nil {
		e.fail(ctx, n, err)
		return
	}

	n.Succeed(outputs)
	e.observe(n, graph.Running, graph.Succeeded, nil, hit)
	e.unlockDependents(ctx, n)
	e.wg.Done()
}

// unlockDependents decrements dependent counters and enqueues, in
// declaration order, those whose dependencies are now all satisfied.
func (e *run) unlockDependents(ctx context.Context, n *graph.Node) {
	dependents, err := e.graph.Dependents(n.ID())
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to get dependents for completed node.", "nodeID", n.ID(), "error", err)
		return
	}
	for _, d := range dependents {
		if d.DecrementDepCount() == 0 {
			e.ready <- d
		}
	}
}

// fail settles a node as Failed and skips its transitive dependents. A node
// whose body was interrupted by run cancellation is classified Cancelled
// instead, and its dependents are cancelled rather than skipped.
func (e *run) fail(ctx context.Context, n *graph.Node, cause error) {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		ctxlog.FromContext(ctx).Warn("Node cancelled while running.", "nodeID", n.ID(), "error", cause)
		n.Cancel(&CancelledError{Node: n.ID(), Cause: cause})
		e.observe(n, graph.Running, graph.Cancelled, n.Err(), false)
		e.wg.Done()
		if dependents, err := e.graph.Dependents(n.ID()); err == nil {
			for _, d := range dependents {
				e.cancelTree(d, cause)
			}
		}
		return
	}
	ctxlog.FromContext(ctx).Error("Node execution failed.", "nodeID", n.ID(), "error", cause)
	n.Fail(cause)
	e.observe(n, graph.Running, graph.Failed, cause, false)
	e.skipDependents(n, n.ID(), cause)
	e.wg.Done()
}

// skipDependents transitively marks everything downstream of origin as
// Skipped. Nodes on unrelated branches are untouched and keep running.
func (e *run) skipDependents(n *graph.Node, origin string, cause error) {
	dependents, err := e.graph.Dependents(n.ID())
	if err != nil {
		return
	}
	for _, d := range dependents {
		if d.TrySkip(fmt.Errorf("upstream node %s failed: %w", origin, cause)) {
			e.observe(d, graph.Pending, graph.Skipped, d.Err(), false)
			e.wg.Done()
			e.skipDependents(d, origin, cause)
		}
	}
}

// cancelTree marks a node and its transitive dependents Cancelled so the run
// drains after cancellation.
func (e *run) cancelTree(n *graph.Node, cause error) {
	if !n.TryCancel(&CancelledError{Node: n.ID(), Cause: cause}) {
		return
	}
	e.observe(n, graph.Pending, graph.Cancelled, n.Err(), false)
	e.wg.Done()
	dependents, err := e.graph.Dependents(n.ID())
	if err != nil {
		return
	}
	for _, d := range dependents {
		e.cancelTree(d, cause)
	}
}

func (e *run) observe(n *graph.Node, from, to graph.State, cause error, hit bool) {
	e.obs.NodeTransition(observer.Event{
		RunID:    e.id,
		Node:     n.ID(),
		From:     from,
		To:       to,
		Time:     time.Now(),
		Err:      cause,
		CacheHit: hit,
	})
}

// report assembles the Result once every node is terminal.
func (e *run) report(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	res := &Result{
		RunID:  e.id,
		States: make(map[string]graph.State, e.graph.Len()),
	}
	runErr := &RunError{RunID: e.id, Failed: make(map[string]error)}

	for _, n := range e.graph.Nodes() {
		st := n.State()
		res.States[n.ID()] = st
		switch st {
		case graph.Failed:
			runErr.Failed[n.ID()] = n.Err()
		case graph.Skipped:
			runErr.Skipped = append(runErr.Skipped, n.ID())
		case graph.Cancelled:
			runErr.Cancelled = append(runErr.Cancelled, n.ID())
		}
	}

	if len(runErr.Failed) > 0 || len(runErr.Skipped) > 0 || len(runErr.Cancelled) > 0 {
		logger.Debug("Run finished with failures.",
			"failed", len(runErr.Failed), "skipped", len(runErr.Skipped), "cancelled", len(runErr.Cancelled))
		return res, runErr
	}

	outputs, err := resolve.Outputs(e.graph, e.args)
	if err != nil {
		return res, err
	}
	res.Outputs = outputs
	logger.Debug("Run succeeded.", "outputs", len(outputs))
	return res, nil
}
