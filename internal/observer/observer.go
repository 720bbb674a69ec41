// Package observer defines the progress interface the executor reports
// through. Every node status transition is published as an event; nothing in
// the core consumes them, so implementations are free to log, render, or drop
// them.
package observer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/weftflow/internal/graph"
)

// Event describes one node status transition within a run.
type Event struct {
	RunID uuid.UUID
	Node  string
	From  graph.State
	To    graph.State
	Time  time.Time
	// Err carries the failure, skip, or cancellation cause for the
	// corresponding terminal states.
	Err error
	// CacheHit is true when a Succeeded transition was satisfied from cache
	// without reaching the task invoker.
	CacheHit bool
}

// Observer receives node transitions as they happen. Implementations must be
// safe for concurrent use: workers report from multiple goroutines.
type Observer interface {
	NodeTransition(e Event)
}

// Nop discards all events.
type Nop struct{}

// NodeTransition implements Observer.
func (Nop) NodeTransition(Event) {}

// Slog logs each transition through a structured logger.
type Slog struct {
	Logger *slog.Logger
}

// NodeTransition implements Observer.
func (s Slog) NodeTransition(e Event) {
	attrs := []any{
		"run_id", e.RunID.String(),
		"node", e.Node,
		"from", e.From.String(),
		"to", e.To.String(),
	}
	if e.CacheHit {
		attrs = append(attrs, "cache_hit", true)
	}
	switch e.To {
	case graph.Failed:
		attrs = append(attrs, "error", e.Err)
		s.Logger.Error("Node failed.", attrs...)
	case graph.Skipped, graph.Cancelled:
		s.Logger.Warn("Node did not run.", attrs...)
	default:
		s.Logger.Info("Node transition.", attrs...)
	}
}

// Collector records every event for later inspection. Intended for tests.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NodeTransition implements Observer.
func (c *Collector) NodeTransition(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of all recorded events in arrival order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
