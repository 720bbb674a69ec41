package graph

import (
	"fmt"

	"github.com/vk/weftflow/internal/spec"
)

// Graph is the flattened, fully-inlined set of nodes plus their bindings for
// one top-level workflow invocation. It is owned by a single executor run and
// rebuilt per invocation; structure is read-only after Build returns.
type Graph struct {
	// Workflow is the top-level specification this graph was built from.
	Workflow *spec.WorkflowSpec
	// Outputs maps the workflow's declared output names to bindings rewritten
	// against flattened node ids.
	Outputs map[string]spec.Binding

	nodes map[string]*Node
	order []*Node
}

// Node returns the node with the given flattened id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes in flattened declaration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Dependencies returns the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedByOrder(n.deps), nil
}

// Dependents returns the nodes that depend on the given node, in declaration
// order. Declaration order is the executor's tie-break, so keeping it stable
// here keeps dispatch deterministic.
func (g *Graph) Dependents(id string) ([]*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedByOrder(n.dependents), nil
}

func sortedByOrder(m map[string]*Node) []*Node {
	out := make([]*Node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].order > out[j].order; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// addNode appends a node, assigning its declaration-order index.
func (g *Graph) addNode(n *Node) error {
	if _, exists := g.nodes[n.ID()]; exists {
		return fmt.Errorf("duplicate node id: %s", n.ID())
	}
	n.order = len(g.order)
	n.deps = make(map[string]*Node)
	n.dependents = make(map[string]*Node)
	g.nodes[n.ID()] = n
	g.order = append(g.order, n)
	return nil
}

// addEdge creates a directed dependency edge from fromID to toID.
func (g *Graph) addEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// detectCycles checks the graph for any cycles. Bindings are restricted to
// backward references so this should never fire; it exists as a defense
// against builder defects.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if permanent[n.ID()] {
			return nil
		}
		if temporary[n.ID()] {
			return fmt.Errorf("cycle detected involving node '%s'", n.ID())
		}

		temporary[n.ID()] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.ID())
		permanent[n.ID()] = true
		return nil
	}

	for _, n := range g.order {
		if !permanent[n.ID()] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
