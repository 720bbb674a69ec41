/*
Package graph turns a registered WorkflowSpec into the flattened, executable
dependency graph for one invocation.

Construction happens in passes, all purely structural:

 1. Inlining: every inline-mode sub-workflow call site is recursively replaced
    by a copy of the sub-workflow's own calls, with node ids prefixed by the
    call site's name so sibling invocations can never collide. External-mode
    workflow calls stay as single opaque nodes.
 2. Node creation and linking: one node per flattened call, with edges derived
    from output bindings. Declaration order is preserved as the base
    topological order.
 3. Validation: every binding must reference a declared node, input, or
    output, with compatible types, and must point strictly backwards in
    declaration order. A DFS cycle check runs as a final defense.

The resulting Graph is read-only; only per-node execution state mutates during
a run, and each node's result is write-once.
*/
package graph
