/*
Package executor runs a flattened graph to completion.

A pool of workers drains a ready channel. Each node carries an atomic counter
of unmet dependencies; completing a node decrements its dependents' counters
and enqueues, in declaration order, those that reach zero. Declaration order
is therefore the tie-break among simultaneously ready nodes, which keeps
serial runs fully deterministic.

Failure propagates only downstream: the transitive dependents of a failed
node are marked Skipped, unrelated branches keep running, and the run reports
Failed with every failed and skipped node id. Cancelling the context stops
new dispatches; in-flight nodes finish and everything still pending is marked
Cancelled so the run always drains.

The worker ceiling is shared by every node in the graph, inlined sub-workflow
nodes included. External workflow invocations are the exception: they occupy
one worker here while running under their own independent budget.
*/
package executor
