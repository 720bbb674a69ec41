/*
Package spec defines the declaration-time data model for the engine: task and
workflow specifications, call declarations, argument bindings, and the
per-process registry that resolves references between them.

Nothing in this package executes work. A WorkflowSpec is a pure description;
the graph package flattens it into an executable form and the executor runs
that form.
*/
package spec
