/*
Package hclspec loads task and workflow declarations from HCL files into the
spec registry.

A declaration file contains `task` blocks (typed inputs/outputs plus the name
of the registered Go handler owning the body) and `workflow` blocks (typed
inputs with optional defaults, ordered `call` blocks, and typed outputs bound
to call results). Argument expressions are restricted to literals and the two
reference forms `input.<name>` and `call.<id>.<output>`; the graph package
gives them meaning.
*/
package hclspec
