/*
Package nodeid provides a structured, type-safe representation for node
identifiers within a flattened workflow graph.

An identifier is a dot-separated path of segments, e.g. `parent-n1.leafwf-n0`.
Each segment is the call-site name of one level of sub-workflow nesting; the
final segment names the node itself. Inlining a sub-workflow prefixes every
inner node's address with the call site's address, which is what keeps ids
unique when sibling sub-workflows reuse identical internal node names.

This package enforces the identifier schema and centralizes all formatting
and parsing logic.
*/
package nodeid
