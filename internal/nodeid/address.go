package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single path segment, e.g. `n0` or `leafwf-n0`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_-]*$`)

// Address is the structured representation of a unique node identifier.
// It is modeled as a path of call-site segments ending in the node's own name.
type Address struct {
	Path []string
}

// New creates an Address from one or more already-validated segments.
func New(segments ...string) *Address {
	return &Address{Path: append([]string(nil), segments...)}
}

// Parse creates an Address by parsing its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	addr := &Address{}
	for _, segment := range strings.Split(rawID, ".") {
		if segment == "" {
			return nil, fmt.Errorf("identifier path contains empty segment")
		}
		if !segmentRegex.MatchString(segment) {
			return nil, fmt.Errorf("invalid path segment: %q", segment)
		}
		addr.Path = append(addr.Path, segment)
	}

	return addr, nil
}

// String serializes the Address into its canonical dot-separated form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.Path, ".")
}

// Child returns a new Address extending this one by a single segment. The
// receiver may be nil, in which case the segment becomes the root of the path.
func (a *Address) Child(segment string) *Address {
	if a == nil {
		return New(segment)
	}
	path := make([]string, 0, len(a.Path)+1)
	path = append(path, a.Path...)
	path = append(path, segment)
	return &Address{Path: path}
}

// Equal checks for deep equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	if len(a.Path) != len(other.Path) {
		return false
	}
	for i, segment := range a.Path {
		if other.Path[i] != segment {
			return false
		}
	}
	return true
}

// Leaf returns the final segment of the path: the node's own name.
func (a *Address) Leaf() string {
	if a == nil || len(a.Path) == 0 {
		return ""
	}
	return a.Path[len(a.Path)-1]
}

// ValidSegment reports whether name is usable as a single path segment.
func ValidSegment(name string) bool {
	return segmentRegex.MatchString(name)
}
