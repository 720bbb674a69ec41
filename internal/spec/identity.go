package spec

import (
	"fmt"
	"strings"
)

// DefaultVersion is assumed when a declaration or reference omits a version.
const DefaultVersion = "v1"

// Identity is the stable (name, version) identity of a task or workflow. It is
// the basis for registry lookups, cache keys, and node naming.
type Identity struct {
	Name    string
	Version string
}

// NewIdentity builds an Identity, applying DefaultVersion when version is empty.
func NewIdentity(name, version string) Identity {
	if version == "" {
		version = DefaultVersion
	}
	return Identity{Name: name, Version: version}
}

// ParseIdentity parses a reference of the form "name" or "name@version".
func ParseIdentity(ref string) (Identity, error) {
	if ref == "" {
		return Identity{}, fmt.Errorf("identity reference cannot be empty")
	}
	name, version, found := strings.Cut(ref, "@")
	if name == "" || (found && version == "") {
		return Identity{}, fmt.Errorf("malformed identity reference: %q", ref)
	}
	return NewIdentity(name, version), nil
}

// String returns the canonical "name@version" form.
func (id Identity) String() string {
	return id.Name + "@" + id.Version
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id.Name == "" && id.Version == ""
}
