package container

import (
	"fmt"
	"sort"
	"strings"
)

// PathSeparator joins ancestor names when a path is rendered.
const PathSeparator = " > "

// Container is an access-control partition of the corpus.
type Container struct {
	id       string
	name     string
	parentID string
	path     []string
}

// New validates and creates a Container. The path is the ordered ancestor names, root first,
// ending with the container's own name.
func New(id, name, parentID string, path []string) (Container, error) {
	if id == "" {
		return Container{}, fmt.Errorf("container id is required")
	}
	if name == "" {
		name = id
	}
	if len(path) == 0 {
		path = []string{name}
	}
	return Container{
		id:       id,
		name:     name,
		parentID: parentID,
		path:     append([]string(nil), path...),
	}, nil
}

// ID returns the container identifier.
func (c Container) ID() string { return c.id }

// Name returns the display name.
func (c Container) Name() string { return c.name }

// ParentID returns the parent identifier, empty for roots.
func (c Container) ParentID() string { return c.parentID }

// Path returns the ancestor names, root first.
func (c Container) Path() []string { return append([]string(nil), c.path...) }

// PathString renders the path for display.
func (c Container) PathString() string { return strings.Join(c.path, PathSeparator) }

// Set is an immutable set of container ids.
type Set struct {
	ids map[string]struct{}
}

// NewSet creates a set from ids, ignoring empty values.
func NewSet(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the set size.
func (s Set) Len() int { return len(s.ids) }

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool { return len(s.ids) == 0 }

// IDs returns the members in ascending order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Intersect keeps members that also appear in requested.
// A nil or empty requested list leaves the set unchanged.
func (s Set) Intersect(requested []string) Set {
	if len(requested) == 0 {
		return s
	}
	out := Set{ids: make(map[string]struct{}, len(requested))}
	for _, id := range requested {
		if s.Contains(id) {
			out.ids[id] = struct{}{}
		}
	}
	return out
}
