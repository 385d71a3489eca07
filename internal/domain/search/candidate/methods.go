package candidate

import "strings"

// MatchTypeHybrid is reported when two or more methods contributed.
const MatchTypeHybrid = "hybrid"

// MethodSet is a small set of retrieval methods.
type MethodSet uint8

func bit(m Method) MethodSet {
	for i, known := range Methods {
		if known == m {
			return 1 << i
		}
	}
	return 0
}

// NewMethodSet creates a set from the given methods.
func NewMethodSet(methods ...Method) MethodSet {
	var s MethodSet
	for _, m := range methods {
		s = s.With(m)
	}
	return s
}

// With returns the set with m added.
func (s MethodSet) With(m Method) MethodSet { return s | bit(m) }

// Has reports whether m is in the set.
func (s MethodSet) Has(m Method) bool {
	b := bit(m)
	return b != 0 && s&b != 0
}

// Len returns the number of methods in the set.
func (s MethodSet) Len() int {
	n := 0
	for _, m := range Methods {
		if s.Has(m) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no method is present.
func (s MethodSet) IsEmpty() bool { return s == 0 }

// HasLexical reports whether keyword or fulltext contributed.
func (s MethodSet) HasLexical() bool { return s.Has(MethodKeyword) || s.Has(MethodFulltext) }

// Slice returns the methods in canonical order.
func (s MethodSet) Slice() []Method {
	out := make([]Method, 0, len(Methods))
	for _, m := range Methods {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// MatchType returns the single method name, or "hybrid" for two or more.
func (s MethodSet) MatchType() string {
	methods := s.Slice()
	switch len(methods) {
	case 0:
		return ""
	case 1:
		return string(methods[0])
	default:
		return MatchTypeHybrid
	}
}

func (s MethodSet) String() string {
	parts := make([]string, 0, len(Methods))
	for _, m := range s.Slice() {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ",")
}
