// Package watch holds the set of process names whose presence selects the
// performance plan.
//
// Names are compared after normalisation: surrounding space is trimmed,
// case is folded and a trailing ".exe" is dropped, so "CSGO", "csgo" and
// "csgo.exe" are the same entry.
package watch

import (
	"sort"
	"strings"
)

// Set is an immutable set of normalised process names. The zero value is an
// empty set.
type Set struct {
	names map[string]struct{}
}

func NewSet(names ...string) Set {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := Normalize(n); k != "" {
			m[k] = struct{}{}
		}
	}
	return Set{names: m}
}

// Normalize returns the comparison key for a process name.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimSuffix(s, ".exe")
	return strings.TrimSpace(s)
}

func (s Set) Len() int { return len(s.names) }

func (s Set) Contains(name string) bool {
	if len(s.names) == 0 {
		return false
	}
	_, ok := s.names[Normalize(name)]
	return ok
}

// Match reports the first running process name that is in the set.
func (s Set) Match(running []string) (string, bool) {
	if len(s.names) == 0 {
		return "", false
	}
	for _, n := range running {
		if _, ok := s.names[Normalize(n)]; ok {
			return n, true
		}
	}
	return "", false
}

// Names returns the normalised entries, sorted.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same names.
func (s Set) Equal(o Set) bool {
	if len(s.names) != len(o.names) {
		return false
	}
	for n := range s.names {
		if _, ok := o.names[n]; !ok {
			return false
		}
	}
	return true
}
