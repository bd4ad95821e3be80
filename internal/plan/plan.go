// Package plan decides which power scheme should be active.
package plan

import "powerman/internal/scheme"

// Targets is the resolved pair of schemes the switcher alternates between.
type Targets struct {
	Performance scheme.PowerScheme
	Idle        scheme.PowerScheme
}

// Select returns the performance scheme when a watched process is running
// and the idle scheme otherwise.
func Select(hasWatched bool, performance, idle scheme.PowerScheme) scheme.PowerScheme {
	if hasWatched {
		return performance
	}
	return idle
}

// Pick applies Select to t.
func (t Targets) Pick(hasWatched bool) scheme.PowerScheme {
	return Select(hasWatched, t.Performance, t.Idle)
}

// Same reports whether both targets point at the same scheme, in which case
// switching never changes anything.
func (t Targets) Same() bool { return t.Performance.Equal(t.Idle) }
