package scheme

import (
	"fmt"
	"strings"

	logx "powerman/pkg/logx"
)

// ResolveError is a configuration error: a required scheme spec matched
// nothing in the directory.
type ResolveError struct {
	Role      string // "performance" or "idle"
	Spec      Spec
	Available []string
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s plan %s not found", e.Role, e.Spec)
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, "; available plans: %s", strings.Join(e.Available, ", "))
	}
	fmt.Fprintf(&b, "; set %s_plan in the settings file to one of them", e.Role)
	return b.String()
}

func (e *ResolveError) Unwrap() error { return ErrNotFound }

// ResolveRequired resolves spec or fails with a *ResolveError. When the id
// and the name of spec point at different schemes the id wins and a warning
// is logged. An id that is set but does not resolve is also logged.
func (c *Catalog) ResolveRequired(role string, spec Spec) (PowerScheme, error) {
	s, byID, ok := c.resolve(spec)
	if !ok {
		avail := make([]string, 0, c.dir.Len())
		for _, e := range c.dir.Schemes() {
			avail = append(avail, fmt.Sprintf("%q (%s)", e.Name, e.ID))
		}
		return PowerScheme{}, &ResolveError{Role: role, Spec: spec, Available: avail}
	}

	hasID := strings.TrimSpace(spec.ID) != ""
	if hasID && !byID {
		c.log.Warn("plan id is malformed or unknown; matched by name",
			logx.String("role", role),
			logx.String("spec", spec.String()),
			logx.String("resolved", s.String()),
		)
		return s, nil
	}
	if hasID && strings.TrimSpace(spec.Name) != "" {
		if byName, found := c.dir.ByName(spec.Name); found && !byName.Equal(s) {
			c.log.Warn("plan id and name disagree; using id",
				logx.String("role", role),
				logx.String("spec", spec.String()),
				logx.String("by_id", s.String()),
				logx.String("by_name", byName.String()),
			)
		} else if !found || !strings.EqualFold(s.Name, strings.TrimSpace(spec.Name)) {
			c.log.Warn("plan name does not match resolved id",
				logx.String("role", role),
				logx.String("spec", spec.String()),
				logx.String("resolved", s.String()),
			)
		}
	}
	return s, nil
}
