package scheme

import (
	"errors"
	"fmt"
	"strings"

	"powerman/internal/power"
)

// ID identifies a power scheme. Equality of schemes is defined by ID only.
type ID = power.SchemeID

var (
	// ErrInconsistent means the platform reported an active scheme that is
	// missing from the enumeration taken at startup. It is not recoverable.
	ErrInconsistent = errors.New("scheme directory inconsistent")
	// ErrNotFound is returned when a scheme lookup or spec resolution fails.
	ErrNotFound = errors.New("scheme not found")
)

// PowerScheme is one power plan as the platform exposed it at startup.
type PowerScheme struct {
	ID   ID
	Name string
}

func (s PowerScheme) IsZero() bool { return s.ID == "" }

// Equal compares by ID; names are display-only.
func (s PowerScheme) Equal(o PowerScheme) bool { return s.ID == o.ID }

func (s PowerScheme) String() string {
	if s.Name == "" {
		return string(s.ID)
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.ID)
}

// Entry is a directory row as exposed to the CLI and the status endpoint.
type Entry struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Spec is a configuration-time request for a scheme: a display name, an id,
// or both. The id wins when it resolves.
type Spec struct {
	Name string
	ID   string
}

func (s Spec) IsZero() bool {
	return strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.ID) == ""
}

func (s Spec) String() string {
	name := strings.TrimSpace(s.Name)
	id := strings.TrimSpace(s.ID)
	switch {
	case name != "" && id != "":
		return fmt.Sprintf("{name=%q id=%q}", name, id)
	case id != "":
		return fmt.Sprintf("{id=%q}", id)
	case name != "":
		return fmt.Sprintf("{name=%q}", name)
	default:
		return "{}"
	}
}
