// Package power binds powerman to the platform's power-plan facility.
//
// A Provider only reports and switches plans; it never edits plan contents.
// See power_linux.go (power-profiles-daemon over D-Bus), power_windows.go
// (powrprof.dll) and power_other.go.
package power

import (
	"context"
	"errors"
)

// SchemeID is the platform's opaque identifier of a power plan.
// On Windows it is a lower-case GUID, on Linux a profile name.
type SchemeID string

func (id SchemeID) String() string { return string(id) }

var (
	// ErrUnsupported is returned when the current OS has no binding.
	ErrUnsupported = errors.New("power: no power plan provider for this platform")
	// ErrUnavailable is returned when the platform service is missing
	// (e.g. power-profiles-daemon not running).
	ErrUnavailable = errors.New("power: power plan service unavailable")
)

// Provider is the thin I/O wrapper around platform power-plan calls.
type Provider interface {
	// Schemes enumerates every plan in platform-reported order.
	Schemes(ctx context.Context) ([]SchemeID, error)
	// Active returns the id of the plan currently in effect.
	Active(ctx context.Context) (SchemeID, error)
	// SetActive asks the platform to switch plans.
	SetActive(ctx context.Context, id SchemeID) error
	// FriendlyName returns the human readable name of a plan.
	FriendlyName(ctx context.Context, id SchemeID) (string, error)
	// ParseID validates a user-supplied identifier and returns it in the
	// canonical form used by Schemes/Active.
	ParseID(raw string) (SchemeID, bool)
	Close() error
}

// Open returns the platform provider.
func Open(ctx context.Context) (Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return openProvider(ctx)
}
