//go:build !linux && !windows

package power

import "context"

func openProvider(_ context.Context) (Provider, error) {
	return nil, ErrUnsupported
}
