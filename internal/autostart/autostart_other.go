//go:build !linux && !windows

package autostart

import "context"

func openManager(context.Context, Options) (Manager, error) { return nil, ErrUnsupported }
