//go:build windows

package autostart

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const (
	runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`
	runValue   = "PowerManager"
)

type registryManager struct {
	opts Options
}

func openManager(_ context.Context, opts Options) (Manager, error) {
	return &registryManager{opts: opts}, nil
}

func (m *registryManager) Close() error { return nil }

func (m *registryManager) Enable(context.Context) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	return k.SetStringValue(runValue, m.opts.CommandLine())
}

func (m *registryManager) Disable(context.Context) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open run key: %w", err)
	}
	defer k.Close()
	if err := k.DeleteValue(runValue); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

func (m *registryManager) Status(context.Context) (Status, error) {
	st := Status{Location: `HKCU\` + runKeyPath + `\` + runValue}
	k, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	defer k.Close()
	v, _, err := k.GetStringValue(runValue)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	st.Enabled, st.Command = true, v
	return st, nil
}
