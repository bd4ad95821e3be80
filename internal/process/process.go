// Package process samples the names of running processes.
package process

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// Sampler returns the names of all currently running processes. Order is
// unspecified and names may repeat.
type Sampler interface {
	Names(ctx context.Context) ([]string, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context) ([]string, error)

func (f SamplerFunc) Names(ctx context.Context) ([]string, error) { return f(ctx) }

// SystemSampler lists processes through gopsutil. Processes that exit while
// being inspected, or whose name is not readable, are skipped.
type SystemSampler struct{}

func NewSystemSampler() *SystemSampler { return &SystemSampler{} }

func (s *SystemSampler) Names(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	out := make([]string, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			continue
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}
