package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
)

func TestSystemSamplerSeesSelf(t *testing.T) {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Skipf("process info unavailable: %v", err)
	}
	want, err := self.Name()
	if err != nil || want == "" {
		t.Skipf("own process name unavailable: %v", err)
	}

	names, err := NewSystemSampler().Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	for _, n := range names {
		if strings.EqualFold(n, want) || strings.EqualFold(n, filepath.Base(want)) {
			return
		}
	}
	t.Fatalf("own process %q not in %d sampled names", want, len(names))
}

func TestSystemSamplerHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSystemSampler().Names(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestSamplerFunc(t *testing.T) {
	t.Parallel()
	var s Sampler = SamplerFunc(func(context.Context) ([]string, error) {
		return []string{"a"}, nil
	})
	got, err := s.Names(context.Background())
	if err != nil || len(got) != 1 || got[0] != "a" {
		t.Fatalf("Names = %v, %v", got, err)
	}
}
