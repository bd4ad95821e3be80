//go:build windows

package power

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
)

var (
	modpowrprof = windows.NewLazySystemDLL("powrprof.dll")

	procPowerEnumerate                = modpowrprof.NewProc("PowerEnumerate")
	procPowerGetActiveScheme          = modpowrprof.NewProc("PowerGetActiveScheme")
	procPowerSetActiveScheme          = modpowrprof.NewProc("PowerSetActiveScheme")
	procPowerReadFriendlyName         = modpowrprof.NewProc("PowerReadFriendlyName")
	accessScheme              uintptr = 16 // ACCESS_SCHEME
)

type powrprofProvider struct {
	mu sync.Mutex
}

func openProvider(_ context.Context) (Provider, error) {
	if err := modpowrprof.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &powrprofProvider{}, nil
}

func (p *powrprofProvider) Schemes(ctx context.Context) ([]SchemeID, error) {
	var out []SchemeID
	for idx := uintptr(0); ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var g windows.GUID
		size := uint32(unsafe.Sizeof(g))
		r, _, _ := procPowerEnumerate.Call(0, 0, 0, accessScheme, idx,
			uintptr(unsafe.Pointer(&g)), uintptr(unsafe.Pointer(&size)))
		if r != 0 {
			if windows.Errno(r) == windows.ERROR_NO_MORE_ITEMS {
				return out, nil
			}
			return nil, fmt.Errorf("PowerEnumerate(%d): %w", idx, windows.Errno(r))
		}
		out = append(out, guidToID(g))
	}
}

func (p *powrprofProvider) Active(_ context.Context) (SchemeID, error) {
	var g *windows.GUID
	r, _, _ := procPowerGetActiveScheme.Call(0, uintptr(unsafe.Pointer(&g)))
	if r != 0 {
		return "", fmt.Errorf("PowerGetActiveScheme: %w", windows.Errno(r))
	}
	if g == nil {
		return "", errors.New("PowerGetActiveScheme: nil scheme")
	}
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(g))))
	return guidToID(*g), nil
}

func (p *powrprofProvider) SetActive(_ context.Context, id SchemeID) error {
	g, err := idToGUID(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	r, _, _ := procPowerSetActiveScheme.Call(0, uintptr(unsafe.Pointer(&g)))
	if r != 0 {
		return fmt.Errorf("PowerSetActiveScheme(%s): %w", id, windows.Errno(r))
	}
	return nil
}

func (p *powrprofProvider) FriendlyName(_ context.Context, id SchemeID) (string, error) {
	g, err := idToGUID(id)
	if err != nil {
		return "", err
	}
	var size uint32
	r, _, _ := procPowerReadFriendlyName.Call(0, uintptr(unsafe.Pointer(&g)), 0, 0, 0, uintptr(unsafe.Pointer(&size)))
	if r != 0 {
		return "", fmt.Errorf("PowerReadFriendlyName(%s): %w", id, windows.Errno(r))
	}
	if size < 2 {
		return "", nil
	}
	buf := make([]uint16, size/2)
	r, _, _ = procPowerReadFriendlyName.Call(0, uintptr(unsafe.Pointer(&g)), 0, 0,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if r != 0 {
		return "", fmt.Errorf("PowerReadFriendlyName(%s): %w", id, windows.Errno(r))
	}
	return windows.UTF16ToString(buf), nil
}

// ParseID accepts any GUID spelling uuid.Parse understands, including the
// braced registry form.
func (p *powrprofProvider) ParseID(raw string) (SchemeID, bool) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return SchemeID(u.String()), true
}

func (p *powrprofProvider) Close() error { return nil }

func guidToID(g windows.GUID) SchemeID {
	u, err := uuid.Parse(g.String())
	if err != nil {
		return SchemeID(strings.ToLower(strings.Trim(g.String(), "{}")))
	}
	return SchemeID(u.String())
}

func idToGUID(id SchemeID) (windows.GUID, error) {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return windows.GUID{}, fmt.Errorf("invalid scheme id %q: %w", id, err)
	}
	return windows.GUIDFromString("{" + u.String() + "}")
}
