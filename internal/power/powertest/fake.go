// Package powertest provides an in-memory power.Provider for tests.
package powertest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"powerman/internal/power"
)

// Plan is one fake scheme.
type Plan struct {
	ID   power.SchemeID
	Name string
}

// Provider is a power.Provider backed by memory. It records call counts and
// lets tests inject failures or block inside calls.
type Provider struct {
	mu     sync.Mutex
	plans  []Plan
	active power.SchemeID

	// Fail* make the next calls of that kind fail with the given error.
	FailSchemes   error
	FailActive    error
	FailSetActive error

	// ActiveOverride, when set, is reported by Active instead of the real
	// active id (simulates a platform that reports an unknown plan).
	ActiveOverride power.SchemeID

	// OnActive runs at the start of every Active call, outside the lock.
	OnActive func(ctx context.Context)

	schemesCalls   int
	activeCalls    int
	setActiveCalls int
	setActiveIDs   []power.SchemeID
}

var _ power.Provider = (*Provider)(nil)

// New returns a provider exposing plans with active selected.
func New(active power.SchemeID, plans ...Plan) *Provider {
	return &Provider{plans: append([]Plan(nil), plans...), active: active}
}

func (p *Provider) Schemes(_ context.Context) ([]power.SchemeID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.schemesCalls++
	if p.FailSchemes != nil {
		return nil, p.FailSchemes
	}
	out := make([]power.SchemeID, 0, len(p.plans))
	for _, pl := range p.plans {
		out = append(out, pl.ID)
	}
	return out, nil
}

func (p *Provider) Active(ctx context.Context) (power.SchemeID, error) {
	p.mu.Lock()
	hook := p.OnActive
	p.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeCalls++
	if p.FailActive != nil {
		return "", p.FailActive
	}
	if p.ActiveOverride != "" {
		return p.ActiveOverride, nil
	}
	return p.active, nil
}

func (p *Provider) SetActive(_ context.Context, id power.SchemeID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setActiveCalls++
	p.setActiveIDs = append(p.setActiveIDs, id)
	if p.FailSetActive != nil {
		return p.FailSetActive
	}
	for _, pl := range p.plans {
		if pl.ID == id {
			p.active = id
			return nil
		}
	}
	return errors.New("powertest: unknown scheme " + string(id))
}

func (p *Provider) FriendlyName(_ context.Context, id power.SchemeID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pl := range p.plans {
		if pl.ID == id {
			return pl.Name, nil
		}
	}
	return "", errors.New("powertest: unknown scheme " + string(id))
}

// ParseID accepts ids of the form "<letters><digits>" case-insensitively and
// normalises them to upper case, mirroring a GUID-style canonical form.
func (p *Provider) ParseID(raw string) (power.SchemeID, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" || strings.ContainsAny(s, " \t") {
		return "", false
	}
	return power.SchemeID(s), true
}

func (p *Provider) Close() error { return nil }

// SetExternal changes the active plan as if another program did it.
func (p *Provider) SetExternal(id power.SchemeID) {
	p.mu.Lock()
	p.active = id
	p.mu.Unlock()
}

// ActiveNow returns the provider's true active id without counting a call.
func (p *Provider) ActiveNow() power.SchemeID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Provider) ActiveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeCalls
}

func (p *Provider) SetActiveCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setActiveCalls
}

func (p *Provider) SetActiveIDs() []power.SchemeID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]power.SchemeID(nil), p.setActiveIDs...)
}

// SetFailures replaces the injected errors under the provider lock.
func (p *Provider) SetFailures(active, setActive error) {
	p.mu.Lock()
	p.FailActive = active
	p.FailSetActive = setActive
	p.mu.Unlock()
}
