package scheme

import (
	"context"
	"fmt"
	"strings"

	"powerman/internal/power"
	logx "powerman/pkg/logx"
)

// Catalog composes a Directory with the platform Provider. It is the only
// place where directory state meets platform calls.
type Catalog struct {
	prov power.Provider
	dir  *Directory
	log  logx.Logger
}

// Load enumerates every scheme the provider exposes, in provider order, then
// seeds the active id with an initial Refresh.
func Load(ctx context.Context, prov power.Provider, log logx.Logger) (*Catalog, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	ids, err := prov.Schemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate schemes: %w", err)
	}
	schemes := make([]PowerScheme, 0, len(ids))
	for _, id := range ids {
		name, err := prov.FriendlyName(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("read name of scheme %s: %w", id, err)
		}
		schemes = append(schemes, PowerScheme{ID: id, Name: name})
	}

	c := &Catalog{prov: prov, dir: NewDirectory(schemes...), log: log}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	log.Debug("scheme directory loaded", logx.Int("schemes", c.dir.Len()), logx.String("active", string(c.dir.ActiveID())))
	return c, nil
}

func (c *Catalog) Directory() *Directory { return c.dir }

// Refresh re-reads the platform's active scheme into the directory.
func (c *Catalog) Refresh(ctx context.Context) error {
	id, err := c.prov.Active(ctx)
	if err != nil {
		return fmt.Errorf("read active scheme: %w", err)
	}
	return c.dir.SetActiveID(id)
}

// Activate asks the platform to switch to s. The cached active id is left
// alone; call Refresh to observe the change.
func (c *Catalog) Activate(ctx context.Context, s PowerScheme) error {
	if _, ok := c.dir.Lookup(s.ID); !ok {
		return fmt.Errorf("activate %s: %w", s, ErrNotFound)
	}
	if err := c.prov.SetActive(ctx, s.ID); err != nil {
		return fmt.Errorf("activate %s: %w", s, err)
	}
	return nil
}

func (c *Catalog) ActiveID() ID { return c.dir.ActiveID() }

func (c *Catalog) Active() (PowerScheme, error) { return c.dir.Active() }

func (c *Catalog) Entries() []Entry { return c.dir.Entries() }

func (c *Catalog) ResolveByName(name string) (PowerScheme, bool) { return c.dir.ByName(name) }

// Resolve maps a Spec to a scheme. A valid, known id takes precedence over
// the name; the name is only consulted when the id is absent, malformed or
// unknown.
func (c *Catalog) Resolve(spec Spec) (PowerScheme, bool) {
	s, _, ok := c.resolve(spec)
	return s, ok
}

// resolve is Resolve that also reports whether the id matched.
func (c *Catalog) resolve(spec Spec) (s PowerScheme, byID, ok bool) {
	if raw := strings.TrimSpace(spec.ID); raw != "" {
		if id, valid := c.prov.ParseID(raw); valid {
			if s, ok := c.dir.Lookup(id); ok {
				return s, true, true
			}
		}
	}
	if strings.TrimSpace(spec.Name) != "" {
		s, ok = c.dir.ByName(spec.Name)
		return s, false, ok
	}
	return PowerScheme{}, false, false
}

// Lookup resolves a free-form CLI argument: an id first, then a name.
func (c *Catalog) Lookup(arg string) (PowerScheme, bool) {
	return c.Resolve(Spec{Name: arg, ID: arg})
}
