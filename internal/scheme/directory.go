package scheme

import (
	"fmt"
	"strings"
	"sync"
)

// Directory is the in-memory catalogue of power schemes plus the cached id
// of the active one. It performs no platform calls; see Catalog.
//
// Entries keep platform enumeration order, which is also the order used to
// break ties in ByName.
type Directory struct {
	mu      sync.RWMutex
	entries []PowerScheme
	index   map[ID]int
	active  ID
}

// NewDirectory builds a directory from schemes in the given order. A repeated
// id keeps its first position and name.
func NewDirectory(schemes ...PowerScheme) *Directory {
	d := &Directory{
		entries: make([]PowerScheme, 0, len(schemes)),
		index:   make(map[ID]int, len(schemes)),
	}
	for _, s := range schemes {
		if s.ID == "" {
			continue
		}
		if _, dup := d.index[s.ID]; dup {
			continue
		}
		d.index[s.ID] = len(d.entries)
		d.entries = append(d.entries, s)
	}
	return d
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Schemes returns a copy of all schemes in directory order.
func (d *Directory) Schemes() []PowerScheme {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]PowerScheme(nil), d.entries...)
}

// Entries returns every scheme with its is-active flag.
func (d *Directory) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, 0, len(d.entries))
	for _, s := range d.entries {
		out = append(out, Entry{ID: s.ID, Name: s.Name, Active: s.ID == d.active})
	}
	return out
}

func (d *Directory) Lookup(id ID) (PowerScheme, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[id]
	if !ok {
		return PowerScheme{}, false
	}
	return d.entries[i], true
}

// ByName returns the first scheme whose name matches case-insensitively.
func (d *Directory) ByName(name string) (PowerScheme, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PowerScheme{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.entries {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return PowerScheme{}, false
}

// ActiveID returns the cached active id (possibly stale between refreshes).
func (d *Directory) ActiveID() ID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// SetActiveID overwrites the cached active id. It reports ErrInconsistent
// when id is not part of the directory; the id is stored regardless so the
// caller sees what the platform said.
func (d *Directory) SetActiveID(id ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = id
	if _, ok := d.index[id]; !ok {
		return fmt.Errorf("%w: active scheme %q was not enumerated", ErrInconsistent, id)
	}
	return nil
}

// Active returns the scheme matching the cached active id.
func (d *Directory) Active() (PowerScheme, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.index[d.active]
	if !ok {
		return PowerScheme{}, fmt.Errorf("%w: active scheme %q was not enumerated", ErrInconsistent, d.active)
	}
	return d.entries[i], nil
}
