//go:build linux

package power

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

// busTarget describes one power-profiles-daemon D-Bus name. Newer daemons
// publish under UPower; older ones only under net.hadess.
type busTarget struct {
	dest  string
	path  dbus.ObjectPath
	iface string
}

var profileTargets = []busTarget{
	{dest: "org.freedesktop.UPower.PowerProfiles", path: "/org/freedesktop/UPower/PowerProfiles", iface: "org.freedesktop.UPower.PowerProfiles"},
	{dest: "net.hadess.PowerProfiles", path: "/net/hadess/PowerProfiles", iface: "net.hadess.PowerProfiles"},
}

const propertiesIface = "org.freedesktop.DBus.Properties"

type profilesProvider struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	target busTarget
}

func openProvider(ctx context.Context) (Provider, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: connect system bus: %v", ErrUnavailable, err)
	}
	p := &profilesProvider{conn: conn}
	var lastErr error
	for _, t := range profileTargets {
		p.target = t
		if _, err := p.Active(ctx); err != nil {
			lastErr = err
			continue
		}
		return p, nil
	}
	_ = conn.Close()
	return nil, fmt.Errorf("%w: power-profiles-daemon not reachable: %v", ErrUnavailable, lastErr)
}

func (p *profilesProvider) object() dbus.BusObject {
	return p.conn.Object(p.target.dest, p.target.path)
}

func (p *profilesProvider) get(ctx context.Context, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	err := p.object().CallWithContext(ctx, propertiesIface+".Get", 0, p.target.iface, prop).Store(&v)
	if err != nil {
		return dbus.Variant{}, fmt.Errorf("get %s.%s: %w", p.target.iface, prop, err)
	}
	return v, nil
}

func (p *profilesProvider) Schemes(ctx context.Context) ([]SchemeID, error) {
	v, err := p.get(ctx, "Profiles")
	if err != nil {
		return nil, err
	}
	var profiles []map[string]dbus.Variant
	if err := dbus.Store([]interface{}{v.Value()}, &profiles); err != nil {
		return nil, fmt.Errorf("decode Profiles: %w", err)
	}
	out := make([]SchemeID, 0, len(profiles))
	for _, m := range profiles {
		raw, ok := m["Profile"]
		if !ok {
			continue
		}
		name, ok := raw.Value().(string)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		out = append(out, SchemeID(name))
	}
	return out, nil
}

func (p *profilesProvider) Active(ctx context.Context) (SchemeID, error) {
	v, err := p.get(ctx, "ActiveProfile")
	if err != nil {
		return "", err
	}
	name, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("ActiveProfile: unexpected type %s", v.Signature())
	}
	return SchemeID(name), nil
}

func (p *profilesProvider) SetActive(ctx context.Context, id SchemeID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := p.object().CallWithContext(ctx, propertiesIface+".Set", 0, p.target.iface, "ActiveProfile", dbus.MakeVariant(string(id)))
	if call.Err != nil {
		return fmt.Errorf("set ActiveProfile=%s: %w", id, call.Err)
	}
	return nil
}

// FriendlyName renders profile tokens the way desktop shells do:
// "power-saver" -> "Power Saver".
func (p *profilesProvider) FriendlyName(_ context.Context, id SchemeID) (string, error) {
	parts := strings.FieldsFunc(string(id), func(r rune) bool { return r == '-' || r == '_' })
	for i, s := range parts {
		parts[i] = strings.ToUpper(s[:1]) + s[1:]
	}
	if len(parts) == 0 {
		return string(id), nil
	}
	return strings.Join(parts, " "), nil
}

func (p *profilesProvider) ParseID(raw string) (SchemeID, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", false
		}
	}
	return SchemeID(s), true
}

func (p *profilesProvider) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
