package scheme

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"powerman/internal/power/powertest"
	logx "powerman/pkg/logx"
)

func newFixture(t *testing.T, active string) (*Catalog, *powertest.Provider) {
	t.Helper()
	prov := powertest.New(ID(active),
		powertest.Plan{ID: "G1", Name: "High performance"},
		powertest.Plan{ID: "G2", Name: "Balanced"},
		powertest.Plan{ID: "G3", Name: "Power saver"},
	)
	c, err := Load(context.Background(), prov, logx.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c, prov
}

func TestLoadKeepsProviderOrderAndSeedsActive(t *testing.T) {
	t.Parallel()
	c, _ := newFixture(t, "G2")

	got := c.Entries()
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	wantIDs := []ID{"G1", "G2", "G3"}
	for i, e := range got {
		if e.ID != wantIDs[i] {
			t.Fatalf("entry[%d] = %s, want %s", i, e.ID, wantIDs[i])
		}
		if e.Active != (e.ID == "G2") {
			t.Fatalf("entry %s active = %v", e.ID, e.Active)
		}
	}
	a, err := c.Active()
	if err != nil || a.Name != "Balanced" {
		t.Fatalf("Active = %v, %v", a, err)
	}
}

func TestLoadRejectsUnknownActive(t *testing.T) {
	t.Parallel()
	prov := powertest.New("GX", powertest.Plan{ID: "G1", Name: "High performance"})
	_, err := Load(context.Background(), prov, logx.Nop())
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Load err = %v, want ErrInconsistent", err)
	}
}

func TestLoadPropagatesEnumerationFailure(t *testing.T) {
	t.Parallel()
	prov := powertest.New("G1", powertest.Plan{ID: "G1", Name: "x"})
	prov.FailSchemes = errors.New("boom")
	if _, err := Load(context.Background(), prov, logx.Nop()); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Load err = %v, want boom", err)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	c, _ := newFixture(t, "G2")

	tests := []struct {
		name   string
		spec   Spec
		wantID ID
		wantOK bool
	}{
		{name: "id only", spec: Spec{ID: "G3"}, wantID: "G3", wantOK: true},
		{name: "id wins over mismatched name", spec: Spec{Name: "Balanced", ID: "G1"}, wantID: "G1", wantOK: true},
		{name: "id normalised", spec: Spec{ID: " g3 "}, wantID: "G3", wantOK: true},
		{name: "name case-insensitive", spec: Spec{Name: "high PERFORMANCE"}, wantID: "G1", wantOK: true},
		{name: "unknown id falls back to name", spec: Spec{Name: "Balanced", ID: "G9"}, wantID: "G2", wantOK: true},
		{name: "malformed id falls back to name", spec: Spec{Name: "Balanced", ID: "not an id"}, wantID: "G2", wantOK: true},
		{name: "unknown name", spec: Spec{Name: "Nonexistent"}, wantOK: false},
		{name: "empty spec", spec: Spec{}, wantOK: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Resolve(tt.spec)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%s) ok = %v, want %v", tt.spec, ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Fatalf("Resolve(%s) = %s, want %s", tt.spec, got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveByNameFirstMatchWins(t *testing.T) {
	t.Parallel()
	prov := powertest.New("A1",
		powertest.Plan{ID: "A1", Name: "Custom"},
		powertest.Plan{ID: "A2", Name: "custom"},
	)
	c, err := Load(context.Background(), prov, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := c.ResolveByName("CUSTOM")
	if !ok || s.ID != "A1" {
		t.Fatalf("ResolveByName = %v %v, want A1", s, ok)
	}
}

func TestResolveRequired(t *testing.T) {
	t.Parallel()
	c, _ := newFixture(t, "G2")

	s, err := c.ResolveRequired("performance", Spec{Name: "High performance"})
	if err != nil || s.ID != "G1" {
		t.Fatalf("ResolveRequired = %v, %v", s, err)
	}

	_, err = c.ResolveRequired("idle", Spec{Name: "Nonexistent"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var re *ResolveError
	if !errors.As(err, &re) || re.Role != "idle" || len(re.Available) != 3 {
		t.Fatalf("unexpected error shape: %#v", err)
	}
	if !strings.Contains(err.Error(), `"Nonexistent"`) || !strings.Contains(err.Error(), "idle_plan") {
		t.Fatalf("message lacks spec or remedy: %s", err)
	}
}

func TestResolveRequiredWarnsOnUnresolvedID(t *testing.T) {
	t.Parallel()
	for _, id := range []string{"G99", "not a guid"} {
		var buf bytes.Buffer
		prov := powertest.New("G2",
			powertest.Plan{ID: "G1", Name: "High performance"},
			powertest.Plan{ID: "G2", Name: "Balanced"},
		)
		c, err := Load(context.Background(), prov, logx.NewWriter(&buf, "debug"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}

		s, err := c.ResolveRequired("idle", Spec{ID: id, Name: "Balanced"})
		if err != nil || s.ID != "G2" {
			t.Fatalf("id %q: ResolveRequired = %v, %v", id, s, err)
		}
		if !strings.Contains(buf.String(), "matched by name") {
			t.Fatalf("id %q: no warning logged: %s", id, buf.String())
		}
	}

	var buf bytes.Buffer
	prov := powertest.New("G2", powertest.Plan{ID: "G2", Name: "Balanced"})
	c, err := Load(context.Background(), prov, logx.NewWriter(&buf, "debug"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.ResolveRequired("idle", Spec{ID: "G2", Name: "Balanced"}); err != nil {
		t.Fatalf("ResolveRequired: %v", err)
	}
	if strings.Contains(buf.String(), "matched by name") {
		t.Fatalf("warning logged for a valid id: %s", buf.String())
	}
}

func TestActivateDoesNotTouchCache(t *testing.T) {
	t.Parallel()
	c, prov := newFixture(t, "G2")
	hp, _ := c.ResolveByName("High performance")

	if err := c.Activate(context.Background(), hp); err != nil {
		t.Fatal(err)
	}
	if c.ActiveID() != "G2" {
		t.Fatalf("cached active changed before refresh: %s", c.ActiveID())
	}
	if prov.ActiveNow() != "G1" {
		t.Fatalf("provider active = %s, want G1", prov.ActiveNow())
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.ActiveID() != "G1" {
		t.Fatalf("cached active after refresh = %s, want G1", c.ActiveID())
	}
}

func TestActivateRefreshIsIdempotent(t *testing.T) {
	t.Parallel()
	c, _ := newFixture(t, "G2")
	ps, _ := c.ResolveByName("Power saver")
	ctx := context.Background()

	if err := c.Activate(ctx, ps); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := c.Active()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	second, err := c.Active()
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(second) || first.ID != "G3" {
		t.Fatalf("refresh toggled active: %v then %v", first, second)
	}
}

func TestActivateUnknownScheme(t *testing.T) {
	t.Parallel()
	c, prov := newFixture(t, "G2")
	err := c.Activate(context.Background(), PowerScheme{ID: "NOPE"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if prov.SetActiveCalls() != 0 {
		t.Fatal("provider should not be called for unknown scheme")
	}
}

func TestRefreshReportsInconsistency(t *testing.T) {
	t.Parallel()
	c, prov := newFixture(t, "G2")
	prov.ActiveOverride = "G404"

	err := c.Refresh(context.Background())
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("err = %v, want ErrInconsistent", err)
	}
	if _, err := c.Active(); !errors.Is(err, ErrInconsistent) {
		t.Fatalf("Active err = %v, want ErrInconsistent", err)
	}
}

func TestDirectoryDropsDuplicateIDs(t *testing.T) {
	t.Parallel()
	d := NewDirectory(
		PowerScheme{ID: "A", Name: "first"},
		PowerScheme{ID: "A", Name: "second"},
		PowerScheme{ID: "", Name: "blank"},
	)
	if d.Len() != 1 {
		t.Fatalf("Len = %d, want 1", d.Len())
	}
	if s, _ := d.Lookup("A"); s.Name != "first" {
		t.Fatalf("Lookup(A) = %v", s)
	}
}

func TestSpecString(t *testing.T) {
	t.Parallel()
	if got := (Spec{Name: "Balanced"}).String(); got != `{name="Balanced"}` {
		t.Fatalf("String = %s", got)
	}
	if !(Spec{Name: "  "}).IsZero() {
		t.Fatal("blank spec should be zero")
	}
}
