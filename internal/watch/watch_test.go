package watch

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"csgo":         "csgo",
		"CSGO.EXE":     "csgo",
		"  Game.exe  ": "game",
		"notepad++":    "notepad++",
		".exe":         "",
		"":             "",
		"my.exe.exe":   "my.exe",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetMatch(t *testing.T) {
	t.Parallel()
	s := NewSet("csgo", "Blender", "", "  ")

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"blender", "csgo"}) {
		t.Fatalf("Names = %v", got)
	}

	tests := []struct {
		name    string
		running []string
		want    string
		wantOK  bool
	}{
		{name: "none", running: []string{"explorer.exe", "svchost.exe"}},
		{name: "empty sample", running: nil},
		{name: "exe suffix", running: []string{"explorer.exe", "csgo.exe"}, want: "csgo.exe", wantOK: true},
		{name: "case", running: []string{"BLENDER"}, want: "BLENDER", wantOK: true},
		{name: "first wins", running: []string{"blender", "csgo"}, want: "blender", wantOK: true},
		{name: "prefix is not a match", running: []string{"csgo2"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Match(tt.running)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Match(%v) = %q %v, want %q %v", tt.running, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEmptySetNeverMatches(t *testing.T) {
	t.Parallel()
	var zero Set
	if _, ok := zero.Match([]string{"anything"}); ok {
		t.Fatal("zero set matched")
	}
	if zero.Contains("x") {
		t.Fatal("zero set contains x")
	}
	if !zero.Equal(NewSet()) {
		t.Fatal("zero set should equal empty set")
	}
}

func TestSetEqual(t *testing.T) {
	t.Parallel()
	if !NewSet("a", "B.exe").Equal(NewSet("b", "A")) {
		t.Fatal("sets should be equal after normalisation")
	}
	if NewSet("a").Equal(NewSet("a", "b")) {
		t.Fatal("sets of different size compared equal")
	}
}
