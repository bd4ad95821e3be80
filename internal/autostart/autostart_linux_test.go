//go:build linux

package autostart

import (
	"strings"
	"testing"
)

func TestRenderUnit(t *testing.T) {
	t.Parallel()
	unit, err := RenderUnit(Options{Executable: "/opt/powerman", ConfigPath: "/home/u/.config/powerman/settings.json"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"ExecStart=/opt/powerman run --config /home/u/.config/powerman/settings.json\n",
		"Type=notify\n",
		"WantedBy=default.target\n",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit lacks %q:\n%s", want, unit)
		}
	}
}

func TestUnitDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := unitDir()
	if err != nil || dir != "/tmp/xdg/systemd/user" {
		t.Fatalf("unitDir = %q, %v", dir, err)
	}
}
