package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"powerman/internal/app"
	"powerman/internal/config"
	"powerman/internal/power/powertest"
	"powerman/internal/process"
)

func setup(t *testing.T, running ...string) (*powertest.Provider, string) {
	t.Helper()
	prov := powertest.New("G2",
		powertest.Plan{ID: "G1", Name: "High performance"},
		powertest.Plan{ID: "G2", Name: "Balanced"},
	)
	appOptions = []app.Option{
		app.WithProvider(prov),
		app.WithSampler(process.SamplerFunc(func(context.Context) ([]string, error) { return running, nil })),
	}
	t.Cleanup(func() { appOptions = nil })

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	body := `{"applications": ["game"], "performance_plan": "High performance", "idle_plan": "Balanced",
  "storage": {"driver": "file", "path": "` + filepath.ToSlash(filepath.Join(dir, "journal.jsonl")) + `"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return prov, path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSchemesMarksActive(t *testing.T) {
	_, path := setup(t)
	out, err := execute(t, "--config", path, "schemes")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("output:\n%s", out)
	}
	if !strings.HasPrefix(lines[2], "*") || !strings.Contains(lines[2], "Balanced") {
		t.Fatalf("active marker missing:\n%s", out)
	}
	if strings.HasPrefix(lines[1], "*") {
		t.Fatalf("inactive scheme marked:\n%s", out)
	}
}

func TestStatusDoesNotSwitch(t *testing.T) {
	prov, path := setup(t, "Game.exe")
	out, err := execute(t, "--config", path, "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "desired: High performance (G1)") || !strings.Contains(out, "Game.exe is running") {
		t.Fatalf("output:\n%s", out)
	}
	if prov.SetActiveCalls() != 0 {
		t.Fatal("status switched plans")
	}
}

func TestActivateThenHistory(t *testing.T) {
	prov, path := setup(t)
	out, err := execute(t, "--config", path, "activate", "high PERFORMANCE")
	if err != nil {
		t.Fatal(err)
	}
	if prov.ActiveNow() != "G1" || !strings.Contains(out, "active: High performance (G1)") {
		t.Fatalf("active %s, output:\n%s", prov.ActiveNow(), out)
	}

	out, err = execute(t, "--config", path, "history", "-n", "5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "manual") || !strings.Contains(out, "High performance") {
		t.Fatalf("history output:\n%s", out)
	}
}

func TestActivateUnknown(t *testing.T) {
	_, path := setup(t)
	if _, err := execute(t, "--config", path, "activate", "Turbo"); err == nil {
		t.Fatal("expected an error for an unknown scheme")
	}
}

func TestConfigPathIsAbsolute(t *testing.T) {
	t.Setenv(config.EnvPath, "relative/settings.yaml")
	cfgPath = ""
	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(out)
	if !filepath.IsAbs(got) || !strings.HasSuffix(filepath.ToSlash(got), "relative/settings.yaml") {
		t.Fatalf("path = %q", got)
	}
}

func TestEditorCommandPrefersEnv(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "vim -n")
	name, args := editorCommand("/tmp/s.json")
	if name != "vim" || len(args) != 2 || args[0] != "-n" || args[1] != "/tmp/s.json" {
		t.Fatalf("editorCommand = %s %v", name, args)
	}
}
