package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "powerman/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := st.AppendTransition(ctx, Transition{
			At:     base.Add(time.Duration(i) * time.Minute),
			From:   fmt.Sprintf("p%d", i),
			To:     fmt.Sprintf("p%d", i+1),
			ToName: "Plan",
			Reason: ReasonWatched,
			TookMS: int64(i),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := st.RecentTransitions(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].To != "p5" || got[2].To != "p3" {
		t.Fatalf("order = %s..%s, want newest first", got[0].To, got[2].To)
	}
	if !got[0].At.Equal(base.Add(4*time.Minute)) || got[0].Reason != ReasonWatched || got[0].ToName != "Plan" {
		t.Fatalf("round trip = %+v", got[0])
	}
	if got[0].Process != "" {
		t.Fatalf("process = %q, want empty", got[0].Process)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "j", "journal")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".jsonl"); err != nil {
		t.Fatalf("journal file missing: %v", err)
	}

	reopened, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	all, err := reopened.RecentTransitions(context.Background(), 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("after reopen: %d, %v", len(all), err)
	}
}

func TestFileStoreCompacts(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	st, err := Open(Config{Driver: "file", Path: path, MaxEntries: 3}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		if err := st.AppendTransition(ctx, Transition{From: "a", To: fmt.Sprint(i), Reason: ReasonIdle}); err != nil {
			t.Fatal(err)
		}
	}
	all, err := st.RecentTransitions(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Compaction at 6 lines keeps 3, then one more append.
	if len(all) != 4 || all[0].To != "6" || all[3].To != "3" {
		t.Fatalf("after compaction: %+v", all)
	}
}

func TestFileStoreSkipsDamagedLines(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	body := "{\"to\":\"x\",\"from\":\"y\",\"reason\":\"idle\"}\nnot json\n{\"to\":\"z\",\"from\":\"x\",\"reason\":\"manual\"}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	all, err := st.RecentTransitions(context.Background(), 10)
	if err != nil || len(all) != 2 || all[0].Reason != ReasonManual {
		t.Fatalf("recent = %+v, %v", all, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	exerciseStore(t, st)
}
