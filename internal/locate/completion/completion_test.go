package completion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/skyfind/internal/locate/history"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompletionsSources(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "scripts")
	writeFiles(t, dir, "json.star", "csv.starc", "README.md")

	c := New()
	got := c.Completions("", []string{dir}, Sources{
		Loaded:  []string{"builtin_mod"},
		History: []history.Entry{{File: "/elsewhere/histmod.star"}},
	})
	want := []string{"builtin_mod", "csv", "histmod", "json"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Completions mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletionsPrefixFilter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts")
	writeFiles(t, dir, "json.star", "jsonschema.star", "csv.star")

	c := New()
	got := c.Completions("json", []string{dir}, Sources{})
	want := []string{"json", "jsonschema"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Completions(json) mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	writeFiles(t, dirA, "one.star")
	writeFiles(t, dirB, "two.star")

	c := New()
	recomputes := 0
	c.OnRecompute = func() { recomputes++ }

	first := c.Completions("", []string{dirA, dirB}, Sources{})
	second := c.Completions("", []string{dirA, dirB}, Sources{})
	if recomputes != 1 {
		t.Errorf("unchanged search path: %d recomputes, want 1", recomputes)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("consecutive calls differ (-first +second):\n%s", diff)
	}

	// Reordering is a value change and forces exactly one recompute.
	c.Completions("", []string{dirB, dirA}, Sources{})
	if recomputes != 2 {
		t.Errorf("reordered search path: %d recomputes, want 2", recomputes)
	}
	c.Completions("", []string{dirB, dirA}, Sources{})
	if recomputes != 2 {
		t.Errorf("stable reordered path: %d recomputes, want 2", recomputes)
	}
}

func TestFlush(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts")
	writeFiles(t, dir, "json.star")

	c := New()
	recomputes := 0
	c.OnRecompute = func() { recomputes++ }

	c.Completions("", []string{dir}, Sources{})
	c.Flush()
	c.Completions("", []string{dir}, Sources{})
	if recomputes != 2 {
		t.Errorf("Flush did not force a recompute: %d recomputes, want 2", recomputes)
	}
}

func TestWatcherFlushesOnCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts")
	writeFiles(t, dir, "json.star")

	c := New()
	got := c.Completions("", []string{dir}, Sources{})
	if len(got) != 1 {
		t.Fatalf("initial Completions = %v", got)
	}

	w, err := Watch(c, []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Close() }()

	writeFiles(t, dir, "csv.star")

	// The flush is asynchronous; poll until the new module shows up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got = c.Completions("", []string{dir}, Sources{})
		if len(got) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("completion table never picked up new file: %v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
