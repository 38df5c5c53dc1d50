package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestByProvidedMostRecentWins(t *testing.T) {
	// Append order: the second load of "json" supersedes the first.
	ix := NewIndex([]Entry{
		{File: "/old/json.star", Provides: []string{"json"}},
		{File: "/other/csv.star", Provides: []string{"csv"}},
		{File: "/new/json.star", Provides: []string{"json"}},
	}, nil)

	e, ok := ix.ByProvided("json")
	if !ok {
		t.Fatal("ByProvided(json) = not found")
	}
	if e.File != "/new/json.star" {
		t.Errorf("ByProvided(json).File = %q, want most recent %q", e.File, "/new/json.star")
	}
}

func TestByDefined(t *testing.T) {
	ix := NewIndex([]Entry{
		{File: "a.star", Defines: []string{"encode", "decode"}},
		{File: "b.star", Provides: []string{DefineMarker("render")}},
	}, nil)

	tests := []struct {
		sym  string
		file string
		ok   bool
	}{
		{"encode", "a.star", true},
		{"render", "b.star", true}, // provide-marker convention
		{"missing", "", false},
	}
	for _, tc := range tests {
		e, ok := ix.ByDefined(tc.sym)
		if ok != tc.ok || e.File != tc.file {
			t.Errorf("ByDefined(%q) = (%q, %v), want (%q, %v)", tc.sym, e.File, ok, tc.file, tc.ok)
		}
	}
}

func TestByNameProgressiveMatching(t *testing.T) {
	ix := NewIndex([]Entry{
		{File: "/a/b/foo.star"},
		{File: "bare"},
	}, nil)

	tests := []struct {
		query string
		file  string
		ok    bool
	}{
		{"/a/b/foo.star", "/a/b/foo.star", true}, // exact
		{"foo.star", "/a/b/foo.star", true},      // directory stripped
		{"foo", "/a/b/foo.star", true},           // directory and suffix stripped
		{"bare", "bare", true},
		{"nope", "", false},
	}
	for _, tc := range tests {
		e, ok := ix.ByName(tc.query)
		if ok != tc.ok || e.File != tc.file {
			t.Errorf("ByName(%q) = (%q, %v), want (%q, %v)", tc.query, e.File, ok, tc.file, tc.ok)
		}
	}
}

func TestResolveFileAbsolute(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "lib.star")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ix := NewIndex(nil, nil)
	got, ok := ix.ResolveFile(Entry{File: path}, nil)
	if !ok || got != path {
		t.Errorf("ResolveFile(abs existing) = (%q, %v), want (%q, true)", got, ok, path)
	}
}

func TestResolveFileStaleAbsolute(t *testing.T) {
	// The recorded path is gone, but a sibling spelling of the same
	// module still lives in the recorded directory.
	tmp := t.TempDir()
	sibling := filepath.Join(tmp, "lib.star")
	if err := os.WriteFile(sibling, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ix := NewIndex(nil, nil)
	got, ok := ix.ResolveFile(Entry{File: filepath.Join(tmp, "lib.starc")}, nil)
	if !ok || got != sibling {
		t.Errorf("ResolveFile(stale abs) = (%q, %v), want (%q, true)", got, ok, sibling)
	}
}

func TestResolveFileRelative(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "lib.star")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ix := NewIndex(nil, nil)
	got, ok := ix.ResolveFile(Entry{File: "lib"}, []string{tmp})
	if !ok || got != path {
		t.Errorf("ResolveFile(relative) = (%q, %v), want (%q, true)", got, ok, path)
	}

	// A relative name with a recorded suffix resolves through the stem.
	got, ok = ix.ResolveFile(Entry{File: "lib.starc"}, []string{tmp})
	if !ok || got != path {
		t.Errorf("ResolveFile(relative suffixed) = (%q, %v), want (%q, true)", got, ok, path)
	}
}

func TestResolveFileGone(t *testing.T) {
	ix := NewIndex(nil, nil)
	if got, ok := ix.ResolveFile(Entry{File: "/nonexistent/lib.star"}, nil); ok {
		t.Errorf("ResolveFile(gone) = (%q, true), want not found", got)
	}
}
