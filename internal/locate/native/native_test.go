package native

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BUILTINS-DOC")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocate(t *testing.T) {
	index := "" +
		SourceMark + "string.o\n" +
		EntryMark + "upper\nConverts to upper case.\n" +
		EntryMark + "lower\nConverts to lower case.\n" +
		SourceMark + "math.gox\n" +
		EntryMark + "sqrt\nSquare root.\n" +
		SourceMark + "render.wasm\n" +
		EntryMark + "render\nRenders a template.\n"

	loc := &Locator{
		DocsPath:   writeIndex(t, index),
		SourceRoot: "/runtime/src",
	}

	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		// .o rewrites to .go and joins the source root.
		{"upper", filepath.Join("/runtime/src", "builtins", "string.go"), true},
		{"lower", filepath.Join("/runtime/src", "builtins", "string.go"), true},
		// .gox wrapper rewrites to .go.
		{"sqrt", filepath.Join("/runtime/src", "builtins", "math.go"), true},
		// Non-Go backend reference is returned as-is.
		{"render", "render.wasm", true},
		{"missing", "", false},
	}
	for _, tc := range tests {
		got, ok, err := loc.Locate(tc.symbol)
		if err != nil {
			t.Errorf("Locate(%q) error: %v", tc.symbol, err)
			continue
		}
		if got != tc.want || ok != tc.ok {
			t.Errorf("Locate(%q) = (%q, %v), want (%q, %v)", tc.symbol, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLocateExactNameNotPrefix(t *testing.T) {
	// "foo" occurs as a prefix inside "foobar"'s frame; a naive
	// substring search would associate foo with foobar's source
	// marker. The scan must re-synchronize past the false hit and
	// find the genuine entry further on.
	index := "" +
		SourceMark + "bar.o\n" +
		EntryMark + "foobar\nDoes foobar things.\n" +
		SourceMark + "foo.o\n" +
		EntryMark + "foo\nDoes foo things.\n"

	loc := &Locator{DocsPath: writeIndex(t, index), SourceRoot: "/src"}

	got, ok, err := loc.Locate("foo")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/src", "builtins", "foo.go")
	if !ok || got != want {
		t.Errorf("Locate(foo) = (%q, %v), want (%q, true)", got, ok, want)
	}
}

func TestLocateResynchronizesPastMarkerlessHit(t *testing.T) {
	// The first genuine-looking frame has no preceding source marker;
	// the scan must continue to the later, well-formed entry.
	index := "" +
		EntryMark + "dup\norphaned entry\n" +
		SourceMark + "dup.o\n" +
		EntryMark + "dup\nreal entry\n"

	loc := &Locator{DocsPath: writeIndex(t, index), SourceRoot: "/src"}

	got, ok, err := loc.Locate("dup")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join("/src", "builtins", "dup.go")
	if !ok || got != want {
		t.Errorf("Locate(dup) = (%q, %v), want (%q, true)", got, ok, want)
	}
}

func TestLocateNotNative(t *testing.T) {
	loc := &Locator{
		DocsPath: writeIndex(t, ""),
		IsNative: func(string) bool { return false },
	}
	_, _, err := loc.Locate("interpreted_symbol")
	if !errors.Is(err, ErrNotNative) {
		t.Errorf("Locate() error = %v, want ErrNotNative", err)
	}
}

func TestLocateMissingIndex(t *testing.T) {
	loc := &Locator{DocsPath: filepath.Join(t.TempDir(), "absent")}
	got, ok, err := loc.Locate("upper")
	if err != nil || ok || got != "" {
		t.Errorf("Locate() with missing index = (%q, %v, %v), want (\"\", false, nil)", got, ok, err)
	}
}
