package skyfind

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, interactive bool, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := RunWithIO(args, interactive, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestModuleResolves(t *testing.T) {
	dir := t.TempDir()
	want := writeFile(t, dir, "json.star", "def encode(v):\n    pass\n")

	code, stdout, stderr := run(t, false, "-path", dir, "module", "json")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, stderr)
	}
	if got := strings.TrimSpace(stdout); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestModuleNotFound(t *testing.T) {
	code, _, stderr := run(t, false, "-path", t.TempDir(), "module", "nosuch")
	if code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "library not found: nosuch") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestModuleAmbiguous(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "lib.star", "a = 1\n")
	hit := writeFile(t, second, "lib.star", "a = 2\n")
	searchPath := first + ":" + second

	t.Run("batch fails hard", func(t *testing.T) {
		code, _, stderr := run(t, false, "-path", searchPath, "module", "lib")
		if code != exitError {
			t.Errorf("exit = %d, want %d", code, exitError)
		}
		if !strings.Contains(stderr, "ambiguous") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("interactive lists candidates", func(t *testing.T) {
		code, stdout, stderr := run(t, true, "-path", searchPath, "module", "lib")
		if code != exitWarning {
			t.Errorf("exit = %d, want %d", code, exitWarning)
		}
		if stdout != "" {
			t.Errorf("stdout = %q, want empty", stdout)
		}
		if !strings.Contains(stderr, "1. "+filepath.Join(first, "lib.star")) {
			t.Errorf("stderr missing first candidate:\n%s", stderr)
		}
		if !strings.Contains(stderr, "2. "+filepath.Join(second, "lib.star")) {
			t.Errorf("stderr missing second candidate:\n%s", stderr)
		}
	})

	t.Run("select picks one", func(t *testing.T) {
		code, stdout, stderr := run(t, false, "-path", searchPath, "-select", "2", "module", "lib")
		if code != exitOK {
			t.Fatalf("exit = %d, stderr: %s", code, stderr)
		}
		if got := strings.TrimSpace(stdout); got != hit {
			t.Errorf("stdout = %q, want %q", got, hit)
		}
	})

	t.Run("select out of range", func(t *testing.T) {
		code, _, stderr := run(t, false, "-path", searchPath, "-select", "9", "module", "lib")
		if code != exitError {
			t.Errorf("exit = %d, want %d", code, exitError)
		}
		if !strings.Contains(stderr, "selector 9") {
			t.Errorf("stderr = %q", stderr)
		}
	})

	t.Run("all lists every hit", func(t *testing.T) {
		code, stdout, _ := run(t, false, "-path", searchPath, "-all", "module", "lib")
		if code != exitOK {
			t.Fatalf("exit = %d", code)
		}
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines: %q", len(lines), stdout)
		}
	})
}

func TestSymbolNative(t *testing.T) {
	root := t.TempDir()
	source := writeFile(t, root, filepath.Join("src", "builtins", "string.go"),
		"package builtins\n\nvar upperBuiltin = starlark.NewBuiltin(\"upper\", stringUpper)\n")
	docs := writeFile(t, root, "BUILTINS-DOC",
		"\x1eSstring.gox\n\x1fupper\nConverts to upper case.\n")

	code, stdout, stderr := run(t, false,
		"-docs_index", docs,
		"-source_root", filepath.Join(root, "src"),
		"symbol", "upper")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr: %s", code, stderr)
	}
	got := strings.TrimSpace(stdout)
	if !strings.HasPrefix(got, source+":") {
		t.Errorf("stdout = %q, want %s:<offset>", got, source)
	}
}

func TestSymbolNotLoaded(t *testing.T) {
	code, _, stderr := run(t, false, "-path", t.TempDir(), "symbol", "orphan")
	if code != exitError {
		t.Errorf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "not currently loaded") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestComplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "json.star", "")
	writeFile(t, dir, "jsonnet.star", "")
	writeFile(t, dir, "yaml.star", "")

	code, stdout, _ := run(t, false, "-path", dir, "complete", "js")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	want := "json\njsonnet\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := run(t, false, "-version")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	if !strings.HasPrefix(stdout, "skyfind ") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestBadUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"missing name", []string{"module"}},
		{"unknown command", []string{"frobnicate", "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := run(t, false, tc.args...)
			if code != exitError {
				t.Errorf("exit = %d, want %d", code, exitError)
			}
			if !strings.Contains(stderr, "Usage: skyfind") {
				t.Errorf("stderr missing usage:\n%s", stderr)
			}
		})
	}
}
