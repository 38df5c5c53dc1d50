// Package native locates the runtime source file that implements a
// native builtin symbol.
//
// Native symbols have no Starlark source. Their definitions live in the
// runtime itself, and the only record tying a symbol to a source file
// is the builtins documentation index the runtime build emits: framed
// symbol entries interleaved with markers naming the object file each
// group of entries was compiled from.
package native

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	// EntryMark frames each symbol name in the docs index: the entry
	// for name is the line EntryMark+name.
	EntryMark = "\x1f"

	// SourceMark starts an index line recording the object file the
	// entries that follow were compiled from.
	SourceMark = "\x1eS"

	// builtinsDir is the runtime source subdirectory holding builtin
	// implementations, joined under the source root.
	builtinsDir = "builtins"
)

// ErrNotNative reports a locator invocation for a symbol that is not
// implemented natively.
var ErrNotNative = errors.New("not a native symbol")

// objectExt rewrites object-file extensions captured from the index to
// the source extensions they were compiled from. ".gox" is the native
// wrapper spelling, ".o" the generic compiled object.
var objectExt = map[string]string{
	".gox": ".go",
	".o":   ".go",
}

// Locator maps native symbol names to runtime source files.
type Locator struct {
	// DocsPath is the builtins documentation index file.
	DocsPath string

	// SourceRoot is the root of the runtime source tree.
	SourceRoot string

	// IsNative reports whether a symbol is implemented natively. A nil
	// check treats every symbol as native.
	IsNative func(symbol string) bool
}

// Locate returns the source file implementing symbol.
//
// It returns ErrNotNative when the capability check rejects the symbol.
// A missing index file, or a symbol absent from it, yields ("", false)
// with no error; the caller reports "cannot locate".
func (l *Locator) Locate(symbol string) (string, bool, error) {
	if l.IsNative != nil && !l.IsNative(symbol) {
		return "", false, fmt.Errorf("%s: %w", symbol, ErrNotNative)
	}

	data, ok := l.readIndex()
	if !ok {
		return "", false, nil
	}

	object, ok := scanIndex(data, symbol)
	if !ok {
		return "", false, nil
	}

	name := rewriteExtension(object)
	if strings.HasSuffix(name, ".go") {
		return filepath.Join(l.SourceRoot, builtinsDir, name), true, nil
	}
	// Already a full usable reference, e.g. a .wasm backend module.
	return name, true, nil
}

// readIndex reads the docs index under a shared lock; the runtime build
// rewrites the index in place.
func (l *Locator) readIndex() ([]byte, bool) {
	if _, err := os.Stat(l.DocsPath); err != nil {
		return nil, false
	}

	lock := flock.New(l.DocsPath)
	if err := lock.RLock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	data, err := os.ReadFile(l.DocsPath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// scanIndex finds the object file recorded for symbol.
//
// The scan looks for the framed entry EntryMark+symbol+"\n" and takes
// the payload of the nearest preceding SourceMark line. A hit whose
// frame does not terminate after the symbol name (a longer name sharing
// the prefix) or that has no preceding marker is a false association:
// the cursor advances past it and the scan resumes rather than aborting.
func scanIndex(data []byte, symbol string) (string, bool) {
	frame := []byte(EntryMark + symbol)
	cursor := 0
	for {
		i := bytes.Index(data[cursor:], frame)
		if i < 0 {
			return "", false
		}
		at := cursor + i
		end := at + len(frame)

		// The entry name must end exactly here.
		if end < len(data) && data[end] != '\n' {
			cursor = end
			continue
		}

		mark := bytes.LastIndex(data[:at], []byte(SourceMark))
		if mark < 0 {
			cursor = end
			continue
		}
		payload := data[mark+len(SourceMark):]
		if nl := bytes.IndexByte(payload, '\n'); nl >= 0 {
			payload = payload[:nl]
		}
		object := strings.TrimSpace(string(payload))
		if object == "" {
			cursor = end
			continue
		}
		return object, true
	}
}

// rewriteExtension maps an object-file extension back to its source
// extension.
func rewriteExtension(name string) string {
	ext := filepath.Ext(name)
	if source, ok := objectExt[ext]; ok {
		return strings.TrimSuffix(name, ext) + source
	}
	return name
}
