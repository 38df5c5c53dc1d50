// Package artifact reads and writes compiled Starlark program files.
//
// A .starc file starts with a short text header: a magic line, then
// comment lines, one of which records the source file the program was
// compiled from. The serialized program payload follows the header.
// The header is the only part this package ever parses with patterns;
// the payload is opaque and handed to starlark-go.
package artifact

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
)

const (
	// Suffix is the compiled artifact file extension.
	Suffix = ".starc"

	// Magic is the first line of every .starc file.
	Magic = ";starc\n"

	// chunkSize bounds each header read. Header comments sit near the
	// start of the file, so most extractions finish within one chunk.
	chunkSize = 512
)

// hintPattern matches the header line recording the original source
// file, case-insensitively.
var hintPattern = regexp.MustCompile(`(?i)^;\s*compiled from\s+(\S+)\s*$`)

// wrapperExt maps platform-specific native-wrapper extensions back to
// the true source extension they stand in for.
var wrapperExt = map[string]string{
	".gox": ".go",
}

// IsArtifact reports whether path names a compiled artifact.
func IsArtifact(path string) bool {
	return strings.HasSuffix(path, Suffix)
}

// SourceHint extracts the "compiled from" file name recorded in the
// artifact's header. A missing magic line or a header without the
// comment yields ("", false); neither is an error.
func SourceHint(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()
	return ReadSourceHint(f)
}

// ReadSourceHint scans r for the source-file comment. It reads in
// fixed-size chunks from the head: the magic line is checked against
// the first chunk alone, and the window then grows chunk-by-chunk until
// the comment is found or the reader is exhausted.
func ReadSourceHint(r io.Reader) (string, bool) {
	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)

	n, err := io.ReadFull(r, chunk)
	buf = append(buf, chunk[:n]...)
	if !bytes.HasPrefix(buf, []byte(Magic)) {
		return "", false
	}

	scanned := 0
	for {
		// Scan only the complete lines accumulated so far.
		for {
			nl := bytes.IndexByte(buf[scanned:], '\n')
			if nl < 0 {
				break
			}
			line := buf[scanned : scanned+nl]
			scanned += nl + 1
			if m := hintPattern.FindSubmatch(line); m != nil {
				return normalizeHint(string(m[1])), true
			}
		}
		if err != nil {
			// Exhausted: a trailing line without newline cannot be a
			// header comment worth another chunk.
			if m := hintPattern.FindSubmatch(buf[scanned:]); m != nil {
				return normalizeHint(string(m[1])), true
			}
			return "", false
		}
		n, err = io.ReadFull(r, chunk)
		buf = append(buf, chunk[:n]...)
	}
}

// normalizeHint rewrites a native-wrapper extension in the recorded
// name back to its true source extension.
func normalizeHint(name string) string {
	for wrapper, source := range wrapperExt {
		if strings.HasSuffix(name, wrapper) {
			return strings.TrimSuffix(name, wrapper) + source
		}
	}
	return name
}

// WriteFile serializes prog to path in .starc format, recording source
// as the compiled-from header comment.
func WriteFile(path string, prog *starlark.Program, source string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	w := bufio.NewWriter(f)
	_, _ = io.WriteString(w, Magic)
	_, _ = fmt.Fprintf(w, "; compiled from %s\n", source)
	_, _ = fmt.Fprintf(w, "; starlark-go program, %d loads\n", prog.NumLoads())
	if err := prog.Write(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

// Open positions a reader at the start of the serialized program
// payload, past the header lines. The caller must close it.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	magic, err := br.ReadString('\n')
	if err != nil || magic != Magic {
		_ = f.Close()
		return nil, fmt.Errorf("%s: not a compiled artifact", path)
	}
	for {
		peek, err := br.Peek(1)
		if err != nil || peek[0] != ';' {
			break
		}
		if _, err := br.ReadString('\n'); err != nil {
			break
		}
	}
	return &payloadReader{Reader: br, closer: f}, nil
}

type payloadReader struct {
	*bufio.Reader
	closer io.Closer
}

func (p *payloadReader) Close() error {
	return p.closer.Close()
}
