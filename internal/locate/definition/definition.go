// Package definition finds the byte offset of a symbol's definition
// inside a source file.
//
// Matching is deliberately pattern-based, not a parse: a per-kind
// template with the escaped symbol name substituted in. Occasional
// false negatives are acceptable; callers treat a miss as "open the
// file anyway, skip positioning".
package definition

import (
	"fmt"
	"os"
	"regexp"
)

// Kind selects the definition template for the file being scanned.
type Kind int

const (
	// KindStarlark matches def statements and top-level assignments in
	// Starlark source.
	KindStarlark Kind = iota

	// KindNative matches builtin registration sites in runtime Go
	// source.
	KindNative
)

// Pattern builds the search pattern for symbol in a file of the given
// kind. The symbol name is escaped; the defining occurrence of the name
// is a capturing group.
func Pattern(kind Kind, symbol string) *regexp.Regexp {
	name := regexp.QuoteMeta(symbol)
	switch kind {
	case KindNative:
		return regexp.MustCompile(`NewBuiltin\(\s*"(` + name + `)"`)
	default:
		return regexp.MustCompile(`(?m)^\s*(?:def\s+(` + name + `)\s*\(|(` + name + `)\s*=[^=])`)
	}
}

// Find scans src from the top for the first definition of symbol and
// returns the byte offset of the defining name. When the pattern's
// capturing group matched, the offset is the start of that group,
// otherwise the start of the whole match.
func Find(src []byte, kind Kind, symbol string) (int64, bool) {
	loc := Pattern(kind, symbol).FindSubmatchIndex(src)
	if loc == nil {
		return 0, false
	}
	// First non-empty capturing group, else the whole match.
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return int64(loc[i]), true
		}
	}
	return int64(loc[0]), true
}

// FindInFile reads path and scans it for symbol's definition.
func FindInFile(path string, kind Kind, symbol string) (int64, bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("reading %s: %w", path, err)
	}
	off, ok := Find(src, kind, symbol)
	return off, ok, nil
}
