// Package history indexes the runtime's record of what was loaded and
// from where.
//
// The host runtime appends an Entry for each load; entries are never
// mutated or removed here. Lookups scan from the most recent entry
// backward, so a re-load supersedes the record of an earlier load.
// A matched entry only records where a file was loaded from at the
// time; callers must re-validate the path against the live filesystem
// with ResolveFile before using it.
package history

import (
	"path/filepath"

	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
)

// Entry records a single module load.
type Entry struct {
	// File is the name the module was loaded from, absolute or bare.
	File string

	// Provides lists the module identifiers the load made available.
	Provides []string

	// Defines lists the symbols the load defined.
	Defines []string
}

// DefineMarker returns the provide-style marker some recording
// conventions use instead of a Defines entry for sym.
func DefineMarker(sym string) string {
	return "defines:" + sym
}

// Index is a queryable view over an append-ordered entry list.
type Index struct {
	entries  []Entry
	suffixes []string
}

// NewIndex creates an index over entries. The suffix list is used for
// the loosest form of name matching and for path re-validation; nil
// means pathset.DefaultSuffixes.
func NewIndex(entries []Entry, suffixes []string) *Index {
	if suffixes == nil {
		suffixes = pathset.DefaultSuffixes
	}
	return &Index{entries: entries, suffixes: suffixes}
}

// ByProvided returns the most recent entry whose Provides set contains id.
func (ix *Index) ByProvided(id string) (Entry, bool) {
	return ix.scan(func(e Entry) bool {
		return contains(e.Provides, id)
	})
}

// ByDefined returns the most recent entry that defined sym, either as a
// Defines record or as a DefineMarker in its Provides set.
func (ix *Index) ByDefined(sym string) (Entry, bool) {
	marker := DefineMarker(sym)
	return ix.scan(func(e Entry) bool {
		return contains(e.Defines, sym) || contains(e.Provides, marker)
	})
}

// ByName returns the most recent entry whose recorded file name matches
// name. Per entry, progressively looser forms are tried in a fixed
// order: the full recorded name, the name stripped of its directory,
// then additionally stripped of a known suffix.
func (ix *Index) ByName(name string) (Entry, bool) {
	return ix.scan(func(e Entry) bool {
		if e.File == name {
			return true
		}
		base := filepath.Base(e.File)
		if base == name {
			return true
		}
		return pathset.TrimSuffix(base, ix.suffixes) == name
	})
}

// ResolveFile derives a usable on-disk path for an entry's recorded
// file, re-validating against the live filesystem since load records
// can go stale.
//
// An absolute recorded name is used directly if still present, and
// otherwise re-derived by searching just its own directory for the
// name's stem. A relative name is resolved through searchPath with the
// index's suffix list, first hit wins.
func (ix *Index) ResolveFile(e Entry, searchPath []string) (string, bool) {
	if filepath.IsAbs(e.File) {
		if pathset.Readable(e.File) {
			return e.File, true
		}
		dir := filepath.Dir(e.File)
		stem := pathset.Stem(e.File, ix.suffixes)
		hits := pathset.Search([]string{dir}, pathset.Expand(stem, ix.suffixes), true, nil)
		if len(hits) > 0 {
			return hits[0], true
		}
		return "", false
	}
	stem := pathset.TrimSuffix(e.File, ix.suffixes)
	hits := pathset.Search(searchPath, pathset.Expand(stem, ix.suffixes), true, nil)
	if len(hits) > 0 {
		return hits[0], true
	}
	return "", false
}

// scan walks entries newest to oldest and returns the first match.
func (ix *Index) scan(match func(Entry) bool) (Entry, bool) {
	for i := len(ix.entries) - 1; i >= 0; i-- {
		if match(ix.entries[i]) {
			return ix.entries[i], true
		}
	}
	return Entry{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
