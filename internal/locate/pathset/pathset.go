// Package pathset expands bare module names into candidate filenames
// and searches an ordered list of directories for them.
//
// Order is significant everywhere: the suffix list defines preference
// between spellings of the same module, and the directory list defines
// priority between locations. Search results preserve both.
package pathset

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultSuffixes is the suffix list tried when expanding a bare module
// name, in preference order. The trailing empty suffix means the bare
// name itself is tried last.
var DefaultSuffixes = []string{".star", ".starc", ""}

// Expand returns the candidate filenames for name: the name concatenated
// with each suffix in list order. An empty suffix yields the bare name.
// An empty suffix list yields the bare name alone.
func Expand(name string, suffixes []string) []string {
	if len(suffixes) == 0 {
		return []string{name}
	}
	candidates := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		candidates = append(candidates, name+suffix)
	}
	return candidates
}

// Predicate filters search hits. A nil Predicate accepts every path.
type Predicate func(path string) bool

// Readable reports whether path is a readable regular file.
func Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Search tests each candidate name in each directory and returns the
// absolute paths that exist (and satisfy pred, if given).
//
// The result is directory-major, candidate-minor: all hits in dirs[0]
// precede all hits in dirs[1], and within a directory candidates are
// tried in list order. With collectAll=false the search stops at the
// first hit and returns a single-element result. No match yields an
// empty result, not an error.
func Search(dirs, candidates []string, collectAll bool, pred Predicate) []string {
	var hits []string
	for _, dir := range dirs {
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if !regularFile(path) {
				continue
			}
			if pred != nil && !pred(path) {
				continue
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			hits = append(hits, abs)
			if !collectAll {
				return hits
			}
		}
	}
	return hits
}

// TrimSuffix removes the first matching suffix from name. Empty
// suffixes are ignored; an unsuffixed name is returned unchanged.
func TrimSuffix(name string, suffixes []string) string {
	for _, suffix := range suffixes {
		if suffix == "" {
			continue
		}
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// Stem returns name stripped of its directory and of the first
// matching suffix.
func Stem(name string, suffixes []string) string {
	return TrimSuffix(filepath.Base(name), suffixes)
}

func regularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
