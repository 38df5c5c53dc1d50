// Package completion maintains the memoized table of known module
// names used for interactive completion.
//
// The table is keyed by the search-path value it was computed against:
// any change to the live search path, including reordering, makes the
// table stale. The cache cannot see files added to an existing
// directory; Flush exists for that, and Watcher automates it.
package completion

import (
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/albertocavalcante/skyfind/internal/locate/history"
	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
)

// Sources supplies the non-filesystem name sources for a recompute.
type Sources struct {
	// Suffixes is the recognized source/compiled suffix list; nil means
	// pathset.DefaultSuffixes.
	Suffixes []string

	// Loaded lists the currently loaded module identifiers.
	Loaded []string

	// History is the runtime load history.
	History []history.Entry
}

// Cache memoizes the completion table for one search-path value.
type Cache struct {
	mu    sync.Mutex
	table map[string]bool
	key   []string

	// OnRecompute, if set, is called each time the table is rebuilt.
	// Test hook.
	OnRecompute func()
}

// New creates an empty cache; the table is built lazily on first use.
func New() *Cache {
	return &Cache{}
}

// Completions returns the known module names starting with prefix,
// sorted. The table is recomputed when the live searchPath differs by
// value from the one the cached table was computed against.
func (c *Cache) Completions(prefix string, searchPath []string, src Sources) []string {
	c.mu.Lock()
	if c.table == nil || !slices.Equal(c.key, searchPath) {
		c.table = compute(searchPath, src)
		c.key = slices.Clone(searchPath)
		if c.OnRecompute != nil {
			c.OnRecompute()
		}
	}
	table := c.table
	c.mu.Unlock()

	var names []string
	for name := range table {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Flush unconditionally clears the cache, forcing a recompute on the
// next use.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.table = nil
	c.key = nil
	c.mu.Unlock()
}

// compute unions module names from the search-path directories, the
// loaded-module list, and the load history.
func compute(searchPath []string, src Sources) map[string]bool {
	suffixes := src.Suffixes
	if suffixes == nil {
		suffixes = pathset.DefaultSuffixes
	}

	table := make(map[string]bool)
	for _, dir := range searchPath {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if stripped := pathset.TrimSuffix(name, suffixes); stripped != name {
				table[stripped] = true
			}
		}
	}
	for _, id := range src.Loaded {
		table[id] = true
	}
	for _, e := range src.History {
		table[pathset.Stem(e.File, suffixes)] = true
	}
	return table
}
