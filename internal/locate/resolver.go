// Package locate resolves module and symbol names to the source files
// that define them.
//
// Three sources of truth are reconciled in priority order: the
// configured search path, the runtime's load history, and metadata
// embedded in compiled artifacts (plus the builtins docs index for
// native symbols). Each can be stale or partial; later sources are
// fallbacks, and history-derived paths are always re-validated against
// the live filesystem.
package locate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bazelbuild/buildtools/labels"

	"github.com/albertocavalcante/skyfind/internal/locate/artifact"
	"github.com/albertocavalcante/skyfind/internal/locate/completion"
	"github.com/albertocavalcante/skyfind/internal/locate/definition"
	"github.com/albertocavalcante/skyfind/internal/locate/history"
	"github.com/albertocavalcante/skyfind/internal/locate/native"
	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
)

// Location is a resolved definition site.
type Location struct {
	// Path is the absolute path of the resolved file.
	Path string

	// Offset is the byte offset of the definition within Path; valid
	// only when HasOffset is set.
	Offset    int64
	HasOffset bool

	// Note is a provenance caveat, e.g. when a module was found via
	// the load history rather than the search path. Not an error.
	Note string
}

// Options tunes a module query.
type Options struct {
	// Select is a 1-based index into an ambiguous candidate set;
	// 0 means unset.
	Select int

	// Predicate filters candidate paths, e.g. pathset.Readable.
	Predicate pathset.Predicate

	// Suffixes overrides the environment's suffix list for this query.
	Suffixes []string
}

// noteHistory is the provenance note attached to history-derived hits.
const noteHistory = "found via load history, not in search path"

// Resolver answers module and symbol queries against an Environment
// snapshot. It owns the completion cache; everything else is read per
// call.
type Resolver struct {
	completions *completion.Cache
}

// NewResolver creates a Resolver with an empty completion cache.
func NewResolver() *Resolver {
	return &Resolver{completions: completion.New()}
}

// LocateModule returns all candidate files for a module name, in
// priority order (directory-major, suffix-minor). Label-form names
// (//pkg:target, @repo//pkg:target) resolve against the workspace root
// instead of the search path. An empty result is not an error.
func (r *Resolver) LocateModule(env *Environment, name string, opts Options) ([]string, error) {
	suffixes := opts.Suffixes
	if suffixes == nil {
		suffixes = env.suffixes()
	}

	if isLabel(name) {
		return r.locateLabel(env, name, suffixes, opts.Predicate)
	}

	candidates := pathset.Expand(name, suffixes)
	return pathset.Search(env.SearchPath, candidates, true, opts.Predicate), nil
}

// locateLabel resolves a Bazel-style label against the workspace root.
func (r *Resolver) locateLabel(env *Environment, name string, suffixes []string, pred pathset.Predicate) ([]string, error) {
	if env.WorkspaceRoot == "" {
		return nil, fmt.Errorf("label %s: no workspace root configured", name)
	}
	label := labels.Parse(name)
	if label.Repository != "" {
		return nil, fmt.Errorf("label %s: external repositories not supported", name)
	}
	dir := filepath.Join(env.WorkspaceRoot, filepath.FromSlash(label.Package))

	candidates := []string{label.Target}
	if pathset.TrimSuffix(label.Target, suffixes) == label.Target {
		candidates = pathset.Expand(label.Target, suffixes)
	}
	return pathset.Search([]string{dir}, candidates, true, pred), nil
}

// ResolveModule resolves a module name to a single file.
//
// The search path is consulted first: a selector picks from multiple
// hits, a lone hit is used directly, and multiple hits without a
// selector are surfaced as an AmbiguousError carrying the full
// candidate list. When the search path yields nothing, the load
// history is consulted and re-validated; a compiled artifact found
// there is traded for its recorded source file when that still exists.
func (r *Resolver) ResolveModule(env *Environment, name string, opts Options) (Location, error) {
	hits, err := r.LocateModule(env, name, opts)
	if err != nil {
		return Location{}, err
	}

	if len(hits) > 0 {
		switch {
		case opts.Select > 0:
			if opts.Select > len(hits) {
				return Location{}, &SelectorRangeError{Selector: opts.Select, Candidates: len(hits)}
			}
			return Location{Path: hits[opts.Select-1]}, nil
		case len(hits) == 1:
			return Location{Path: hits[0]}, nil
		default:
			return Location{}, &AmbiguousError{Name: name, Candidates: hits}
		}
	}

	ix := env.historyIndex()
	entry, ok := ix.ByName(name)
	if !ok && isIdentifier(name) {
		entry, ok = ix.ByProvided(name)
	}
	if ok {
		if path, live := ix.ResolveFile(entry, env.SearchPath); live {
			return Location{Path: preferSource(path), Note: noteHistory}, nil
		}
		// Stale record: every fallback below it failed too.
	}

	return Location{}, &NotFoundError{Name: name}
}

// ResolveSymbol resolves a symbol name to the file and byte offset of
// its definition.
//
// Native symbols go through the builtins docs index and the native
// definition template. For interpreted symbols the load file is
// derived from the symbol's own origin pointer first, then from the
// load history; a compiled load file is traded for its source via the
// artifact metadata, a sibling suffix swap, or a search-path re-lookup
// before falling back to the artifact itself.
func (r *Resolver) ResolveSymbol(env *Environment, symbol string) (Location, error) {
	if env.isNative(symbol) {
		return r.resolveNativeSymbol(env, symbol)
	}

	ix := env.historyIndex()

	var file string
	if origin := env.origin(symbol); origin != "" {
		file, _ = ix.ResolveFile(history.Entry{File: origin}, env.SearchPath)
	}
	if file == "" {
		if entry, ok := ix.ByDefined(symbol); ok {
			file, _ = ix.ResolveFile(entry, env.SearchPath)
		}
	}
	if file == "" {
		return Location{}, &NotLoadedError{Symbol: symbol}
	}

	if artifact.IsArtifact(file) {
		file = sourceForArtifact(env, file)
	}

	offset, found, err := definition.FindInFile(file, definition.KindStarlark, symbol)
	if err != nil {
		return Location{}, err
	}
	if !found {
		return Location{}, &DefinitionNotFoundError{Symbol: symbol, File: file}
	}
	return Location{Path: file, Offset: offset, HasOffset: true}, nil
}

// resolveNativeSymbol handles symbols implemented in the runtime.
func (r *Resolver) resolveNativeSymbol(env *Environment, symbol string) (Location, error) {
	loc := &native.Locator{
		DocsPath:   env.DocsPath,
		SourceRoot: env.SourceRoot,
		IsNative:   env.IsNative,
	}
	file, ok, err := loc.Locate(symbol)
	if err != nil {
		return Location{}, err
	}
	if !ok {
		return Location{}, &NotFoundError{Name: symbol}
	}

	offset, found, err := definition.FindInFile(file, definition.KindNative, symbol)
	if err != nil {
		return Location{}, err
	}
	if !found {
		return Location{}, &DefinitionNotFoundError{Symbol: symbol, File: file}
	}
	return Location{Path: file, Offset: offset, HasOffset: true}, nil
}

// Completions returns known module names starting with prefix,
// delegating to the completion cache.
func (r *Resolver) Completions(env *Environment, prefix string) []string {
	return r.completions.Completions(prefix, env.SearchPath, completion.Sources{
		Suffixes: env.suffixes(),
		Loaded:   env.Loaded,
		History:  env.History,
	})
}

// FlushCompletionCache unconditionally clears the completion cache.
func (r *Resolver) FlushCompletionCache() {
	r.completions.Flush()
}

// CompletionCache exposes the cache for watcher wiring.
func (r *Resolver) CompletionCache() *completion.Cache {
	return r.completions
}

// preferSource trades a compiled artifact path for the source file its
// header records, when that source still exists. Missing or malformed
// metadata keeps the artifact path; neither is an error.
func preferSource(path string) string {
	if !artifact.IsArtifact(path) {
		return path
	}
	hint, ok := artifact.SourceHint(path)
	if !ok {
		return path
	}
	if !filepath.IsAbs(hint) {
		hint = filepath.Join(filepath.Dir(path), hint)
	}
	if pathset.Readable(hint) {
		return hint
	}
	return path
}

// sourceForArtifact derives the best source file for symbol resolution
// from a compiled load file, in preference order: the recorded source
// hint, a same-directory sibling with a source suffix, a search-path
// re-lookup of the bare stem, and finally the artifact itself.
func sourceForArtifact(env *Environment, path string) string {
	if hinted := preferSource(path); hinted != path {
		return hinted
	}

	if sibling := swapSuffix(path, env.suffixes()); sibling != "" && pathset.Readable(sibling) {
		return sibling
	}

	stem := pathset.Stem(path, env.suffixes())
	if hits := pathset.Search(env.SearchPath, pathset.Expand(stem, env.suffixes()), false, nil); len(hits) > 0 {
		return hits[0]
	}

	return path
}

// swapSuffix rewrites an artifact path to its first source-suffix
// sibling spelling, or "" when the suffix list has no source suffix.
func swapSuffix(path string, suffixes []string) string {
	for _, suffix := range suffixes {
		if suffix == "" || suffix == artifact.Suffix {
			continue
		}
		return strings.TrimSuffix(path, artifact.Suffix) + suffix
	}
	return ""
}

// isLabel reports whether name is a Bazel-style label.
func isLabel(name string) bool {
	return strings.HasPrefix(name, "//") || strings.HasPrefix(name, "@")
}

// isIdentifier reports whether name resembles a module identifier
// rather than a file name.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
