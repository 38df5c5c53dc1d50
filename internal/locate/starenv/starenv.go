// Package starenv builds a resolver environment from a live
// starlark-go session.
//
// The session owns the mutable runtime state the resolver treats as
// read-only: it executes modules, appends the load-history entries the
// host runtime would record, and remembers each symbol's origin file.
// Environment() hands the resolver a snapshot of that state.
package starenv

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"go.starlark.net/starlark"

	"github.com/albertocavalcante/skyfind/internal/locate"
	"github.com/albertocavalcante/skyfind/internal/locate/artifact"
	"github.com/albertocavalcante/skyfind/internal/locate/completion"
	"github.com/albertocavalcante/skyfind/internal/locate/history"
	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
)

// Session is a Starlark interpreter session with load tracking.
type Session struct {
	predeclared starlark.StringDict
	searchPath  []string
	suffixes    []string

	entries []history.Entry
	loaded  []string
	origins map[string]string

	// cache implements the sequential load() protocol: nil marks a
	// load in progress, used for cycle detection.
	cache map[string]*loadEntry
}

type loadEntry struct {
	globals starlark.StringDict
	err     error
}

// NewSession creates a session loading modules from searchPath with the
// given predeclared environment.
func NewSession(searchPath []string, predeclared starlark.StringDict) *Session {
	return &Session{
		predeclared: predeclared,
		searchPath:  slices.Clone(searchPath),
		suffixes:    pathset.DefaultSuffixes,
		origins:     make(map[string]string),
		cache:       make(map[string]*loadEntry),
	}
}

// Load resolves and executes a module by name, recording the load. A
// module already loaded in this session returns its cached globals.
// Modules may load() each other; cycles are an error.
func (s *Session) Load(name string) (starlark.StringDict, error) {
	e, ok := s.cache[name]
	if e == nil {
		if ok {
			return nil, fmt.Errorf("cycle in load graph at %s", name)
		}
		s.cache[name] = nil
		globals, err := s.exec(name)
		e = &loadEntry{globals: globals, err: err}
		s.cache[name] = e
	}
	return e.globals, e.err
}

// exec locates name on the search path and runs it, dispatching on
// whether the hit is source or a compiled artifact.
func (s *Session) exec(name string) (starlark.StringDict, error) {
	hits := pathset.Search(s.searchPath, pathset.Expand(name, s.suffixes), false, nil)
	if len(hits) == 0 {
		return nil, &locate.NotFoundError{Name: name}
	}
	file := hits[0]

	thread := &starlark.Thread{
		Name: "load " + name,
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return s.Load(module)
		},
	}

	var globals starlark.StringDict
	var err error
	if artifact.IsArtifact(file) {
		globals, err = s.initCompiled(thread, file)
	} else {
		globals, err = starlark.ExecFile(thread, file, nil, s.predeclared)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	s.record(name, file, globals)
	return globals, nil
}

// initCompiled loads and initializes a compiled artifact.
func (s *Session) initCompiled(thread *starlark.Thread, file string) (starlark.StringDict, error) {
	r, err := artifact.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	prog, err := starlark.CompiledProgram(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return prog.Init(thread, s.predeclared)
}

// record appends the history entry for a completed load and updates
// per-symbol origins. A later load of the same symbol supersedes the
// earlier origin, matching the history's most-recent-wins convention.
func (s *Session) record(name, file string, globals starlark.StringDict) {
	defines := make([]string, 0, len(globals))
	for sym := range globals {
		defines = append(defines, sym)
		s.origins[sym] = file
	}
	sort.Strings(defines)

	s.entries = append(s.entries, history.Entry{
		File:     file,
		Provides: []string{name},
		Defines:  defines,
	})
	if !slices.Contains(s.loaded, name) {
		s.loaded = append(s.loaded, name)
	}
}

// Compile compiles a module's source from the search path into a
// .starc artifact in dir, recording the source file in the header.
// Returns the artifact path.
func (s *Session) Compile(name, dir string) (string, error) {
	hits := pathset.Search(s.searchPath, pathset.Expand(name, s.suffixes), false, nil)
	if len(hits) == 0 {
		return "", &locate.NotFoundError{Name: name}
	}
	source := hits[0]
	if artifact.IsArtifact(source) {
		return "", fmt.Errorf("%s: already compiled", source)
	}

	_, prog, err := starlark.SourceProgram(source, nil, s.predeclared.Has)
	if err != nil {
		return "", fmt.Errorf("compiling %s: %w", source, err)
	}

	path := filepath.Join(dir, pathset.Stem(source, s.suffixes)+artifact.Suffix)
	if err := artifact.WriteFile(path, prog, source); err != nil {
		return "", err
	}
	return path, nil
}

// Environment returns a read-only snapshot for the resolver.
func (s *Session) Environment(docsPath, sourceRoot, workspaceRoot string) *locate.Environment {
	origins := make(map[string]string, len(s.origins))
	for k, v := range s.origins {
		origins[k] = v
	}
	return &locate.Environment{
		SearchPath:    slices.Clone(s.searchPath),
		Suffixes:      slices.Clone(s.suffixes),
		History:       slices.Clone(s.entries),
		Loaded:        slices.Clone(s.loaded),
		IsNative:      s.IsNative,
		Origin:        func(sym string) string { return origins[sym] },
		DocsPath:      docsPath,
		SourceRoot:    sourceRoot,
		WorkspaceRoot: workspaceRoot,
	}
}

// WatchCompletions keeps a resolver's completion cache fresh while the
// session runs, flushing it whenever a search-path directory changes.
// The caller closes the returned watcher when the session ends.
func (s *Session) WatchCompletions(r *locate.Resolver) (*completion.Watcher, error) {
	return completion.Watch(r.CompletionCache(), s.searchPath)
}

// IsNative reports whether sym names a predeclared builtin implemented
// in the runtime rather than in any loaded Starlark source.
func (s *Session) IsNative(sym string) bool {
	v, ok := s.predeclared[sym]
	if !ok {
		return false
	}
	_, isBuiltin := v.(*starlark.Builtin)
	return isBuiltin
}
