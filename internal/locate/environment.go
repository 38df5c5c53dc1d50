package locate

import (
	"github.com/albertocavalcante/skyfind/internal/locate/history"
	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
)

// Environment is a read-only snapshot of the host runtime state,
// passed into every resolver operation. The host is the sole writer:
// the engine never mutates the search path or the load history, it
// only reads the snapshot it was handed for one call.
type Environment struct {
	// SearchPath is the ordered directory list; order defines priority.
	SearchPath []string

	// Suffixes is the ordered suffix list tried when expanding bare
	// names; nil means pathset.DefaultSuffixes.
	Suffixes []string

	// History is the runtime's append-ordered load record.
	History []history.Entry

	// Loaded lists the currently loaded module identifiers.
	Loaded []string

	// IsNative reports whether a symbol is implemented natively. A nil
	// check means no symbol is native.
	IsNative func(symbol string) bool

	// Origin returns a symbol's own recorded origin file, or "". When
	// set, it is consulted ahead of the load history: a symbol object
	// may carry its own origin pointer.
	Origin func(symbol string) string

	// DocsPath is the builtins documentation index file.
	DocsPath string

	// SourceRoot is the runtime source tree root.
	SourceRoot string

	// WorkspaceRoot anchors label-form module names. Empty disables
	// label resolution.
	WorkspaceRoot string
}

func (env *Environment) suffixes() []string {
	if env.Suffixes == nil {
		return pathset.DefaultSuffixes
	}
	return env.Suffixes
}

func (env *Environment) historyIndex() *history.Index {
	return history.NewIndex(env.History, env.suffixes())
}

func (env *Environment) isNative(symbol string) bool {
	return env.IsNative != nil && env.IsNative(symbol)
}

func (env *Environment) origin(symbol string) string {
	if env.Origin == nil {
		return ""
	}
	return env.Origin(symbol)
}
