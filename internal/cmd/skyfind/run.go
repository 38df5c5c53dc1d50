// Package skyfind implements the skyfind command: resolve a Starlark
// module or symbol name to the source file defining it.
package skyfind

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/albertocavalcante/skyfind/internal/cli"
	"github.com/albertocavalcante/skyfind/internal/findconfig"
	"github.com/albertocavalcante/skyfind/internal/locate"
	"github.com/albertocavalcante/skyfind/internal/locate/pathset"
	"github.com/albertocavalcante/skyfind/internal/version"
)

// Exit codes
const (
	exitOK      = cli.ExitOK
	exitError   = cli.ExitError
	exitWarning = cli.ExitWarning
)

// Run executes skyfind with the given arguments.
// Returns exit code.
func Run(args []string) int {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	return RunWithIO(args, interactive, os.Stdout, os.Stderr)
}

// RunWithIO allows custom IO for embedding/testing. interactive
// controls whether ambiguous results are listed for a user or reported
// as a hard failure.
func RunWithIO(args []string, interactive bool, stdout, stderr io.Writer) int {
	var (
		configPath  string
		workspace   string
		searchPath  string
		docsIndex   string
		sourceRoot  string
		selector    int
		listAll     bool
		interFlag   bool
		batchFlag   bool
		versionFlag bool
	)

	fs := flag.NewFlagSet("skyfind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&configPath, "config", "", "config file (default: discovered skyfind.toml / config.skyfind)")
	fs.StringVar(&workspace, "workspace", "", "workspace root for //label module names")
	fs.StringVar(&searchPath, "path", "", "colon-separated search path (overrides config)")
	fs.StringVar(&docsIndex, "docs_index", "", "builtins documentation index file (overrides config)")
	fs.StringVar(&sourceRoot, "source_root", "", "runtime source tree root (overrides config)")
	fs.IntVar(&selector, "select", 0, "1-based pick from an ambiguous candidate set")
	fs.BoolVar(&listAll, "all", false, "list every candidate instead of resolving to one")
	fs.BoolVar(&interFlag, "interactive", false, "list ambiguous candidates instead of failing")
	fs.BoolVar(&batchFlag, "batch", false, "treat ambiguity as a hard failure even on a terminal")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		writeln(stderr, "Usage: skyfind [flags] module <name>")
		writeln(stderr, "       skyfind [flags] symbol <name>")
		writeln(stderr, "       skyfind [flags] complete <prefix>")
		writeln(stderr)
		writeln(stderr, "Resolves Starlark module and symbol names to source files.")
		writeln(stderr)
		writeln(stderr, "Flags:")
		fs.PrintDefaults()
		writeln(stderr)
		writeln(stderr, "Examples:")
		writeln(stderr, "  skyfind module json                  # Find json.star on the search path")
		writeln(stderr, "  skyfind module //tools:defs.star     # Resolve a label against the workspace")
		writeln(stderr, "  skyfind -select 2 module lib         # Pick the 2nd ambiguous candidate")
		writeln(stderr, "  skyfind symbol encode                # File and offset defining encode")
		writeln(stderr, "  skyfind complete js                  # Module names starting with js")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitError
	}

	if versionFlag {
		writef(stdout, "skyfind %s\n", version.String())
		return exitOK
	}

	if interFlag {
		interactive = true
	}
	if batchFlag {
		interactive = false
	}

	rest := fs.Args()
	if len(rest) != 2 {
		writeln(stderr, "skyfind: expected a command and a name")
		fs.Usage()
		return exitError
	}
	command, name := rest[0], rest[1]

	env, err := buildEnvironment(configPath, workspace, searchPath, docsIndex, sourceRoot)
	if err != nil {
		writef(stderr, "skyfind: %v\n", err)
		return exitError
	}

	resolver := locate.NewResolver()

	switch command {
	case "module":
		return runModule(resolver, env, name, selector, listAll, interactive, stdout, stderr)
	case "symbol":
		return runSymbol(resolver, env, name, stdout, stderr)
	case "complete":
		return runComplete(resolver, env, name, stdout)
	default:
		writef(stderr, "skyfind: unknown command %q\n", command)
		fs.Usage()
		return exitError
	}
}

// buildEnvironment assembles the resolver environment from the
// discovered config and flag overrides.
func buildEnvironment(configPath, workspace, searchPath, docsIndex, sourceRoot string) (*locate.Environment, error) {
	var cfg *findconfig.Config
	var err error
	if configPath != "" {
		cfg, err = findconfig.LoadConfig(configPath)
	} else {
		cfg, _, err = findconfig.DiscoverConfig("")
	}
	if err != nil {
		return nil, err
	}

	if searchPath != "" {
		cfg.Search.Path = strings.Split(searchPath, ":")
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}
	if docsIndex != "" {
		cfg.Native.DocsIndex = docsIndex
	}
	if sourceRoot != "" {
		cfg.Native.SourceRoot = sourceRoot
	}

	env := &locate.Environment{
		SearchPath:    cfg.Search.Path,
		Suffixes:      cfg.Search.Suffixes,
		DocsPath:      cfg.Native.DocsIndex,
		SourceRoot:    cfg.Native.SourceRoot,
		WorkspaceRoot: cfg.Workspace,
	}
	if cfg.Native.DocsIndex != "" {
		// Without a live session, the docs index is the only native
		// capability signal the CLI has.
		env.IsNative = func(string) bool { return true }
	}
	return env, nil
}

func runModule(resolver *locate.Resolver, env *locate.Environment, name string, selector int, listAll, interactive bool, stdout, stderr io.Writer) int {
	if listAll {
		hits, err := resolver.LocateModule(env, name, locate.Options{Predicate: pathset.Readable})
		if err != nil {
			writef(stderr, "skyfind: %v\n", err)
			return exitError
		}
		if len(hits) == 0 {
			writef(stderr, "skyfind: library not found: %s\n", name)
			return exitError
		}
		for _, hit := range hits {
			writeln(stdout, hit)
		}
		return exitOK
	}

	loc, err := resolver.ResolveModule(env, name, locate.Options{
		Select:    selector,
		Predicate: pathset.Readable,
	})
	if err != nil {
		var amb *locate.AmbiguousError
		if errors.As(err, &amb) && interactive {
			writef(stderr, "skyfind: %s is ambiguous, pick one with -select:\n", name)
			for i, candidate := range amb.Candidates {
				writef(stderr, "  %d. %s\n", i+1, candidate)
			}
			return exitWarning
		}
		writef(stderr, "skyfind: %v\n", err)
		return exitError
	}

	writeln(stdout, loc.Path)
	if loc.Note != "" {
		writef(stderr, "skyfind: note: %s\n", loc.Note)
	}
	return exitOK
}

func runSymbol(resolver *locate.Resolver, env *locate.Environment, name string, stdout, stderr io.Writer) int {
	loc, err := resolver.ResolveSymbol(env, name)
	if err != nil {
		var dnf *locate.DefinitionNotFoundError
		if errors.As(err, &dnf) {
			// The file resolved; only the in-file search failed.
			writeln(stdout, dnf.File)
			writef(stderr, "skyfind: %v\n", err)
			return exitWarning
		}
		writef(stderr, "skyfind: %v\n", err)
		return exitError
	}

	if loc.HasOffset {
		writef(stdout, "%s:%d\n", loc.Path, loc.Offset)
	} else {
		writeln(stdout, loc.Path)
	}
	return exitOK
}

func runComplete(resolver *locate.Resolver, env *locate.Environment, prefix string, stdout io.Writer) int {
	for _, name := range resolver.Completions(env, prefix) {
		writeln(stdout, name)
	}
	return exitOK
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func writeln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
