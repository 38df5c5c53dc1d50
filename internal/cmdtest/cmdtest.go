// Package cmdtest provides a testscript-based test harness for skyfind
// CLI tools.
//
// It uses txtar format test files to specify input files and expected
// outputs, making it easy to write comprehensive CLI tests.
//
// Example test file (testdata/skyfind/resolve.txtar):
//
//	# Resolve a module name against the search path
//	exec skyfind -path . module json
//	stdout 'json\.star'
//
//	-- json.star --
//	def encode(v):
//	    pass
package cmdtest

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/albertocavalcante/skyfind/internal/cmd/skyfind"
)

// Run executes the testscript tests in the given directory.
func Run(t *testing.T, dir string) {
	testscript.Run(t, testscript.Params{
		Dir: dir,
	})
}

// Main is the TestMain function that should be called from test files.
// It sets up the CLI tools as testscript commands.
func Main(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"skyfind": wrapRun(skyfind.Run),
	}))
}

// wrapRun wraps a Run(args []string) int function to func() int for testscript.
// The args are taken from os.Args[1:].
func wrapRun(run func(args []string) int) func() int {
	return func() int {
		return run(os.Args[1:])
	}
}
