package main

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/albertocavalcante/skyfind/internal/cli"
	"github.com/albertocavalcante/skyfind/internal/cmd/skyfind"
)

func main() {
	cmd := cli.Command{
		Name:    "skyfind",
		Summary: "Locate the source file defining a Starlark module or symbol.",
		Run:     run,
	}
	os.Exit(cli.Execute(cmd, os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) error {
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if code := skyfind.RunWithIO(args, interactive, stdout, stderr); code != cli.ExitOK {
		return cli.ExitCodeError(code)
	}
	return nil
}
