package cli

import (
	"errors"
	"fmt"
	"io"
)

// Command defines a single CLI entrypoint.
//
// Flag parsing belongs to the command itself; Execute only maps the
// returned error to a process exit code.
type Command struct {
	Name    string
	Summary string
	Run     func(args []string, stdout, stderr io.Writer) error
}

// ExitCodeError carries an explicit exit code out of a command run.
// The command is expected to have written its own diagnostics; Execute
// returns the code without printing anything further.
type ExitCodeError int

func (e ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

// Execute runs the command and returns a process exit code.
func Execute(cmd Command, args []string, stdout, stderr io.Writer) int {
	if cmd.Run == nil {
		Writef(stderr, "%s: no command configured\n", cmd.Name)
		return ExitError
	}

	if err := cmd.Run(args, stdout, stderr); err != nil {
		var code ExitCodeError
		if errors.As(err, &code) {
			return int(code)
		}
		Writef(stderr, "%s: %v\n", cmd.Name, err)
		return ExitError
	}

	return ExitOK
}
