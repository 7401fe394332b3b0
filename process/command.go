package process

import (
	"io"
	"time"
)

// DefaultShell runs shell command strings.
const DefaultShell = "sh"

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin is the child's standard input. Nil reads from the null device.
	Stdin io.Reader
	// Stdout is the child's standard output. Nil discards.
	Stdout io.Writer
	// Stderr is the child's standard error. Nil discards.
	Stderr io.Writer
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// Shell returns a Command running script through shell -c.
// An empty shell selects DefaultShell.
func Shell(shell, script string) Command {
	if shell == "" {
		shell = DefaultShell
	}
	return Command{Binary: shell, Args: []string{"-c", script}}
}
