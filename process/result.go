package process

import "time"

// Result holds the status of a reaped subprocess.
type Result struct {
	// ExitCode is the process exit code. -1 if the process was killed by a signal.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}
