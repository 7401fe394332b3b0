package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a started subprocess.
type Process struct {
	cmd   *exec.Cmd
	start time.Time

	once   sync.Once
	result *Result
	err    error
}

// Spawn starts cmd and returns without waiting for it.
// If the context is canceled, SIGTERM is sent to the process group first,
// then SIGKILL after GracePeriod.
func Spawn(ctx context.Context, cmd Command) (*Process, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running user commands is the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr

	// Use process group so we can signal the entire tree
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Don't let exec.CommandContext kill with SIGKILL immediately
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	return &Process{cmd: c, start: time.Now()}, nil
}

// Pid returns the process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait reaps the process. A non-zero exit is reported through
// Result.ExitCode, not as an error; the error is set only when the process
// could not be waited on. Wait may be called more than once and always
// returns the first outcome.
func (p *Process) Wait() (*Result, error) {
	p.once.Do(func() {
		err := p.cmd.Wait()
		p.result = &Result{
			ExitCode: -1,
			Duration: time.Since(p.start),
		}
		if p.cmd.ProcessState != nil {
			p.result.ExitCode = p.cmd.ProcessState.ExitCode()
		}

		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.err = fmt.Errorf("process: wait %d: %w", p.cmd.Process.Pid, err)
		}
	})
	return p.result, p.err
}

// Terminate sends SIGTERM to the process group. Signaling a group that has
// already exited is not an error.
func (p *Process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

// Kill sends SIGKILL to the process group.
func (p *Process) Kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *Process) signal(sig syscall.Signal) error {
	err := syscall.Kill(-p.cmd.Process.Pid, sig)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("process: signal %s: %w", sig, err)
	}
	return nil
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
