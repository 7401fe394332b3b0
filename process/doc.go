// Package process spawns subprocesses with explicit stream bindings.
//
// A Command names the program and binds its stdin/stdout/stderr to caller
// supplied streams. When a binding is an *os.File (a pipe end, for
// example) the descriptor is handed to the child directly, with no copying
// goroutine in between. Spawn starts the child in its own process group;
// canceling the context sends SIGTERM to the group and SIGKILL after the
// grace period. Every started Process must be reaped with Wait.
package process
