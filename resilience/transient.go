package resilience

import (
	"context"
	"errors"
	"syscall"
)

// Transient reports whether err is a resource shortage that tends to clear
// on its own: no free process slots, memory, or descriptors, or an
// executable still open for writing.
func Transient(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EAGAIN, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE, syscall.ETXTBSY} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
