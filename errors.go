package main

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	ErrServerClosed = errors.New("server closed")
)

const (
	exitFailure = 1
	// exitAborted mirrors a process killed by SIGABRT.
	exitAborted = 128 + 6
)

// isInterrupted reports whether err means a blocking call was broken out of
// before it completed, as opposed to a genuine I/O failure.
// Both real EINTR from the kernel and interruptions raised by an Interrupter
// carry syscall.EINTR in their chain.
func isInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

func interruptedError(op string) error {
	return fmt.Errorf("%s: %w", op, syscall.EINTR)
}
