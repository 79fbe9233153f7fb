package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
)

const (
	// recvBufferSize caps a single receive. The buffer holds one extra
	// byte for the terminator.
	recvBufferSize = 1024
	echoTerminator = '\n'
)

// conn is the worker that owns one accepted connection until it is closed.
// It holds no reference to the listener or the server.
type conn struct {
	rwc        net.Conn
	remoteAddr string
	logger     Logger
	interrupts *Interrupter
}

func newConn(rwc net.Conn, logger Logger, interrupts *Interrupter) *conn {
	remoteAddr := "unknown"
	if addr := rwc.RemoteAddr(); addr != nil {
		remoteAddr = addr.String()
	}
	return &conn{
		rwc:        rwc,
		remoteAddr: remoteAddr,
		logger:     logger,
		interrupts: interrupts,
	}
}

// serve reads from the connection and echoes every chunk to the log until
// the peer shuts down its side (nil) or a read fails (non-nil).
// The connection is closed exactly once on every path, panics included.
func (c *conn) serve() (err error) {
	defer func() {
		if cerr := c.rwc.Close(); cerr != nil {
			logf(c.logger, LevelWarning, "%s: close failed: %v", c.remoteAddr, cerr)
		}
	}()
	// A panic in one worker must not take down the process.
	defer func() {
		if r := recover(); r != nil {
			logf(c.logger, LevelError, "panic serving %v: %v\n%s", c.remoteAddr, r, debug.Stack())
			err = fmt.Errorf("panic serving %v: %v", c.remoteAddr, r)
		}
	}()

	buf := make([]byte, recvBufferSize+1)
	for {
		n, rerr := retryInterrupted(c.logger, "read", retryBudget, func() (int, error) {
			return c.read(buf[:recvBufferSize])
		})
		if n > 0 {
			buf[n] = echoTerminator
			c.logger.Log(LevelInfo, string(buf[:n+1]))
		}
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			logf(c.logger, LevelInfo, "%s: the other side orderly shut down the connection", c.remoteAddr)
			return nil
		}
		logf(c.logger, LevelError, "%s: read failed: %v", c.remoteAddr, rerr)
		return fmt.Errorf("read from %s: %w", c.remoteAddr, rerr)
	}
}

// read performs one interruptible receive. Bytes that arrived before an
// interruption are kept and the interruption is dropped.
func (c *conn) read(p []byte) (int, error) {
	n, err := interruptible(c.interrupts, c.rwc, "read", func() (int, error) {
		return c.rwc.Read(p)
	})
	if n > 0 && isInterrupted(err) {
		err = nil
	}
	return n, err
}
