package main

import (
	"errors"
	"os"
	"sync"
	"time"
)

// Interrupter broadcasts interrupt requests to every blocking call that is
// in flight at the moment Interrupt is called.
type Interrupter struct {
	mu    sync.Mutex
	ch    chan struct{}
	fired uint64
}

func NewInterrupter() *Interrupter {
	return &Interrupter{ch: make(chan struct{})}
}

// Done returns a channel that is closed by the next call to Interrupt.
func (i *Interrupter) Done() <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ch
}

// Interrupt wakes all current waiters and starts a new generation.
func (i *Interrupter) Interrupt() {
	i.mu.Lock()
	defer i.mu.Unlock()
	close(i.ch)
	i.ch = make(chan struct{})
	i.fired++
}

// Fired returns how many times Interrupt has been called.
func (i *Interrupter) Fired() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.fired
}

// deadliner is implemented by net.Conn and *net.TCPListener.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// aLongTimeAgo is a non-zero time in the past, used to wake a blocked call.
var aLongTimeAgo = time.Unix(1, 0)

// interruptible runs f and, if intr fires while f is blocked, forces f to
// return by expiring d's deadline. The resulting timeout is reported as an
// interruption of op. The deadline is cleared again before returning.
func interruptible[T any](intr *Interrupter, d deadliner, op string, f func() (T, error)) (T, error) {
	if intr == nil || d == nil {
		return f()
	}
	wait := intr.Done()
	done := make(chan struct{})
	fired := make(chan bool, 1)
	go func() {
		select {
		case <-wait:
			d.SetDeadline(aLongTimeAgo)
			fired <- true
		case <-done:
			fired <- false
		}
	}()
	v, err := f()
	close(done)
	if <-fired {
		d.SetDeadline(time.Time{})
		if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
			return v, interruptedError(op)
		}
	}
	return v, err
}
