package main

import (
	"context"
	"os"
	"sync"
)

// shutdownTolerance is how many interrupt signals are tolerated. The last
// one aborts the process.
const shutdownTolerance = 3

// ShutdownPolicy counts interrupt signals. Every signal interrupts the
// blocking calls in flight; once the tolerance is used up the abort
// function runs and the policy stays aborted for good.
//
// The accept loop does not consult the policy, so the only way a signal
// stops the process is by exhausting the tolerance.
type ShutdownPolicy struct {
	mu         sync.Mutex
	remaining  int
	aborted    bool
	interrupts *Interrupter
	logger     Logger
	abort      func()
}

func NewShutdownPolicy(tolerance int, interrupts *Interrupter, logger Logger, abort func()) *ShutdownPolicy {
	if tolerance <= 0 {
		tolerance = shutdownTolerance
	}
	if logger == nil {
		logger = glogLogger{}
	}
	return &ShutdownPolicy{
		remaining:  tolerance,
		interrupts: interrupts,
		logger:     logger,
		abort:      abort,
	}
}

// Signal records one recognized interrupt and returns the remaining
// tolerance. It is a no-op once the policy has aborted.
func (p *ShutdownPolicy) Signal() int {
	p.mu.Lock()
	if p.aborted {
		p.mu.Unlock()
		return 0
	}
	p.remaining--
	remaining := p.remaining
	if remaining == 0 {
		p.aborted = true
	}
	p.mu.Unlock()

	if p.interrupts != nil {
		p.interrupts.Interrupt()
		logf(p.logger, LevelDebug, "interrupt generation %d", p.interrupts.Fired())
	}
	if remaining > 0 {
		logf(p.logger, LevelWarning, "interrupt received, %d more to abort", remaining)
		return remaining
	}
	logf(p.logger, LevelError, "interrupt received, aborting")
	if p.abort != nil {
		p.abort()
	}
	return 0
}

func (p *ShutdownPolicy) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining
}

func (p *ShutdownPolicy) Aborted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aborted
}

// Watch feeds every signal from sigs into the policy until ctx is done or
// sigs is closed.
func (p *ShutdownPolicy) Watch(ctx context.Context, sigs <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-sigs:
			if !ok {
				return nil
			}
			logf(p.logger, LevelDebug, "signal: %v", sig)
			p.Signal()
		}
	}
}

// abortProcess terminates immediately, skipping deferred cleanup.
func abortProcess() {
	os.Exit(exitAborted)
}
