package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

func main() {
	flag.Set("logtostderr", "true")
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Exitf("Invalid configuration: %v", err)
	}
	defer log.Flush()

	logger := glogLogger{}
	interrupts := NewInterrupter()
	policy := NewShutdownPolicy(shutdownTolerance, interrupts, logger, abortProcess)
	srv := NewServer(cfg, logger, interrupts)

	// SIGINT feeds the escalation policy; SIGTERM asks for a graceful stop.
	intr := make(chan os.Signal, shutdownTolerance)
	signal.Notify(intr, os.Interrupt)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	log.Infof("Echo server (%s) starting on %s", cfg.Variant, cfg.Addr())
	if err := run(ctx, srv, policy, intr, cfg.GracePeriod); err != nil {
		log.Errorf("Server failed: %v", err)
		log.Flush()
		os.Exit(exitFailure)
	}
	log.Info("Server stopped")
}

// run serves until ctx is done or the server fails, then waits up to grace
// for active connections to finish. Signals on intr are fed to policy for
// the whole call, the drain included.
func run(ctx context.Context, srv *Server, policy *ShutdownPolicy, intr <-chan os.Signal, grace time.Duration) error {
	watchCtx, stopWatch := context.WithCancel(context.Background())
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		policy.Watch(watchCtx, intr)
	}()
	defer func() {
		stopWatch()
		<-watchDone
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			srv.logger.Log(LevelInfo, "Shutdown signal received")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
