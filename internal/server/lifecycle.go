// Package server coordinates the long-running pieces of the game binary.
// Services start together and stop in reverse registration order when the
// first of them fails or a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until the service exits;
// Stop asks it to exit and may return before Start does.
type Service interface {
	Start() error
	Stop()
}

// Lifecycle runs a fixed set of named services.
//
// Register every service before calling Run; Add is not safe to call
// concurrently with Run.
type Lifecycle struct {
	logger *zap.Logger
	names  []string
	svcs   []Service
}

// NewLifecycle creates an empty Lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Services start in registration order and
// stop in the reverse of it.
func (l *Lifecycle) Add(name string, svc Service) {
	l.names = append(l.names, name)
	l.svcs = append(l.svcs, svc)
}

// Run starts every registered service and blocks until one of them returns
// an error, the context is cancelled, or SIGINT/SIGTERM arrives. All
// services are stopped before Run returns.
//
// Postcondition: Returns the first service error, or nil on a signalled or
// cancelled shutdown.
func (l *Lifecycle) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, len(l.svcs))
	for i := range l.svcs {
		name, svc := l.names[i], l.svcs[i]
		go func() {
			l.logger.Info("service starting", zap.String("service", name))
			if err := svc.Start(); err != nil {
				failed <- fmt.Errorf("service %s: %w", name, err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		l.logger.Info("shutdown requested")
	case runErr = <-failed:
		l.logger.Error("service failed, shutting down", zap.Error(runErr))
	}

	for i := len(l.svcs) - 1; i >= 0; i-- {
		begin := time.Now()
		l.svcs[i].Stop()
		l.logger.Info("service stopped",
			zap.String("service", l.names[i]),
			zap.Duration("elapsed", time.Since(begin)),
		)
	}
	return runErr
}
