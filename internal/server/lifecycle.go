// Package server runs the arena's long-lived services: the HTTP API, the gRPC
// health endpoint and background tasks, with graceful shutdown on signals.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service represents a long-running component that can be started and stopped.
type Service interface {
	// Start begins the service. It blocks until the service is stopped or fails.
	Start() error
	// Stop gracefully stops the service.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// Task is background work that runs until its context is cancelled.
type Task func(ctx context.Context)

// Lifecycle manages the startup and shutdown of services and background tasks.
// Services are started in order and stopped in reverse order; tasks are
// cancelled after every service has stopped.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	tasks    []namedTask
	mu       sync.Mutex
}

type namedService struct {
	name    string
	service Service
}

type namedTask struct {
	name string
	run  Task
}

// NewLifecycle creates a new Lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// AddTask registers a named background task.
//
// Precondition: name must be non-empty; run must be non-nil.
func (l *Lifecycle) AddTask(name string, run Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, namedTask{name: name, run: run})
}

// Run starts every task and service and blocks until SIGINT/SIGTERM, ctx
// cancellation, or the first service failure. Everything is then stopped.
//
// Postcondition: All services are stopped and all tasks have returned. The
// returned error is the first service failure, if any.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskCtx, cancelTasks := context.WithCancel(context.Background())
	var tasks sync.WaitGroup
	for _, nt := range l.tasks {
		tasks.Add(1)
		go func() {
			defer tasks.Done()
			l.logger.Info("starting task", zap.String("task", nt.name))
			nt.run(taskCtx)
		}()
	}

	errCh := make(chan error, len(l.services))
	for _, ns := range l.services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("services", len(l.services)),
		zap.Int("tasks", len(l.tasks)),
		zap.Duration("startup", time.Since(start)),
	)

	var runErr error
	select {
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(ctx)))
	}

	l.shutdown()
	cancelTasks()
	tasks.Wait()

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown() {
	shutdownStart := time.Now()
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", ns.name))
		ns.service.Stop()
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
