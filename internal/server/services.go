package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// HTTPService serves an http.Handler until stopped.
type HTTPService struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewHTTPService creates an HTTPService listening on addr.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *HTTPService {
	return &HTTPService{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start listens and serves until Stop is called.
func (s *HTTPService) Start() error {
	s.logger.Info("http listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Stop drains in-flight requests for up to the shutdown timeout.
func (s *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}

// GRPCService serves a grpc.Server until stopped.
type GRPCService struct {
	srv             *grpc.Server
	addr            string
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewGRPCService creates a GRPCService listening on addr.
//
// Precondition: srv and logger must be non-nil.
func NewGRPCService(addr string, srv *grpc.Server, shutdownTimeout time.Duration, logger *zap.Logger) *GRPCService {
	return &GRPCService{srv: srv, addr: addr, shutdownTimeout: shutdownTimeout, logger: logger}
}

// Start listens and serves until Stop is called.
func (s *GRPCService) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serving grpc: %w", err)
	}
	return nil
}

// Stop waits for in-flight RPCs up to the shutdown timeout, then forces the stop.
func (s *GRPCService) Stop() {
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn("grpc graceful stop timed out")
		s.srv.Stop()
	}
}
