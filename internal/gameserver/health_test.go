package gameserver_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/arena/internal/gameserver"
)

type flakyChecker struct{ down atomic.Bool }

func (f *flakyChecker) Health(context.Context, time.Duration) error {
	if f.down.Load() {
		return errors.New("db down")
	}
	return nil
}

func TestHealthReporter_Probe(t *testing.T) {
	checker := &flakyChecker{}
	h := gameserver.NewHealthReporter(checker, time.Hour, zaptest.NewLogger(t))

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Probe(context.Background()))
	checker.down.Store(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Probe(context.Background()))
}

func TestHealthReporter_RunStopsWithContext(t *testing.T) {
	h := gameserver.NewHealthReporter(&flakyChecker{}, 10*time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}
