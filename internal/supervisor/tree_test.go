// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// probeService records how many times it was started and blocks until
// canceled, optionally failing the first N starts.
type probeService struct {
	name     string
	starts   atomic.Int64
	failures int64
}

func (p *probeService) Serve(ctx context.Context) error {
	n := p.starts.Add(1)
	if n <= p.failures {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *probeService) String() string { return p.name }

func newTestTree() *Tree {
	return NewTree(slog.New(slog.DiscardHandler), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
}

func TestTree_RunsServicesInBothLayers(t *testing.T) {
	tree := newTestTree()
	engineSvc := &probeService{name: "scheduler"}
	apiSvc := &probeService{name: "http-server"}
	tree.AddEngineService(engineSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return engineSvc.starts.Load() >= 1 && apiSvc.starts.Load() >= 1
	})

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTree_RestartsFailedService(t *testing.T) {
	tree := newTestTree()
	svc := &probeService{name: "scheduler", failures: 2}
	tree.AddEngineService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	waitFor(t, func() bool { return svc.starts.Load() >= 3 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
