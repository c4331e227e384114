package runlock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"torex/internal/services"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "torex.lock")

	first, err := Acquire(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if first.Path() != path {
		t.Fatalf("unexpected lock path %q", first.Path())
	}

	_, err = Acquire(context.Background(), path, 0, nil)
	if !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected lock error while held, got %v", err)
	}

	first.Release()

	second, err := Acquire(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	second.Release()
}

func TestAcquireTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torex.lock")
	held, err := Acquire(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer held.Release()

	start := time.Now()
	_, err = Acquire(context.Background(), path, 300*time.Millisecond, nil)
	if !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected timeout lock error, got %v", err)
	}
	if time.Since(start) < 250*time.Millisecond {
		t.Fatal("expected Acquire to wait before giving up")
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torex.lock")
	held, err := Acquire(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		held.Release()
	}()

	next, err := Acquire(context.Background(), path, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	next.Release()
}

func TestAcquireCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torex.lock")
	held, err := Acquire(context.Background(), path, 0, nil)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Acquire(ctx, path, time.Minute, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	l.Release()
}
