package worker

import (
	"context"
	"testing"
	"time"
)

func TestReconcilerLifecycle(t *testing.T) {
	f := newFixture(t)
	r := NewReconciler(f.worker, 5*time.Millisecond)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Fatal("expected error on second start")
	}
	if !r.IsRunning() {
		t.Fatal("reconciler should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.sheet.Writes() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reconciler never exported")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.IsRunning() {
		t.Fatal("reconciler should be stopped")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestReconcilerRejectsZeroInterval(t *testing.T) {
	if err := NewReconciler(nil, 0).Start(context.Background()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
