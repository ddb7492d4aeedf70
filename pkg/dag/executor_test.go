// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorRunsLevelsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) StageFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	e := NewExecutor(0, nil)
	e.Register("a", record("a"))
	e.Register("b", record("b"))
	e.Register("c", record("c"))

	results, err := e.RunPlan(context.Background(), [][]string{{"a", "b"}, {"c"}})
	if err != nil {
		t.Fatalf("RunPlan failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if order[len(order)-1] != "c" {
		t.Errorf("level 1 stage ran before level 0 drained: %v", order)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("stage %s failed: %v", r.Stage, r.Err)
		}
	}
}

func TestExecutorLevelStagesRunConcurrently(t *testing.T) {
	var inflight, peak int32
	stage := func(ctx context.Context) error {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return nil
	}

	e := NewExecutor(0, nil)
	e.Register("x", stage)
	e.Register("y", stage)
	e.Register("z", stage)

	if _, err := e.RunPlan(context.Background(), [][]string{{"x", "y", "z"}}); err != nil {
		t.Fatalf("RunPlan failed: %v", err)
	}
	if atomic.LoadInt32(&peak) < 2 {
		t.Error("stages in the same level should overlap")
	}
}

func TestExecutorFailureStopsLaterLevels(t *testing.T) {
	var ran atomic.Bool

	e := NewExecutor(0, nil)
	e.Register("ok", func(ctx context.Context) error { return nil })
	e.Register("boom", func(ctx context.Context) error { return errors.New("stage exploded") })
	e.Register("downstream", func(ctx context.Context) error { ran.Store(true); return nil })

	results, err := e.RunPlan(context.Background(), [][]string{{"boom", "ok"}, {"downstream"}})
	if err == nil {
		t.Fatal("expected error from failed stage")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should name the failed stage: %v", err)
	}
	if ran.Load() {
		t.Error("downstream level must not run after a failed level")
	}

	// The failing level itself still drains completely.
	if len(results) != 2 {
		t.Errorf("got %d results for the failed level, want 2", len(results))
	}
}

func TestExecutorMissingStageImplementation(t *testing.T) {
	e := NewExecutor(0, nil)
	_, err := e.RunPlan(context.Background(), [][]string{{"ghost"}})
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("missing implementation should fail the plan, got %v", err)
	}
}

func TestExecutorStageTimeout(t *testing.T) {
	e := NewExecutor(20*time.Millisecond, nil)
	e.Register("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	_, err := e.RunPlan(context.Background(), [][]string{{"slow"}})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("stage timeout not enforced")
	}
}
