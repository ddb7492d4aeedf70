// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// StageFunc executes one pipeline stage.
type StageFunc func(ctx context.Context) error

// StageResult records one stage's outcome within a plan run.
type StageResult struct {
	Stage    string
	Level    int
	Duration time.Duration
	Err      error
}

// Executor runs a level-grouped execution plan. Stages within a level run
// concurrently; a level must fully drain before the next one starts. A
// stage failure is accounted in its result and never cancels siblings
// already in flight, but no later level runs after a failed one since its
// members depend on the failure.
type Executor struct {
	stages       map[string]StageFunc
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewExecutor creates an executor. stageTimeout bounds each stage
// invocation; zero means no per-stage bound beyond the caller's context.
func NewExecutor(stageTimeout time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		stages:       make(map[string]StageFunc),
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

// Register binds a stage name to its implementation.
func (e *Executor) Register(name string, fn StageFunc) {
	e.stages[name] = fn
}

// RunPlan executes the plan. It returns every stage's result in execution
// order (levels in order, alphabetical within a level) plus an error when
// any stage failed or was missing an implementation.
func (e *Executor) RunPlan(ctx context.Context, levels [][]string) ([]StageResult, error) {
	var results []StageResult
	var failed []string

	for levelIdx, level := range levels {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		e.logger.Info("kurt.dag.level_start",
			"level", levelIdx,
			"stages", strings.Join(level, ", "))

		var mu sync.Mutex
		var g errgroup.Group
		levelResults := make([]StageResult, 0, len(level))

		for _, name := range level {
			name := name
			fn, ok := e.stages[name]
			if !ok {
				levelResults = append(levelResults, StageResult{
					Stage: name,
					Level: levelIdx,
					Err:   fmt.Errorf("no implementation registered for stage %q", name),
				})
				continue
			}

			g.Go(func() error {
				stageCtx := ctx
				if e.stageTimeout > 0 {
					var cancel context.CancelFunc
					stageCtx, cancel = context.WithTimeout(ctx, e.stageTimeout)
					defer cancel()
				}

				start := time.Now()
				err := fn(stageCtx)
				res := StageResult{
					Stage:    name,
					Level:    levelIdx,
					Duration: time.Since(start),
					Err:      err,
				}

				mu.Lock()
				levelResults = append(levelResults, res)
				mu.Unlock()

				if err != nil {
					e.logger.Warn("kurt.dag.stage_failed",
						"stage", name,
						"level", levelIdx,
						"error", err)
				}
				return nil
			})
		}
		_ = g.Wait()

		sort.Slice(levelResults, func(i, j int) bool {
			return levelResults[i].Stage < levelResults[j].Stage
		})
		results = append(results, levelResults...)

		for _, r := range levelResults {
			if r.Err != nil {
				failed = append(failed, r.Stage)
			}
		}
		if len(failed) > 0 {
			return results, fmt.Errorf("stage(s) failed at level %d: %s", levelIdx, strings.Join(failed, ", "))
		}
	}
	return results, nil
}
