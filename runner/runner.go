// Copyright 2024 The Loadkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package runner drives concurrent benchmark workers through a
// five-phase machine (setup, warmup, bench-entry, bench, teardown): a
// barrier-synchronized, generics-based, pausable, rate-limited,
// cancellable machine driven by a logical clock.
package runner // import "loadkit.dev/loadkit/runner"

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"fortio.org/log"

	"loadkit.dev/loadkit/report"
)

// Result is one worker's bench outcome, forwarded to the collector.
type Result struct {
	Report report.IterReport
	Err    error
}

// Runner drives BenchOpts.Concurrency workers of a BenchSuite through
// setup, optional warmup, and the measured bench phase, forwarding every
// bench-phase result (never warmup results) to Results().
type Runner[S any] struct {
	suite BenchSuite[S]
	opts  BenchOpts
	pause *PauseControl
	phase *PhaseWatch

	results chan Result

	runnerSeq       atomic.Uint64
	warmupSeq       atomic.Uint64
	warmupCompleted atomic.Uint64
	setupCompleted  atomic.Uint64

	limiter *rate.Limiter
}

// New constructs a Runner. pause and phase may be shared with an external
// controller (e.g. orchestrate.Run); pass NewPauseControl() and
// NewPhaseWatch() for standalone use.
func New[S any](suite BenchSuite[S], opts BenchOpts, pause *PauseControl, phase *PhaseWatch) (*Runner[S], error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	r := &Runner[S]{
		suite:   suite,
		opts:    opts,
		pause:   pause,
		phase:   phase,
		results: make(chan Result, opts.Concurrency*4),
	}
	if opts.Rate != nil {
		r.limiter = rate.NewLimiter(rate.Limit(*opts.Rate), 1)
	}
	return r, nil
}

// Results returns the channel bench-phase IterReports/errors arrive on.
// It is closed once every worker has finished teardown.
func (r *Runner[S]) Results() <-chan Result {
	return r.results
}

// Run drives the full phase machine to completion, or until ctx is
// cancelled. Setup failures abort the run and are returned wrapped in a
// WorkerSetupError; bench-phase workload errors are never returned here,
// they are forwarded through Results() instead.
func (r *Runner[S]) Run(ctx context.Context) error {
	defer close(r.results)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	setupBarrier := newBarrier(r.opts.Concurrency)
	benchBarrier := newBarrier(r.opts.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.opts.Concurrency; w++ {
		workerID := w
		g.Go(func() error {
			return r.runWorker(gctx, cancel, workerID, setupBarrier, benchBarrier)
		})
	}
	return g.Wait()
}

func (r *Runner[S]) runWorker(ctx context.Context, cancel context.CancelFunc, workerID int, setupBarrier, benchBarrier *barrier) error {
	state, err := r.suite.Setup(ctx, workerID)
	if err != nil {
		return &WorkerSetupError{WorkerID: workerID, Err: err}
	}

	done := r.setupCompleted.Add(1)
	r.phase.Publish(report.SetupPhase(done, uint64(r.opts.Concurrency)))

	if _, err := setupBarrier.Arrive(ctx); err != nil {
		return r.teardown(ctx, workerID, state, IterInfo{WorkerID: workerID})
	}

	info := IterInfo{WorkerID: workerID}
	if r.opts.Warmups > 0 {
		for ctx.Err() == nil {
			seq := r.warmupSeq.Add(1) - 1
			if seq >= r.opts.Warmups {
				break
			}
			if err := r.awaitPermit(ctx); err != nil {
				break
			}
			if err := r.pause.WaitIfPaused(ctx); err != nil {
				break
			}
			info.RunnerSeq = seq
			_, _ = r.suite.Bench(ctx, &state, info) // warmup outcome is discarded
			info.WorkerSeq++
			completed := r.warmupCompleted.Add(1)
			r.phase.Publish(report.WarmupPhase(completed, r.opts.Warmups))
		}
	}

	leader, err := benchBarrier.Arrive(ctx)
	if err != nil {
		return r.teardown(ctx, workerID, state, info)
	}
	if leader {
		r.phase.Publish(report.BenchOnlyPhase())
		if !r.pause.IsPaused() {
			r.opts.Clock.Resume()
		}
		if r.opts.Duration != nil {
			d := *r.opts.Duration
			go func() {
				r.opts.Clock.Sleep(ctx, d)
				if ctx.Err() == nil {
					cancel()
				}
			}()
		}
	}

	info.WorkerSeq = 0
	for ctx.Err() == nil {
		seq := r.runnerSeq.Add(1) - 1
		if r.opts.Iterations != nil && seq >= *r.opts.Iterations {
			break
		}
		if err := r.awaitPermit(ctx); err != nil {
			break
		}
		if err := r.pause.WaitIfPaused(ctx); err != nil {
			break
		}
		info.RunnerSeq = seq
		rep, benchErr := r.suite.Bench(ctx, &state, info)
		select {
		case r.results <- Result{Report: rep, Err: benchErr}:
		case <-ctx.Done():
			info.WorkerSeq++
			return r.teardown(ctx, workerID, state, info)
		}
		info.WorkerSeq++
	}
	return r.teardown(ctx, workerID, state, info)
}

func (r *Runner[S]) teardown(ctx context.Context, workerID int, state S, info IterInfo) error {
	if err := r.suite.Teardown(ctx, state, info); err != nil {
		log.Warnf("runner: worker %d teardown error: %v", workerID, err)
	}
	return nil
}

// awaitPermit blocks until the rate limiter (if any) grants a permit, or
// ctx is done. A nil limiter means unconstrained throughput.
func (r *Runner[S]) awaitPermit(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	now := r.opts.Clock.Now()
	reservation := r.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return &ConfigError{Reason: "rate limiter cannot grant a reservation for the configured rate"}
	}
	delay := reservation.DelayFrom(r.opts.Clock.Now())
	if delay <= 0 {
		return nil
	}
	r.opts.Clock.Sleep(ctx, delay)
	return ctx.Err()
}
