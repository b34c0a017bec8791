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

package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/status"
)

var errSetupBoom = errors.New("setup boom")

// countingSuite is a trivial stateless workload that records every
// runner_seq it was handed, for invariant checks.
type countingSuite struct {
	mu   sync.Mutex
	seen []uint64
}

func (c *countingSuite) Bench(ctx context.Context, info IterInfo) (report.IterReport, error) {
	c.mu.Lock()
	c.seen = append(c.seen, info.RunnerSeq)
	c.mu.Unlock()
	return report.IterReport{Duration: time.Microsecond, Status: status.SuccessStatus(0), Items: 1}, nil
}

func drain(t *testing.T, r *Runner[struct{}]) []Result {
	t.Helper()
	var out []Result
	for res := range r.Results() {
		out = append(out, res)
	}
	return out
}

func TestRunnerSequenceCompleteness(t *testing.T) {
	suite := &countingSuite{}
	iters := uint64(50)
	opts := BenchOpts{Concurrency: 4, Iterations: &iters}
	r, err := New[struct{}](Adapt(suite), opts, NewPauseControl(), NewPhaseWatch())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go func() {
		if err := r.Run(context.Background()); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	results := drain(t, r)
	if len(results) != int(iters) {
		t.Fatalf("expected %d results, got %d", iters, len(results))
	}
	suite.mu.Lock()
	defer suite.mu.Unlock()
	if len(suite.seen) != int(iters) {
		t.Fatalf("expected %d bench calls, got %d", iters, len(suite.seen))
	}
	gotSeqs := make(map[uint64]bool, iters)
	for _, s := range suite.seen {
		if s >= iters {
			t.Fatalf("runner_seq %d out of range [0,%d)", s, iters)
		}
		gotSeqs[s] = true
	}
	if len(gotSeqs) != int(iters) {
		t.Fatalf("expected %d distinct runner_seq values, got %d (gaps or dupes)", iters, len(gotSeqs))
	}
}

func TestRunnerWarmupExclusion(t *testing.T) {
	suite := &countingSuite{}
	iters := uint64(5)
	opts := BenchOpts{Concurrency: 2, Iterations: &iters, Warmups: 10}
	r, err := New[struct{}](Adapt(suite), opts, NewPauseControl(), NewPhaseWatch())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go func() {
		if err := r.Run(context.Background()); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	results := drain(t, r)
	if len(results) != int(iters) {
		t.Fatalf("warmup iterations leaked into results: expected %d, got %d", iters, len(results))
	}
}

func TestRunnerPhaseMonotonicity(t *testing.T) {
	suite := &countingSuite{}
	iters := uint64(20)
	opts := BenchOpts{Concurrency: 3, Iterations: &iters, Warmups: 5}
	phase := NewPhaseWatch()
	r, err := New[struct{}](Adapt(suite), opts, NewPauseControl(), phase)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var observed []report.PhaseKind
	var mu sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		last := report.PhasePending
		for {
			p, err := phase.Changed(ctx)
			if err != nil {
				return
			}
			if p.Kind != last {
				mu.Lock()
				observed = append(observed, p.Kind)
				mu.Unlock()
				last = p.Kind
			}
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(context.Background()) }()
	for range r.Results() {
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // let the watcher goroutine observe the final transition
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(observed) == 0 {
		t.Fatalf("expected at least one phase transition")
	}
	rank := map[report.PhaseKind]int{
		report.PhaseSetup:  1,
		report.PhaseWarmup: 2,
		report.PhaseBench:  3,
	}
	prev := 0
	for _, k := range observed {
		if k == report.PhasePending {
			continue
		}
		if rank[k] < prev {
			t.Fatalf("phase regression observed: %v", observed)
		}
		prev = rank[k]
	}
	if observed[len(observed)-1] != report.PhaseBench {
		t.Fatalf("expected run to end in Bench phase, got %v", observed)
	}
}

func TestRunnerRespectsDuration(t *testing.T) {
	suite := &countingSuite{}
	d := 30 * time.Millisecond
	opts := BenchOpts{Concurrency: 2, Duration: &d}
	r, err := New[struct{}](Adapt(suite), opts, NewPauseControl(), NewPhaseWatch())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	for range r.Results() {
	}
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("duration deadline did not stop the run promptly: %v", elapsed)
	}
}

func TestRunnerConfigErrorOnZeroConcurrency(t *testing.T) {
	suite := &countingSuite{}
	_, err := New[struct{}](Adapt(suite), BenchOpts{Concurrency: 0}, NewPauseControl(), NewPhaseWatch())
	if err == nil {
		t.Fatalf("expected a ConfigError for zero concurrency")
	}
}

func TestRunnerWorkerSetupErrorAbortsRun(t *testing.T) {
	var calls atomic.Int32
	s := failingSetupSuite{calls: &calls}
	iters := uint64(10)
	r, err := New[int](s, BenchOpts{Concurrency: 2, Iterations: &iters}, NewPauseControl(), NewPhaseWatch())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go func() {
		for range r.Results() {
		}
	}()
	err = r.Run(context.Background())
	if err == nil {
		t.Fatalf("expected a WorkerSetupError")
	}
	var setupErr *WorkerSetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected *WorkerSetupError, got %T: %v", err, err)
	}
}

type failingSetupSuite struct {
	calls *atomic.Int32
}

func (f failingSetupSuite) Setup(ctx context.Context, workerID int) (int, error) {
	f.calls.Add(1)
	return 0, errSetupBoom
}

func (f failingSetupSuite) Bench(ctx context.Context, state *int, info IterInfo) (report.IterReport, error) {
	return report.IterReport{}, nil
}

func (f failingSetupSuite) Teardown(ctx context.Context, state int, info IterInfo) error {
	return nil
}
