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

	"loadkit.dev/loadkit/report"
)

// IterInfo identifies one iteration: which worker ran it, that worker's
// own attempt count within the current phase, and the globally issued
// sequence number for that phase.
type IterInfo struct {
	WorkerID  int
	WorkerSeq uint64
	RunnerSeq uint64
}

// BenchSuite is the stateful workload contract. State is created once per
// worker by Setup and threaded through every Bench/Teardown call for that
// worker.
type BenchSuite[S any] interface {
	// Setup builds this worker's private state. A non-nil error aborts the
	// whole run with a WorkerSetupError.
	Setup(ctx context.Context, workerID int) (S, error)
	// Bench runs one iteration and reports its outcome.
	Bench(ctx context.Context, state *S, info IterInfo) (report.IterReport, error)
	// Teardown releases worker state. Errors are logged, never fatal.
	Teardown(ctx context.Context, state S, info IterInfo) error
}

// StatelessBenchSuite is the contract for workloads with no per-worker
// state, e.g. a pure function benchmark.
type StatelessBenchSuite interface {
	Bench(ctx context.Context, info IterInfo) (report.IterReport, error)
}

// statelessAdapter lifts a StatelessBenchSuite to a BenchSuite[struct{}] so
// Runner only has to know one interface shape.
type statelessAdapter struct {
	inner StatelessBenchSuite
}

// Adapt wraps a StatelessBenchSuite as a BenchSuite[struct{}].
func Adapt(s StatelessBenchSuite) BenchSuite[struct{}] {
	return &statelessAdapter{inner: s}
}

func (a *statelessAdapter) Setup(ctx context.Context, workerID int) (struct{}, error) {
	return struct{}{}, nil
}

func (a *statelessAdapter) Bench(ctx context.Context, _ *struct{}, info IterInfo) (report.IterReport, error) {
	return a.inner.Bench(ctx, info)
}

func (a *statelessAdapter) Teardown(ctx context.Context, _ struct{}, _ IterInfo) error {
	return nil
}
