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

// Package report holds the data model a collector produces and an
// orchestrator prints or compares against a baseline: one outcome per
// iteration, folded into a run-wide summary, plus the phase/run-state
// vocabulary a live dashboard would poll.
package report // import "loadkit.dev/loadkit/report"

import (
	"time"

	"loadkit.dev/loadkit/histogram"
	"loadkit.dev/loadkit/stats"
	"loadkit.dev/loadkit/status"
)

// IterReport is the outcome of a single bench iteration as returned by a
// workload's Bench method.
type IterReport struct {
	Duration time.Duration
	Status   status.Status
	Bytes    uint64
	Items    uint64
}

// BenchReport is the full summary of a completed (or in-progress) bench
// phase: a latency histogram, additive stats, per-status and per-error
// counts, and the elapsed logical clock time of the phase (pauses
// excluded).
type BenchReport struct {
	Concurrency int
	Hist        *histogram.LatencyHistogram
	Stats       *stats.IterStats
	StatusDist  map[status.Status]uint64
	ErrorDist   map[string]uint64
	Elapsed     time.Duration
}

// NewBenchReport creates an empty report for a run with the given
// concurrency.
func NewBenchReport(concurrency int) *BenchReport {
	return &BenchReport{
		Concurrency: concurrency,
		Hist:        histogram.New(),
		Stats:       stats.NewIterStats(),
		StatusDist:  make(map[status.Status]uint64),
		ErrorDist:   make(map[string]uint64),
	}
}

// Record folds one iteration's outcome into the report. A workload error
// touches only ErrorDist, keyed by its Error() string: the histogram,
// additive stats and status distribution are workload-success-only views,
// per §4.7 ("on each error it increments the error_dist bucket" -- nothing
// else). Record returns the histogram's error if the latency sample does
// not fit its domain (ErrLatencyTooLarge), which the caller should treat
// as fatal to collection per §4.2/§7.
func (r *BenchReport) Record(it IterReport, err error) error {
	if err != nil {
		r.ErrorDist[err.Error()]++
		return nil
	}
	if herr := r.Hist.Record(it.Duration); herr != nil {
		return herr
	}
	r.Stats.Record(it.Status, it.Items, it.Bytes, it.Duration)
	r.StatusDist[it.Status]++
	return nil
}

// SuccessRatio returns the fraction of iterations classified as
// status.Success, mirroring stats.IterStats.SuccessRatio for callers that
// only hold a BenchReport.
func (r *BenchReport) SuccessRatio() float64 {
	return r.Stats.SuccessRatio()
}

// PhaseKind identifies which stage of the five-phase run machine a
// BenchPhase describes.
type PhaseKind int

const (
	// PhasePending means the run has not started.
	PhasePending PhaseKind = iota
	// PhaseSetup means workers are running their Setup hook.
	PhaseSetup
	// PhaseWarmup means warmup iterations are executing (discarded results).
	PhaseWarmup
	// PhaseBench means the main, measured benchmark phase is running.
	PhaseBench
)

func (k PhaseKind) String() string {
	switch k {
	case PhasePending:
		return "pending"
	case PhaseSetup:
		return "setup"
	case PhaseWarmup:
		return "warmup"
	case PhaseBench:
		return "bench"
	default:
		return "unknown"
	}
}

// BenchPhase is a point-in-time snapshot of run progress, pollable by a
// live dashboard. Done/Total are meaningful only for Setup and Warmup;
// both are zero for Pending and Bench.
type BenchPhase struct {
	Kind  PhaseKind
	Done  uint64
	Total uint64
}

// PendingPhase is the initial phase before a run starts.
func PendingPhase() BenchPhase { return BenchPhase{Kind: PhasePending} }

// SetupPhase reports setup progress across workers.
func SetupPhase(done, total uint64) BenchPhase {
	return BenchPhase{Kind: PhaseSetup, Done: done, Total: total}
}

// WarmupPhase reports warmup iteration progress.
func WarmupPhase(done, total uint64) BenchPhase {
	return BenchPhase{Kind: PhaseWarmup, Done: done, Total: total}
}

// BenchOnlyPhase is the main measured phase; it carries no progress
// counters since it may be duration-bounded rather than iteration-bounded.
func BenchOnlyPhase() BenchPhase { return BenchPhase{Kind: PhaseBench} }

// RunState is the pause/resume/terminal state of a run, orthogonal to
// BenchPhase: a run can be Paused during Setup, Warmup or Bench alike.
type RunState int

const (
	// RunStateRunning is the default, actively-progressing state.
	RunStateRunning RunState = iota
	// RunStatePaused means the run is frozen pending a Resume call.
	RunStatePaused
	// RunStateFinished is terminal: the run has completed or been cancelled.
	RunStateFinished
)

func (s RunState) String() string {
	switch s {
	case RunStateRunning:
		return "running"
	case RunStatePaused:
		return "paused"
	case RunStateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
