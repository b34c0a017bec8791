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

package report

import (
	"errors"
	"testing"
	"time"

	"loadkit.dev/loadkit/status"
)

func TestBenchReportRecordFoldsAllFields(t *testing.T) {
	r := NewBenchReport(4)
	if err := r.Record(IterReport{Duration: 10 * time.Millisecond, Status: status.SuccessStatus(200), Items: 1, Bytes: 100}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record(IterReport{Duration: 20 * time.Millisecond, Status: status.ServerErrorStatus(500), Items: 1, Bytes: 50}, errors.New("boom")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if r.Hist.IsEmpty() {
		t.Fatalf("expected histogram to be populated")
	}
	// An errored iteration touches only ErrorDist: it carries a zero
	// IterReport (the workload never produced a real outcome), so it must
	// not be counted as an iteration, a status, or a latency sample.
	if r.Stats.Overall.Iters != 1 {
		t.Fatalf("expected 1 iter (the error must not be counted), got %d", r.Stats.Overall.Iters)
	}
	if r.StatusDist[status.SuccessStatus(200)] != 1 {
		t.Fatalf("expected 1 success status recorded")
	}
	if r.StatusDist[status.ServerErrorStatus(500)] != 0 {
		t.Fatalf("expected the errored call to leave no status_dist entry")
	}
	if r.ErrorDist["boom"] != 1 {
		t.Fatalf("expected error dist to tally the error string")
	}
	if ratio := r.SuccessRatio(); ratio != 1 {
		t.Fatalf("expected success ratio 1 (only the success was counted), got %v", ratio)
	}
}

func TestBenchReportRecordPropagatesLatencyTooLarge(t *testing.T) {
	r := NewBenchReport(1)
	if err := r.Record(IterReport{Duration: time.Hour * 2, Status: status.SuccessStatus(200)}, nil); err == nil {
		t.Fatalf("expected an error recording a latency outside the histogram's domain")
	}
}

func TestPhaseConstructors(t *testing.T) {
	p := SetupPhase(2, 4)
	if p.Kind != PhaseSetup || p.Done != 2 || p.Total != 4 {
		t.Fatalf("unexpected setup phase: %+v", p)
	}
	if PendingPhase().Kind != PhasePending {
		t.Fatalf("expected pending phase")
	}
	if BenchOnlyPhase().Kind != PhaseBench {
		t.Fatalf("expected bench phase")
	}
}

func TestRunStateStrings(t *testing.T) {
	cases := map[RunState]string{
		RunStateRunning:  "running",
		RunStatePaused:   "paused",
		RunStateFinished: "finished",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("state %d: got %q want %q", state, got, want)
		}
	}
}
