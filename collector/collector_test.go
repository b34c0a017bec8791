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

package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"loadkit.dev/loadkit/clock"
	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/runner"
	"loadkit.dev/loadkit/status"
)

func TestSilentCollectorFoldsResultsAndErrors(t *testing.T) {
	results := make(chan runner.Result, 10)
	results <- runner.Result{Report: report.IterReport{Duration: time.Millisecond, Status: status.SuccessStatus(200), Items: 1}}
	results <- runner.Result{Report: report.IterReport{Duration: 2 * time.Millisecond, Status: status.ServerErrorStatus(500)}, Err: errors.New("boom")}
	close(results)

	clk := clock.New()
	c := NewSilentCollector(4, clk, results, func() {}, 10)
	rep, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The errored result carries a zero IterReport and must not be
	// counted: only the one successful iteration is folded into Stats.
	if rep.Stats.Overall.Iters != 1 {
		t.Fatalf("expected 1 iter (the error must not be counted), got %d", rep.Stats.Overall.Iters)
	}
	if rep.ErrorDist["boom"] != 1 {
		t.Fatalf("expected 1 boom error recorded")
	}
	if rep.Hist.IsEmpty() {
		t.Fatalf("expected histogram to be populated")
	}
	if clk.IsRunning() {
		t.Fatalf("expected collector to pause the clock on completion")
	}
}

func TestSilentCollectorSnapshotTracksOverall(t *testing.T) {
	results := make(chan runner.Result)
	clk := clock.New()
	c := NewSilentCollector(1, clk, results, func() {}, 4)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	for i := 0; i < 3; i++ {
		results <- runner.Result{Report: report.IterReport{Duration: time.Millisecond, Status: status.SuccessStatus(200), Items: 1}}
	}
	close(results)
	<-done

	snap := c.Snapshot()
	if snap.Overall.Overall.Iters != 3 {
		t.Fatalf("expected snapshot overall iters 3, got %d", snap.Overall.Overall.Iters)
	}
	if snap.Recent == nil {
		t.Fatalf("expected a recent snapshot")
	}
}

func TestSilentCollectorRespectsCancellation(t *testing.T) {
	results := make(chan runner.Result)
	clk := clock.New()
	cancelled := make(chan struct{})
	c := NewSilentCollector(1, clk, results, func() { close(cancelled) }, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("collector did not return after context cancellation")
	}
	select {
	case <-cancelled:
	default:
		t.Fatalf("expected cancel callback to be invoked")
	}
}
