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

package compare

import (
	"math"
	"testing"
	"time"

	"loadkit.dev/loadkit/baseline"
	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/status"
)

func reportWithIters(n uint64, elapsed time.Duration) *report.BenchReport {
	rep := report.NewBenchReport(1)
	for i := uint64(0); i < n; i++ {
		rep.Record(report.IterReport{Duration: time.Millisecond, Status: status.SuccessStatus(0), Items: 1}, nil)
	}
	rep.Elapsed = elapsed
	return rep
}

func baselineWithItersRate(rate, successRatio float64) *baseline.Baseline {
	return &baseline.Baseline{
		SchemaVersion: baseline.CurrentSchemaVersion,
		Report: baseline.Report{
			Summary: baseline.Summary{
				SuccessRatio: successRatio,
				Iters:        baseline.RateCount{Rate: rate},
			},
		},
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// current iters_rate=1100, baseline=1000, threshold 1% -> Improved, delta ~= +10%.
func TestCompareImproved(t *testing.T) {
	cur := reportWithIters(1100, time.Second)
	base := baselineWithItersRate(1000, 1.0)
	c := Compare(cur, base, 1, []RegressionMetric{ItersRate})
	d, ok := c.Deltas[ItersRate]
	if !ok {
		t.Fatalf("expected ItersRate delta to be present")
	}
	if d.Status != Improved {
		t.Errorf("status = %v, want Improved", d.Status)
	}
	if d.DeltaPercent == nil || !approxEqual(*d.DeltaPercent, 10, 0.5) {
		t.Errorf("delta_percent = %v, want ~+10", d.DeltaPercent)
	}
	if c.Verdict != VerdictImproved {
		t.Errorf("verdict = %v, want Improved", c.Verdict)
	}
}

// current=909, baseline=1100, threshold 1% -> Regressed, delta ~= -17.4%.
func TestCompareRegressed(t *testing.T) {
	cur := reportWithIters(909, time.Second)
	base := baselineWithItersRate(1100, 1.0)
	c := Compare(cur, base, 1, []RegressionMetric{ItersRate})
	d := c.Deltas[ItersRate]
	if d.Status != Regressed {
		t.Errorf("status = %v, want Regressed", d.Status)
	}
	if d.DeltaPercent == nil || !approxEqual(*d.DeltaPercent, -17.4, 0.2) {
		t.Errorf("delta_percent = %v, want ~-17.4", d.DeltaPercent)
	}
	if c.Verdict != VerdictRegressed {
		t.Errorf("verdict = %v, want Regressed", c.Verdict)
	}
}

// iters improved, success regressed -> Mixed.
func TestCompareMixed(t *testing.T) {
	cur := reportWithIters(1100, time.Second)
	// Force a success ratio well below baseline by recording 100 failures:
	// 1100/1200 is about -8.3%, beyond the 1% threshold, while iters_rate
	// rises to 1200/s (+20%).
	for i := 0; i < 100; i++ {
		cur.Record(report.IterReport{Duration: time.Millisecond, Status: status.ServerErrorStatus(500)}, nil)
	}
	base := baselineWithItersRate(1000, 1.0)
	c := Compare(cur, base, 1, []RegressionMetric{ItersRate, SuccessRatio})
	if c.Verdict != VerdictMixed {
		t.Errorf("verdict = %v, want Mixed", c.Verdict)
	}
}

// Swapping current/baseline negates delta_percent (modulo rounding) and
// inverts Improved/Regressed.
func TestDeltaSymmetry(t *testing.T) {
	cur := reportWithIters(1200, time.Second)
	base := baselineWithItersRate(1000, 1.0)
	forward := Compare(cur, base, 0, []RegressionMetric{ItersRate}).Deltas[ItersRate]

	swappedCur := reportWithIters(1000, time.Second)
	swappedBase := baselineWithItersRate(1200, 1.0)
	backward := Compare(swappedCur, swappedBase, 0, []RegressionMetric{ItersRate}).Deltas[ItersRate]

	if forward.Status == backward.Status {
		t.Errorf("expected inverted status: forward=%v backward=%v", forward.Status, backward.Status)
	}
	// relative-change deltas are not exact negatives of each other (ratio
	// inversion isn't linear), but they must disagree in sign.
	if (*forward.DeltaPercent > 0) == (*backward.DeltaPercent > 0) {
		t.Errorf("expected opposite-signed deltas: forward=%v backward=%v", *forward.DeltaPercent, *backward.DeltaPercent)
	}
}

// Any ratio within the noise threshold is Unchanged regardless of
// direction or metric kind.
func TestNoiseThreshold(t *testing.T) {
	cases := []struct {
		iters     uint64
		threshold float64
	}{
		{1005, 1}, // +0.5%, within 1%
		{995, 1},  // -0.5%, within 1%
	}
	for _, c := range cases {
		cur := reportWithIters(c.iters, time.Second)
		base := baselineWithItersRate(1000, 1.0)
		d := Compare(cur, base, c.threshold, []RegressionMetric{ItersRate}).Deltas[ItersRate]
		if d.Status != Unchanged {
			t.Errorf("iters=%d: status = %v, want Unchanged", c.iters, d.Status)
		}
	}
}

// All-Unchanged and all-skipped both yield VerdictUnchanged (the Mixed
// case is covered by TestCompareMixed).
func TestVerdictAggregation(t *testing.T) {
	allUnchanged := reportWithIters(1000, time.Second)
	base := baselineWithItersRate(1000, 1.0)
	c := Compare(allUnchanged, base, 1, []RegressionMetric{ItersRate, SuccessRatio})
	if c.Verdict != VerdictUnchanged {
		t.Errorf("all-unchanged: verdict = %v, want Unchanged", c.Verdict)
	}

	allSkipped := reportWithIters(0, time.Second)
	c2 := Compare(allSkipped, base, 1, []RegressionMetric{LatencyMean})
	if c2.Verdict != VerdictUnchanged {
		t.Errorf("all-skipped: verdict = %v, want Unchanged", c2.Verdict)
	}
	if len(c2.Skipped) != 1 {
		t.Errorf("expected 1 skipped metric, got %d", len(c2.Skipped))
	}
}

func TestZeroZeroUnchanged(t *testing.T) {
	cur := reportWithIters(0, time.Second)
	base := baselineWithItersRate(0, 0)
	d := Compare(cur, base, 5, []RegressionMetric{ItersRate}).Deltas[ItersRate]
	if d.Status != Unchanged {
		t.Errorf("status = %v, want Unchanged", d.Status)
	}
	if d.Ratio == nil || *d.Ratio != 1.0 {
		t.Errorf("ratio = %v, want 1.0", d.Ratio)
	}
}

func TestBaselineZeroCurrentNonZero(t *testing.T) {
	cur := reportWithIters(5, time.Second)
	base := baselineWithItersRate(0, 1.0)
	d := Compare(cur, base, 5, []RegressionMetric{ItersRate}).Deltas[ItersRate]
	if d.Status != Improved {
		t.Errorf("higher-is-better metric appearing from zero baseline should be Improved, got %v", d.Status)
	}
	if d.Ratio != nil || d.DeltaPercent != nil {
		t.Errorf("ratio/delta_percent should be nil when baseline is zero and current is not")
	}
}
