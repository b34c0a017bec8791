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

// Package compare computes per-metric deltas between a current
// BenchReport and a saved baseline, and rolls those deltas up into a
// single regression verdict.
package compare // import "loadkit.dev/loadkit/compare"

import (
	"math"

	"loadkit.dev/loadkit/baseline"
	"loadkit.dev/loadkit/report"
)

// RegressionMetric identifies one of the nine comparable metrics. The
// zero value is not a valid metric; always construct from the named
// constants.
type RegressionMetric int

const (
	ItersRate RegressionMetric = iota + 1
	ItemsRate
	BytesRate
	LatencyMean
	LatencyMedian
	LatencyP90
	LatencyP99
	LatencyMax
	SuccessRatio
)

// AllMetrics is every metric in the universe, in display order; a caller
// that wants a full comparison can pass this as the selected metric list.
var AllMetrics = []RegressionMetric{
	ItersRate, ItemsRate, BytesRate,
	LatencyMean, LatencyMedian, LatencyP90, LatencyP99, LatencyMax,
	SuccessRatio,
}

func (m RegressionMetric) String() string {
	switch m {
	case ItersRate:
		return "iters_rate"
	case ItemsRate:
		return "items_rate"
	case BytesRate:
		return "bytes_rate"
	case LatencyMean:
		return "latency_mean"
	case LatencyMedian:
		return "latency_median"
	case LatencyP90:
		return "latency_p90"
	case LatencyP99:
		return "latency_p99"
	case LatencyMax:
		return "latency_max"
	case SuccessRatio:
		return "success_ratio"
	default:
		return "unknown"
	}
}

// higherIsBetter reports the metric's direction: throughput and success
// ratio improve by going up, latency improves by going down.
func (m RegressionMetric) higherIsBetter() bool {
	switch m {
	case ItersRate, ItemsRate, BytesRate, SuccessRatio:
		return true
	default:
		return false
	}
}

// DeltaStatus classifies a single metric's change relative to baseline.
type DeltaStatus int

const (
	Unchanged DeltaStatus = iota
	Improved
	Regressed
)

func (s DeltaStatus) String() string {
	switch s {
	case Improved:
		return "improved"
	case Regressed:
		return "regressed"
	default:
		return "unchanged"
	}
}

// Delta is one metric's current value, baseline value, and derived
// change. Ratio and DeltaPercent are nil when the baseline value is zero
// and the current value is non-zero: the relative change is undefined,
// but the direction is still known.
type Delta struct {
	Metric       RegressionMetric
	Current      float64
	Baseline     float64
	Ratio        *float64
	DeltaPercent *float64
	Status       DeltaStatus
}

// Verdict is the overall call a Comparison reaches across its selected
// metrics.
type Verdict int

const (
	VerdictUnchanged Verdict = iota
	VerdictImproved
	VerdictRegressed
	VerdictMixed
)

func (v Verdict) String() string {
	switch v {
	case VerdictImproved:
		return "improved"
	case VerdictRegressed:
		return "regressed"
	case VerdictMixed:
		return "mixed"
	default:
		return "unchanged"
	}
}

// Comparison is the full result of comparing a current report against a
// baseline: one Delta per metric that could be computed, the metrics that
// had to be skipped (and why), and the rolled-up Verdict.
type Comparison struct {
	Deltas  map[RegressionMetric]Delta
	Skipped map[RegressionMetric]string
	Verdict Verdict
}

// Compare computes deltas for the selected metrics between current and
// base, using noiseThreshold (a percent) to decide when a change counts
// as Unchanged rather than Improved/Regressed, then rolls the per-metric
// statuses up into a single Verdict.
func Compare(current *report.BenchReport, base *baseline.Baseline, noiseThreshold float64, metrics []RegressionMetric) *Comparison {
	if len(metrics) == 0 {
		metrics = AllMetrics
	}
	c := &Comparison{
		Deltas:  make(map[RegressionMetric]Delta, len(metrics)),
		Skipped: make(map[RegressionMetric]string),
	}

	var anyImproved, anyRegressed, anyEvaluated bool
	for _, m := range metrics {
		cur, baseVal, ok, reason := metricValues(m, current, base)
		if !ok {
			c.Skipped[m] = reason
			continue
		}
		d := computeDelta(m, cur, baseVal, noiseThreshold)
		c.Deltas[m] = d
		anyEvaluated = true
		switch d.Status {
		case Improved:
			anyImproved = true
		case Regressed:
			anyRegressed = true
		}
	}

	switch {
	case anyImproved && anyRegressed:
		c.Verdict = VerdictMixed
	case anyImproved:
		c.Verdict = VerdictImproved
	case anyRegressed:
		c.Verdict = VerdictRegressed
	default:
		c.Verdict = VerdictUnchanged
		_ = anyEvaluated // all-unchanged and all-skipped both land here
	}
	return c
}

// computeDelta implements the per-metric delta/ratio/status algorithm.
func computeDelta(m RegressionMetric, current, base, noiseThreshold float64) Delta {
	d := Delta{Metric: m, Current: current, Baseline: base}
	higher := m.higherIsBetter()

	switch {
	case base == 0 && current == 0:
		one := 1.0
		zero := 0.0
		d.Ratio = &one
		d.DeltaPercent = &zero
		d.Status = Unchanged
	case base == 0:
		if higher {
			d.Status = Improved
		} else {
			d.Status = Regressed
		}
	default:
		ratio := current / base
		deltaPct := (ratio - 1) * 100
		d.Ratio = &ratio
		d.DeltaPercent = &deltaPct
		magnitude := math.Abs(ratio-1) * 100
		switch {
		case magnitude <= noiseThreshold:
			d.Status = Unchanged
		case higher && ratio > 1, !higher && ratio < 1:
			d.Status = Improved
		default:
			d.Status = Regressed
		}
	}
	return d
}

// metricValues extracts the (current, baseline) pair for m, reporting
// ok=false (with a reason) when the metric cannot be evaluated: an empty
// current histogram, a baseline with no latency section, or a baseline
// that doesn't carry a requested percentile.
func metricValues(m RegressionMetric, current *report.BenchReport, base *baseline.Baseline) (cur, baseVal float64, ok bool, reason string) {
	secs := current.Elapsed.Seconds()
	switch m {
	case ItersRate:
		return rate(current.Stats.Overall.Iters, secs), base.Report.Summary.Iters.Rate, true, ""
	case ItemsRate:
		if current.Stats.Overall.Items == 0 && base.Report.Summary.Items.Total == 0 {
			return 0, 0, false, "no items processed on either side"
		}
		return rate(current.Stats.Overall.Items, secs), base.Report.Summary.Items.Rate, true, ""
	case BytesRate:
		if current.Stats.Overall.Bytes == 0 && base.Report.Summary.Bytes.Total == 0 {
			return 0, 0, false, "no bytes processed on either side"
		}
		return rate(current.Stats.Overall.Bytes, secs), base.Report.Summary.Bytes.Rate, true, ""
	case SuccessRatio:
		return current.SuccessRatio(), base.Report.Summary.SuccessRatio, true, ""
	}

	if current.Hist.IsEmpty() {
		return 0, 0, false, "current histogram is empty"
	}
	if base.Report.Latency == nil {
		return 0, 0, false, "baseline has no latency section"
	}
	switch m {
	case LatencyMean:
		return current.Hist.Mean().Seconds(), base.Report.Latency.Stats.Mean, true, ""
	case LatencyMedian:
		return current.Hist.Median().Seconds(), base.Report.Latency.Stats.Median, true, ""
	case LatencyMax:
		return current.Hist.Max().Seconds(), base.Report.Latency.Stats.Max, true, ""
	case LatencyP90:
		v, ok := base.Report.Latency.PercentileValue(90)
		if !ok {
			return 0, 0, false, "baseline lacks p90"
		}
		return current.Hist.ValueAtQuantile(90).Seconds(), v, true, ""
	case LatencyP99:
		v, ok := base.Report.Latency.PercentileValue(99)
		if !ok {
			return 0, 0, false, "baseline lacks p99"
		}
		return current.Hist.ValueAtQuantile(99).Seconds(), v, true, ""
	default:
		return 0, 0, false, "unknown metric"
	}
}

func rate(total uint64, secs float64) float64 {
	if secs <= 0 {
		return 0
	}
	return float64(total) / secs
}
