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

// Package histogram wraps an HDR histogram of iteration latencies,
// nanosecond domain, 3 significant figures of precision, via
// github.com/HdrHistogram/hdrhistogram-go.
package histogram // import "loadkit.dev/loadkit/histogram"

import (
	"errors"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// sigFigs is the number of significant decimal digits HDR preserves.
const sigFigs = 3

// maxTrackableLatency bounds the histogram's value domain; a duration
// longer than this is almost certainly a caller bug (a wedged connection,
// a workload that forgot to time out) rather than a real latency sample,
// so it is rejected with ErrLatencyTooLarge instead of silently clamped.
const maxTrackableLatency = time.Hour

// ErrLatencyTooLarge is returned by Record when the duration does not fit
// the histogram's nanosecond domain.
var ErrLatencyTooLarge = errors.New("histogram: latency duration too large to record")

// PERCENTAGES are the percentiles baselines and reports compute by default.
var PERCENTAGES = []float64{10, 25, 50, 75, 90, 95, 99, 99.9, 99.99}

// LatencyHistogram records non-negative iteration latencies and answers
// quantile queries. It is not safe for concurrent use: the collector
// owns it exclusively, folding results into it from a single goroutine.
type LatencyHistogram struct {
	hist *hdrhistogram.Histogram
}

// New creates an empty latency histogram.
func New() *LatencyHistogram {
	return &LatencyHistogram{
		hist: hdrhistogram.New(1, maxTrackableLatency.Nanoseconds(), sigFigs),
	}
}

// Record adds a latency sample. Returns ErrLatencyTooLarge if d falls
// outside the histogram's domain; otherwise infallible.
func (h *LatencyHistogram) Record(d time.Duration) error {
	if d < 0 {
		d = 0
	}
	if err := h.hist.RecordValue(d.Nanoseconds()); err != nil {
		return ErrLatencyTooLarge
	}
	return nil
}

// IsEmpty reports whether no samples have been recorded.
func (h *LatencyHistogram) IsEmpty() bool {
	return h.hist.TotalCount() == 0
}

// Count returns the number of recorded samples.
func (h *LatencyHistogram) Count() int64 {
	return h.hist.TotalCount()
}

// Min returns the smallest recorded latency, or 0 if empty.
func (h *LatencyHistogram) Min() time.Duration {
	return time.Duration(h.hist.Min())
}

// Max returns the largest recorded latency, or 0 if empty.
func (h *LatencyHistogram) Max() time.Duration {
	return time.Duration(h.hist.Max())
}

// Mean returns the mean recorded latency.
func (h *LatencyHistogram) Mean() time.Duration {
	return time.Duration(h.hist.Mean())
}

// StdDev returns the standard deviation of recorded latencies.
func (h *LatencyHistogram) StdDev() time.Duration {
	return time.Duration(h.hist.StdDev())
}

// Median returns the value at the 50th percentile.
func (h *LatencyHistogram) Median() time.Duration {
	return h.ValueAtQuantile(50)
}

// ValueAtQuantile returns the latency at percentile q (0-100 scale, e.g.
// 99 for p99).
func (h *LatencyHistogram) ValueAtQuantile(q float64) time.Duration {
	return time.Duration(h.hist.ValueAtQuantile(q))
}

// Percentile is a single (percentile, value) pair.
type Percentile struct {
	Percentile float64
	Value      time.Duration
}

// Percentiles computes ValueAtQuantile for each requested percentage.
func (h *LatencyHistogram) Percentiles(percentages []float64) []Percentile {
	out := make([]Percentile, len(percentages))
	for i, p := range percentages {
		out[i] = Percentile{Percentile: p, Value: h.ValueAtQuantile(p)}
	}
	return out
}

// Bucket is one non-empty HDR bucket: the upper bound of the bucket and
// the number of samples that fell into it.
type Bucket struct {
	UpperBound time.Duration
	Count      int64
}

// Quantiles yields one Bucket per non-empty underlying HDR bar, ordered by
// increasing upper bound.
func (h *LatencyHistogram) Quantiles() []Bucket {
	bars := h.hist.Distribution()
	out := make([]Bucket, 0, len(bars))
	for _, b := range bars {
		if b.Count == 0 {
			continue
		}
		out = append(out, Bucket{UpperBound: time.Duration(b.To), Count: b.Count})
	}
	return out
}
