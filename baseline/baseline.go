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

// Package baseline persists a BenchReport as a versioned, schema-checked
// JSON document and reloads it for later comparison: stdlib
// encoding/json, pretty-printed, stable key order via plain exported
// struct fields. The write itself is atomic; see storage.go.
package baseline // import "loadkit.dev/loadkit/baseline"

import (
	"regexp"
	"time"

	"loadkit.dev/loadkit/histogram"
	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/status"
)

// CurrentSchemaVersion is the schema_version this build writes and is
// guaranteed to read without a compatibility warning.
const CurrentSchemaVersion = 1

// baselineNamePattern is the grammar a BaselineName must match:
// non-empty runs of letters, digits, underscore, dot or dash. This keeps a
// name safe to use verbatim as a filename component.
var baselineNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// BaselineName is a validated identifier for a saved baseline, safe to use
// as a file name (plus the .json/.json.tmp suffix).
type BaselineName string

// ParseBaselineName validates s against the BaselineName grammar. An empty
// string or one containing characters outside [A-Za-z0-9_.-] is rejected.
func ParseBaselineName(s string) (BaselineName, error) {
	if s == "" {
		return "", &NameError{Name: s, Reason: "must not be empty"}
	}
	if !baselineNamePattern.MatchString(s) {
		return "", &NameError{Name: s, Reason: "must match [A-Za-z0-9_.-]+"}
	}
	return BaselineName(s), nil
}

// String returns the underlying name.
func (n BaselineName) String() string { return string(n) }

// BenchConfig captures the run configuration fields that belong in a
// saved baseline's metadata and participate in pre-run validation:
// concurrency and rate_limit materially change achievable throughput,
// so a mismatch fails validation; duration, iterations and warmup
// differences are allowed and recorded for context only.
type BenchConfig struct {
	Concurrency        int      `json:"concurrency"`
	DurationSecs       *float64 `json:"duration_secs,omitempty"`
	Iterations         *uint64  `json:"iterations,omitempty"`
	Warmup             uint64   `json:"warmup"`
	RateLimit          *float64 `json:"rate_limit,omitempty"`
	ActualDurationSecs float64  `json:"actual_duration_secs"`
}

// Metadata identifies a saved baseline and the configuration it was
// produced under.
type Metadata struct {
	Name        string      `json:"name"`
	CreatedAt   time.Time   `json:"created_at"`
	ToolVersion string      `json:"tool_version"`
	BenchConfig BenchConfig `json:"bench_config"`
}

// RateCount is a total plus its per-second rate, the shape repeated for
// iters/items/bytes in the baseline summary section.
type RateCount struct {
	Total uint64  `json:"total"`
	Rate  float64 `json:"rate"`
}

// Summary is the throughput and success-ratio section of a saved report,
// always present (unlike Latency, which is omitted for an empty run).
type Summary struct {
	SuccessRatio float64   `json:"success_ratio"`
	TotalTime    float64   `json:"total_time"`
	Concurrency  int       `json:"concurrency"`
	Iters        RateCount `json:"iters"`
	Items        RateCount `json:"items"`
	Bytes        RateCount `json:"bytes"`
}

// LatencyStats is the set of scalar latency moments captured alongside
// the percentile table, all in seconds to match the JSON wire format.
type LatencyStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdev"`
}

// Latency is the optional latency section of a saved report: omitted
// entirely when the run recorded zero iterations.
type Latency struct {
	Stats       LatencyStats       `json:"stats"`
	Percentiles map[string]float64 `json:"percentiles"`
	Histogram   map[string]uint64  `json:"histogram"`
}

// Report is the persisted shape of a BenchReport: summary stats, optional
// latency, and the status/error distributions keyed by display string.
type Report struct {
	Summary Summary           `json:"summary"`
	Latency *Latency          `json:"latency,omitempty"`
	Status  map[string]uint64 `json:"status"`
	Errors  map[string]uint64 `json:"errors"`
}

// Baseline is the full persisted document: a schema version guard,
// identifying metadata, and the report it was captured from.
type Baseline struct {
	SchemaVersion int      `json:"schema_version"`
	Metadata      Metadata `json:"metadata"`
	Report        Report   `json:"report"`
}

// percentileKeys are the percentages a baseline's latency section always
// carries, matching histogram.PERCENTAGES; p90/p99 in particular are the
// ones the comparator looks for by name.
var percentileKeys = histogram.PERCENTAGES

// FromReport builds a Baseline from a completed BenchReport, ready to
// Save. Rates use rep.Elapsed as their denominator, and cfg's
// ActualDurationSecs and Concurrency are overwritten from rep;
// toolVersion is typically version.Short().
func FromReport(name BaselineName, toolVersion string, cfg BenchConfig, rep *report.BenchReport) *Baseline {
	cfg.ActualDurationSecs = rep.Elapsed.Seconds()
	cfg.Concurrency = rep.Concurrency

	b := &Baseline{
		SchemaVersion: CurrentSchemaVersion,
		Metadata: Metadata{
			Name:        name.String(),
			CreatedAt:   time.Now().UTC(),
			ToolVersion: toolVersion,
			BenchConfig: cfg,
		},
		Report: Report{
			Summary: summaryFromReport(rep),
			Status:  statusDistToStrings(rep.StatusDist),
			Errors:  cloneStringCounts(rep.ErrorDist),
		},
	}
	if !rep.Hist.IsEmpty() {
		b.Report.Latency = latencyFromHistogram(rep.Hist)
	}
	return b
}

func summaryFromReport(rep *report.BenchReport) Summary {
	secs := rep.Elapsed.Seconds()
	overall := rep.Stats.Overall
	return Summary{
		SuccessRatio: rep.SuccessRatio(),
		TotalTime:    secs,
		Concurrency:  rep.Concurrency,
		Iters:        RateCount{Total: overall.Iters, Rate: rate(overall.Iters, secs)},
		Items:        RateCount{Total: overall.Items, Rate: rate(overall.Items, secs)},
		Bytes:        RateCount{Total: overall.Bytes, Rate: rate(overall.Bytes, secs)},
	}
}

func rate(total uint64, secs float64) float64 {
	if secs <= 0 {
		return 0
	}
	return float64(total) / secs
}

func latencyFromHistogram(h *histogram.LatencyHistogram) *Latency {
	l := &Latency{
		Stats: LatencyStats{
			Min:    h.Min().Seconds(),
			Max:    h.Max().Seconds(),
			Mean:   h.Mean().Seconds(),
			Median: h.Median().Seconds(),
			StdDev: h.StdDev().Seconds(),
		},
		Percentiles: make(map[string]float64, len(percentileKeys)),
		Histogram:   make(map[string]uint64),
	}
	for _, p := range h.Percentiles(percentileKeys) {
		l.Percentiles[percentileKey(p.Percentile)] = p.Value.Seconds()
	}
	for _, b := range h.Quantiles() {
		l.Histogram[formatSeconds(b.UpperBound.Seconds())] = uint64(b.Count)
	}
	return l
}

func statusDistToStrings(dist map[status.Status]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(dist))
	for st, n := range dist {
		out[st.String()] += n
	}
	return out
}

func cloneStringCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
