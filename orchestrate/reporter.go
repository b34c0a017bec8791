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

package orchestrate

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"loadkit.dev/loadkit/histogram"
)

// Reporter renders a completed Result for a human or a machine consumer.
// The CLI's choice of output destination and format flag is out of
// scope; Reporter is the seam it plugs into.
type Reporter interface {
	Report(w io.Writer, res *Result) error
}

// TextReporter prints a human-readable summary, fmt.Fprintf to an
// io.Writer.
type TextReporter struct{}

func (TextReporter) Report(w io.Writer, res *Result) error {
	rep := res.Report
	overall := rep.Stats.Overall
	fmt.Fprintf(w, "concurrency %d, elapsed %s\n", rep.Concurrency, rep.Elapsed)
	fmt.Fprintf(w, "iterations %d (%.2f/s), success ratio %.4f\n",
		overall.Iters, float64(overall.Iters)/rep.Elapsed.Seconds(), rep.SuccessRatio())

	if !rep.Hist.IsEmpty() {
		fmt.Fprintf(w, "latency: min %s max %s mean %s median %s stdev %s\n",
			rep.Hist.Min(), rep.Hist.Max(), rep.Hist.Mean(), rep.Hist.Median(), rep.Hist.StdDev())
		for _, p := range rep.Hist.Percentiles(histogram.PERCENTAGES) {
			fmt.Fprintf(w, "  p%g: %s\n", p.Percentile, p.Value)
		}
	}

	statusKeys := make([]string, 0, len(rep.StatusDist))
	for st := range rep.StatusDist {
		statusKeys = append(statusKeys, st.String())
	}
	sort.Strings(statusKeys)
	for _, k := range statusKeys {
		fmt.Fprintf(w, "status %s: ", k)
		for st, n := range rep.StatusDist {
			if st.String() == k {
				fmt.Fprintf(w, "%d\n", n)
				break
			}
		}
	}
	for errMsg, n := range rep.ErrorDist {
		fmt.Fprintf(w, "error %q: %d\n", errMsg, n)
	}

	if res.Comparison != nil {
		fmt.Fprintf(w, "comparison verdict: %s\n", res.Comparison.Verdict)
		metrics := make([]string, 0, len(res.Comparison.Deltas))
		for m := range res.Comparison.Deltas {
			metrics = append(metrics, m.String())
		}
		sort.Strings(metrics)
		for _, name := range metrics {
			for m, d := range res.Comparison.Deltas {
				if m.String() != name {
					continue
				}
				if d.DeltaPercent != nil {
					fmt.Fprintf(w, "  %s: %s (%.2f%%)\n", name, d.Status, *d.DeltaPercent)
				} else {
					fmt.Fprintf(w, "  %s: %s\n", name, d.Status)
				}
			}
		}
		for m, reason := range res.Comparison.Skipped {
			fmt.Fprintf(w, "  %s: skipped (%s)\n", m, reason)
		}
	}
	if res.Saved {
		fmt.Fprintln(w, "baseline saved")
	}
	return nil
}

// JSONReporter pretty-prints a JSON-serializable projection of a Result
// via json.MarshalIndent.
type JSONReporter struct{}

// jsonResult is a flattened, encoding/json-friendly view of a Result:
// DeltaStatus/Verdict are int enums and Delta holds pointers, which would
// encode as bare numbers and nulls, so this trims to plain fields with
// string-rendered enums.
type jsonResult struct {
	Concurrency int               `json:"concurrency"`
	ElapsedSecs float64           `json:"elapsed_secs"`
	Iters       uint64            `json:"iters"`
	ItersRate   float64           `json:"iters_rate"`
	SuccessRate float64           `json:"success_ratio"`
	Status      map[string]uint64 `json:"status"`
	Errors      map[string]uint64 `json:"errors"`
	Comparison  *jsonComparison   `json:"comparison,omitempty"`
	Saved       bool              `json:"saved,omitempty"`
}

type jsonComparison struct {
	Verdict string             `json:"verdict"`
	Deltas  map[string]float64 `json:"delta_percent,omitempty"`
	Skipped []string           `json:"skipped,omitempty"`
}

func (JSONReporter) Report(w io.Writer, res *Result) error {
	rep := res.Report
	status := make(map[string]uint64, len(rep.StatusDist))
	for st, n := range rep.StatusDist {
		status[st.String()] += n
	}
	out := jsonResult{
		Concurrency: rep.Concurrency,
		ElapsedSecs: rep.Elapsed.Seconds(),
		Iters:       rep.Stats.Overall.Iters,
		ItersRate:   float64(rep.Stats.Overall.Iters) / rep.Elapsed.Seconds(),
		SuccessRate: rep.SuccessRatio(),
		Status:      status,
		Errors:      rep.ErrorDist,
		Saved:       res.Saved,
	}
	if res.Comparison != nil {
		jc := &jsonComparison{Verdict: res.Comparison.Verdict.String(), Deltas: make(map[string]float64, len(res.Comparison.Deltas))}
		for m, d := range res.Comparison.Deltas {
			if d.DeltaPercent != nil {
				jc.Deltas[m.String()] = *d.DeltaPercent
			}
		}
		for m := range res.Comparison.Skipped {
			jc.Skipped = append(jc.Skipped, m.String())
		}
		sort.Strings(jc.Skipped)
		out.Comparison = jc
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
