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

// Package orchestrate wires the runner, collector, baseline store and
// comparator into a single call: load/validate a baseline fail-fast, run
// the bench, optionally compare and save, and surface a RegressionError
// the CLI can map to a process exit code. The CLI surface itself
// (argument parsing, os.Exit) is out of scope; this package is the
// contract a CLI (or anything else) drives.
package orchestrate // import "loadkit.dev/loadkit/orchestrate"

import (
	"loadkit.dev/loadkit/compare"
	"loadkit.dev/loadkit/runner"
)

// Options bundles everything Run needs beyond the workload itself:
// the runner configuration, baseline name/location/behavior, and the
// comparison knobs.
type Options struct {
	// BenchOpts configures the runner: concurrency, duration, iterations,
	// warmups and rate limit.
	BenchOpts runner.BenchOpts

	// BaselineName identifies the baseline to load and/or save. Required
	// if CompareBaseline or SaveBaseline is set.
	BaselineName string
	// BaselineDir overrides baseline.ResolveDir's directory pick; leave
	// empty to use the normal CLI-arg/env/default resolution.
	BaselineDir string

	// CompareBaseline, if true, loads BaselineName before the run starts,
	// validates it against BenchOpts (concurrency, rate), and compares
	// the finished report against it. A missing or mismatched baseline
	// fails the run before any worker is spawned.
	CompareBaseline bool
	// SaveBaseline, if true, persists the finished report as a new
	// baseline under BaselineName after any comparison has been made, so
	// a comparison always sees the prior baseline, never the one just
	// produced by this run.
	SaveBaseline bool
	// FailOnRegression, if true, makes Run return a *RegressionError when
	// the comparison verdict is Regressed or Mixed.
	FailOnRegression bool

	// NoiseThreshold is the percent within which a metric's change counts
	// as Unchanged rather than Improved/Regressed.
	NoiseThreshold float64
	// Metrics selects which metrics participate in the verdict; nil
	// means compare.AllMetrics.
	Metrics []compare.RegressionMetric

	// ToolVersion is stamped into a saved baseline's metadata, typically
	// version.Short().
	ToolVersion string
	// FPS is the sample rate the collector's RecentStatsWindow uses for a
	// live dashboard to poll; 0 defaults to 1.
	FPS int
}
