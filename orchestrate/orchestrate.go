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
	"context"

	"golang.org/x/sync/errgroup"

	"fortio.org/log"

	"loadkit.dev/loadkit/baseline"
	"loadkit.dev/loadkit/collector"
	"loadkit.dev/loadkit/compare"
	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/runner"
)

// Result is everything a caller gets back from a completed Run: the
// report, the comparison (if one was requested), and the baseline that
// was compared against and/or just saved.
type Result struct {
	Report     *report.BenchReport
	Comparison *compare.Comparison
	Baseline   *baseline.Baseline
	Saved      bool
}

// Run wires a runner.BenchSuite through the full pipeline: it loads and
// validates a baseline fail-fast (before spawning a single worker) when
// CompareBaseline is set, runs the bench to completion, compares and/or
// saves as configured, and returns a *RegressionError (alongside a
// non-nil Result) when FailOnRegression trips. ctx cancellation (e.g. an
// external Ctrl-C handler, out of scope here) stops the run early and
// still returns whatever partial report the collector produced.
func Run[S any](ctx context.Context, suite runner.BenchSuite[S], opts Options) (*Result, error) {
	var loaded *baseline.Baseline
	var name baseline.BaselineName
	dir := baseline.ResolveDir(opts.BaselineDir)

	if opts.CompareBaseline || opts.SaveBaseline {
		var err error
		name, err = baseline.ParseBaselineName(opts.BaselineName)
		if err != nil {
			return nil, err
		}
	}

	if opts.CompareBaseline {
		var err error
		loaded, err = baseline.Load(dir, name)
		if err != nil {
			return nil, err
		}
		if err := loaded.Validate(opts.BenchOpts.Concurrency, opts.BenchOpts.Rate); err != nil {
			return nil, err
		}
	}

	// Normalize our own copy of BenchOpts before constructing the runner
	// and collector, so both share the same Clock instance (runner.New
	// normalizes its own copy internally, which would otherwise leave our
	// copy's Clock nil and give the collector a different clock than the
	// one the run is actually paced by).
	benchOpts := opts.BenchOpts
	if err := benchOpts.Normalize(); err != nil {
		return nil, err
	}

	pause := runner.NewPauseControl()
	phase := runner.NewPhaseWatch()

	r, err := runner.New(suite, benchOpts, pause, phase)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fps := opts.FPS
	if fps < 1 {
		fps = 1
	}
	col := collector.NewSilentCollector(benchOpts.Concurrency, benchOpts.Clock, r.Results(), cancel, fps)

	var rep *report.BenchReport
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return r.Run(gctx)
	})
	g.Go(func() error {
		var collectErr error
		rep, collectErr = col.Run(runCtx)
		return collectErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Report: rep}

	if opts.CompareBaseline {
		result.Comparison = compare.Compare(rep, loaded, opts.NoiseThreshold, opts.Metrics)
		result.Baseline = loaded
	}

	if opts.SaveBaseline {
		cfg := baseline.BenchConfig{
			Warmup:    benchOpts.Warmups,
			RateLimit: benchOpts.Rate,
		}
		if benchOpts.Duration != nil {
			secs := benchOpts.Duration.Seconds()
			cfg.DurationSecs = &secs
		}
		if benchOpts.Iterations != nil {
			iters := *benchOpts.Iterations
			cfg.Iterations = &iters
		}
		toSave := baseline.FromReport(name, opts.ToolVersion, cfg, rep)
		if err := baseline.Save(dir, name, toSave); err != nil {
			return result, err
		}
		result.Saved = true
		log.Infof("orchestrate: saved baseline %q", name)
	}

	if opts.FailOnRegression && result.Comparison != nil {
		if result.Comparison.Verdict == compare.VerdictRegressed || result.Comparison.Verdict == compare.VerdictMixed {
			return result, &RegressionError{Verdict: result.Comparison.Verdict, BaselineName: opts.BaselineName}
		}
	}

	return result, nil
}
