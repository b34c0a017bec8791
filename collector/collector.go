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

// Package collector consumes a runner's result stream and folds it into
// a BenchReport, exclusively owning the histogram, stats and rolling
// windows while the run is in progress.
package collector // import "loadkit.dev/loadkit/collector"

import (
	"context"
	"sync"
	"time"

	"loadkit.dev/loadkit/clock"
	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/runner"
	"loadkit.dev/loadkit/stats"
	"loadkit.dev/loadkit/window"
)

// ReportCollector consumes a runner's results until the channel closes
// (or ctx is cancelled) and produces the final report.
type ReportCollector interface {
	Run(ctx context.Context) (*report.BenchReport, error)
}

// CollectorSnapshot is a point-in-time view a live dashboard can poll
// without blocking the collector's hot loop.
type CollectorSnapshot struct {
	Overall    *stats.IterStats
	MultiScale map[int]*stats.IterStats
	Recent     *stats.IterStats
}

// SilentCollector folds runner.Result values into a histogram, additive
// stats and rolling windows, with no console output of its own. The
// rolling windows are driven by real elapsed time -- a per-second ticker
// rotates the multi-scale window, and an fps-rate ticker snapshots the
// recent window -- not by the rate results happen to arrive at, per
// §4.4. Both tickers run on goroutines guarded by mu, since they touch
// the same overall/multiScale/recent state the result loop folds into.
type SilentCollector struct {
	concurrency int
	clock       *clock.Clock
	results     <-chan runner.Result
	cancel      context.CancelFunc
	fps         int

	mu         sync.Mutex
	overall    *stats.IterStats
	multiScale *window.MultiScaleStatsWindow
	recent     *window.RecentStatsWindow
}

// NewSilentCollector creates a collector for a run of the given
// concurrency, reading from results and folding ticks at fps per second
// into its RecentStatsWindow. cancel is invoked if external cancellation
// (e.g. Ctrl-C) is requested; pass a no-op if the caller has no such
// signal to propagate.
func NewSilentCollector(concurrency int, clk *clock.Clock, results <-chan runner.Result, cancel context.CancelFunc, fps int) *SilentCollector {
	if fps < 1 {
		fps = 1
	}
	return &SilentCollector{
		concurrency: concurrency,
		clock:       clk,
		results:     results,
		cancel:      cancel,
		fps:         fps,
		overall:     stats.NewIterStats(),
		multiScale:  window.NewMultiScaleStatsWindow(),
		recent:      window.NewRecentStatsWindow(fps),
	}
}

// Run drains results until the channel closes or ctx is cancelled,
// folding each into the report. On completion it pauses the clock and
// stamps Elapsed from the clock's logical elapsed time. A non-nil error
// means the histogram rejected a latency sample (ErrLatencyTooLarge);
// the report returned alongside it still reflects everything folded in
// before the failing sample.
func (c *SilentCollector) Run(ctx context.Context) (*report.BenchReport, error) {
	rep := report.NewBenchReport(c.concurrency)

	tickCtx, cancelTicks := context.WithCancel(ctx)
	defer cancelTicks()
	go c.runSecondTicks(tickCtx)
	go c.runFrameTicks(tickCtx)

	for {
		select {
		case <-ctx.Done():
			c.cancel()
			return c.finish(rep), nil
		case res, ok := <-c.results:
			if !ok {
				return c.finish(rep), nil
			}
			if err := rep.Record(res.Report, res.Err); err != nil {
				return c.finish(rep), err
			}
			if res.Err != nil {
				continue
			}
			c.mu.Lock()
			c.overall.Record(res.Report.Status, res.Report.Items, res.Report.Bytes, res.Report.Duration)
			c.multiScale.Push(res.Report)
			c.mu.Unlock()
		}
	}
}

// runSecondTicks calls the multi-scale window's Tick once per second of
// the collector's logical clock, so scales roll over on the clock's
// cadence (frozen while it is paused) regardless of result throughput.
func (c *SilentCollector) runSecondTicks(ctx context.Context) {
	t := c.clock.Ticker(time.Second)
	for {
		t.Tick(ctx)
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		c.multiScale.Tick()
		c.mu.Unlock()
	}
}

// runFrameTicks samples a cumulative snapshot into the recent window at
// fps per second, independent of result arrival.
func (c *SilentCollector) runFrameTicks(ctx context.Context) {
	t := c.clock.Ticker(time.Second / time.Duration(c.fps))
	for {
		t.Tick(ctx)
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		c.recent.Record(c.overall)
		c.mu.Unlock()
	}
}

func (c *SilentCollector) finish(rep *report.BenchReport) *report.BenchReport {
	c.clock.Pause()
	rep.Elapsed = c.clock.Elapsed()
	return rep
}

// Snapshot returns a pull-based view of recent throughput for an external
// dashboard, without interrupting the collector's result loop.
func (c *SilentCollector) Snapshot() CollectorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := CollectorSnapshot{
		Overall:    c.overall.Clone(),
		MultiScale: make(map[int]*stats.IterStats, len(c.multiScale.Scales())),
	}
	for _, scale := range c.multiScale.Scales() {
		snap.MultiScale[scale] = c.multiScale.Sum(scale)
	}
	recent, _ := c.recent.StatsForSecs(60)
	snap.Recent = recent
	return snap
}
