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

// Package window maintains rolling, multi-scale views of recent iteration
// stats so a live dashboard can show "last second", "last 10s", "last
// minute" throughput without ever touching per-iteration history: every
// scale is a fixed-size ring of stats.IterStats bucket pointers whose
// slot array is allocated once at construction. Rotating still allocates:
// MultiScaleStatsWindow.Tick creates a fresh IterStats for each scale it
// rotates, and RecentStatsWindow.Record stores a clone of the snapshot it
// is given; evicted buckets are not reused. A bucket's contents
// only change while it is the ring's front; time, not iteration count,
// decides when the front rotates -- callers drive that with a clock
// ticker, never with the result stream itself.
package window // import "loadkit.dev/loadkit/window"

import (
	"time"

	"loadkit.dev/loadkit/report"
	"loadkit.dev/loadkit/stats"
)

// StatsWindow is a fixed-capacity ring buffer of stats.IterStats buckets:
// Push folds a result into the current front bucket; Rotate starts a new
// front, evicting the oldest bucket once the ring is at capacity. The
// ring always holds at least one bucket -- the constructor seeds it --
// so Front and At are never called against an empty ring. Not safe for
// concurrent use; callers serialize access (the collector owns a window
// exclusively, same ownership model as histogram.LatencyHistogram).
type StatsWindow struct {
	size    int
	buckets []*stats.IterStats
	head    int
	filled  int
}

// NewStatsWindow preallocates a ring retaining up to size buckets.
func NewStatsWindow(size int) *StatsWindow {
	if size < 1 {
		size = 1
	}
	w := &StatsWindow{size: size, buckets: make([]*stats.IterStats, size), head: -1}
	w.Rotate(stats.NewIterStats())
	return w
}

// Push folds one iteration's outcome into the current front bucket.
func (w *StatsWindow) Push(it report.IterReport) {
	w.buckets[w.head].Record(it.Status, it.Items, it.Bytes, it.Duration)
}

// Rotate makes bucket the new front bucket, evicting the oldest bucket
// once the ring is already at capacity.
func (w *StatsWindow) Rotate(bucket *stats.IterStats) {
	w.head = (w.head + 1) % w.size
	w.buckets[w.head] = bucket
	if w.filled < w.size {
		w.filled++
	}
}

// Front returns the bucket currently being written to.
func (w *StatsWindow) Front() *stats.IterStats {
	return w.buckets[w.head]
}

// At returns the bucket offset rotations behind the front (0 is the front
// itself), clamped to the oldest bucket currently retained.
func (w *StatsWindow) At(offset int) *stats.IterStats {
	if offset < 0 {
		offset = 0
	}
	if offset > w.filled-1 {
		offset = w.filled - 1
	}
	idx := ((w.head-offset)%w.size + w.size) % w.size
	return w.buckets[idx]
}

// Len returns the number of buckets currently retained (<= capacity).
func (w *StatsWindow) Len() int {
	return w.filled
}

// Capacity returns the ring's fixed size.
func (w *StatsWindow) Capacity() int {
	return w.size
}

// Sum folds every currently retained bucket into a single IterStats.
func (w *StatsWindow) Sum() *stats.IterStats {
	sum := stats.NewIterStats()
	for i := 0; i < w.filled; i++ {
		sum.Add(w.At(i))
	}
	return sum
}

// defaultScalePeriods are the rolling window scales (seconds) a
// MultiScaleStatsWindow tracks when none are given explicitly: 1s, 10s,
// 1m and 10m.
var defaultScalePeriods = []int{1, 10, 60, 600}

// multiScaleBuckets is how many per-scale buckets a MultiScaleStatsWindow
// retains -- enough history for a dashboard to draw a 60-bar iteration
// histogram at any scale.
const multiScaleBuckets = 60

// MultiScaleStatsWindow tracks several StatsWindow scales in parallel, one
// per requested period, so a caller can ask for "last 10s" or "last
// minute" throughput without maintaining separate bookkeeping per scale.
// Push folds a result into every scale's front bucket; Tick must be
// called once per second of logical time (driven by a clock.Ticker, never
// by the result stream) and rotates each scale whose period has elapsed.
type MultiScaleStatsWindow struct {
	periods   []int
	windows   map[int]*StatsWindow
	tickCount uint64
}

// NewMultiScaleStatsWindow preallocates one ring per period in periods,
// or defaultScalePeriods if none are given.
func NewMultiScaleStatsWindow(periods ...int) *MultiScaleStatsWindow {
	if len(periods) == 0 {
		periods = defaultScalePeriods
	}
	m := &MultiScaleStatsWindow{periods: periods, windows: make(map[int]*StatsWindow, len(periods))}
	for _, p := range periods {
		m.windows[p] = NewStatsWindow(multiScaleBuckets)
	}
	return m
}

// Push folds one iteration's outcome into every scale's front bucket.
func (m *MultiScaleStatsWindow) Push(it report.IterReport) {
	for _, w := range m.windows {
		w.Push(it)
	}
}

// Tick advances the shared one-per-second counter and rotates every scale
// whose period evenly divides it, so the 1s scale rotates every call, the
// 10s scale every tenth call, and so on.
func (m *MultiScaleStatsWindow) Tick() {
	m.tickCount++
	for _, p := range m.periods {
		if m.tickCount%uint64(p) == 0 {
			m.windows[p].Rotate(stats.NewIterStats())
		}
	}
}

// Scales returns the set of supported scale periods, in seconds.
func (m *MultiScaleStatsWindow) Scales() []int {
	out := make([]int, len(m.periods))
	copy(out, m.periods)
	return out
}

// Sum returns the aggregate IterStats over the given scale (seconds); the
// scale must be one of Scales(), otherwise nil is returned.
func (m *MultiScaleStatsWindow) Sum(scaleSecs int) *stats.IterStats {
	w, ok := m.windows[scaleSecs]
	if !ok {
		return nil
	}
	return w.Sum()
}

// capacitySecs is the span, in seconds, a RecentStatsWindow retains.
const capacitySecs = 600

// RecentStatsWindow is a fine-grained ring of cumulative stats snapshots,
// sampled at fps ticks per second, so a dashboard can answer "what changed
// over the last N seconds" at its own refresh cadence. Unlike StatsWindow
// used directly, each recorded bucket is a full snapshot of the run's
// stats so far (not a per-tick delta); StatsForSecs derives the delta by
// diffing two snapshots.
type RecentStatsWindow struct {
	fps      int
	interval time.Duration
	window   *StatsWindow
}

// NewRecentStatsWindow creates a window retaining capacitySecs seconds of
// history, sampled at fps ticks per second.
func NewRecentStatsWindow(fps int) *RecentStatsWindow {
	if fps < 1 {
		fps = 1
	}
	return &RecentStatsWindow{
		fps:      fps,
		interval: time.Second / time.Duration(fps),
		window:   NewStatsWindow(fps * capacitySecs),
	}
}

// Record rotates in a snapshot of the run's cumulative stats so far. It
// must be called once per frame (at the configured fps, driven by a
// clock.Ticker), not once per iteration: the ring holds snapshots, so
// recording a delta here would make StatsForSecs's diff meaningless.
func (r *RecentStatsWindow) Record(overall *stats.IterStats) {
	r.window.Rotate(overall.Clone())
}

// StatsForSecs returns the change over the last secs seconds -- the
// difference between the most recent snapshot and the snapshot offset
// seconds back -- and the actual span covered, which is less than secs
// when the run is younger than that.
func (r *RecentStatsWindow) StatsForSecs(secs int) (*stats.IterStats, time.Duration) {
	if secs < 0 {
		secs = 0
	}
	offset := secs * r.fps
	if offset > r.window.Len()-1 {
		offset = r.window.Len() - 1
	}
	if offset < 0 {
		offset = 0
	}
	front := r.window.Front()
	back := r.window.At(offset)
	diff, err := front.Sub(back)
	if err != nil {
		// Sub is only undefined if a snapshot somehow isn't monotone with
		// the front, which never happens for cumulative totals; fall back
		// to an empty diff rather than propagate a condition that cannot
		// occur in practice.
		diff = stats.NewIterStats()
	}
	return diff, time.Duration(offset) * r.interval
}
