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

// Package stats accumulates simple additive counters over iterations,
// split by outcome status, without recording per-iteration history.
package stats // import "loadkit.dev/loadkit/stats"

import (
	"errors"
	"time"

	"loadkit.dev/loadkit/status"
)

// ErrNotDominating is returned by Sub when the receiver's counts are not
// all greater than or equal to the argument's: subtracting would produce
// a negative field, which has no meaningful interpretation for a
// monotonically accumulated counter.
var ErrNotDominating = errors.New("stats: subtrahend is not dominated by minuend")

// Counter holds additive totals for a run of iterations: how many ran,
// how many logical items and bytes they processed, and how much wall time
// they spent in aggregate (summed across iterations, not elapsed time).
type Counter struct {
	Iters    uint64
	Items    uint64
	Bytes    uint64
	Duration time.Duration
}

// Record folds one iteration's outcome into the counter.
func (c *Counter) Record(items, bytes uint64, d time.Duration) {
	c.Iters++
	c.Items += items
	c.Bytes += bytes
	c.Duration += d
}

// Add merges other into c, field by field.
func (c *Counter) Add(other Counter) {
	c.Iters += other.Iters
	c.Items += other.Items
	c.Bytes += other.Bytes
	c.Duration += other.Duration
}

// Sub returns c minus other. It returns ErrNotDominating if any field of
// other exceeds the corresponding field of c, rather than wrapping or
// producing a nonsensical negative count.
func (c Counter) Sub(other Counter) (Counter, error) {
	if other.Iters > c.Iters || other.Items > c.Items || other.Bytes > c.Bytes || other.Duration > c.Duration {
		return Counter{}, ErrNotDominating
	}
	return Counter{
		Iters:    c.Iters - other.Iters,
		Items:    c.Items - other.Items,
		Bytes:    c.Bytes - other.Bytes,
		Duration: c.Duration - other.Duration,
	}, nil
}

// AvgDuration returns the mean per-iteration duration, or 0 if Iters is 0.
func (c Counter) AvgDuration() time.Duration {
	if c.Iters == 0 {
		return 0
	}
	return c.Duration / time.Duration(c.Iters)
}

// Throughput returns items processed per second of aggregate Duration, or
// 0 if Duration is 0.
func (c Counter) Throughput() float64 {
	if c.Duration <= 0 {
		return 0
	}
	return float64(c.Items) / c.Duration.Seconds()
}

// IterStats is the full additive summary of a run: an overall Counter plus
// a per-status breakdown. Invariant: Overall always equals the sum of
// ByStatus across all recorded statuses.
type IterStats struct {
	Overall  Counter
	ByStatus map[status.Status]Counter
}

// NewIterStats creates an empty IterStats ready to Record into.
func NewIterStats() *IterStats {
	return &IterStats{ByStatus: make(map[status.Status]Counter)}
}

// Record folds one iteration's outcome into both Overall and its
// status-specific bucket, preserving the sum invariant.
func (s *IterStats) Record(st status.Status, items, bytes uint64, d time.Duration) {
	s.Overall.Record(items, bytes, d)
	c := s.ByStatus[st]
	c.Record(items, bytes, d)
	s.ByStatus[st] = c
}

// Add merges other into s, preserving the sum invariant.
func (s *IterStats) Add(other *IterStats) {
	s.Overall.Add(other.Overall)
	for st, c := range other.ByStatus {
		existing := s.ByStatus[st]
		existing.Add(c)
		s.ByStatus[st] = existing
	}
}

// Sub returns s minus other, field by field and status by status. Returns
// ErrNotDominating under the same condition as Counter.Sub, checked both
// on Overall and on every status bucket present in other.
func (s *IterStats) Sub(other *IterStats) (*IterStats, error) {
	overall, err := s.Overall.Sub(other.Overall)
	if err != nil {
		return nil, err
	}
	result := &IterStats{Overall: overall, ByStatus: make(map[status.Status]Counter, len(s.ByStatus))}
	for st, c := range s.ByStatus {
		result.ByStatus[st] = c
	}
	for st, otherC := range other.ByStatus {
		cur, ok := result.ByStatus[st]
		if !ok {
			return nil, ErrNotDominating
		}
		diff, err := cur.Sub(otherC)
		if err != nil {
			return nil, err
		}
		result.ByStatus[st] = diff
	}
	return result, nil
}

// SuccessRatio returns the fraction of iterations whose status Kind is
// status.Success, or 0 if no iterations were recorded.
func (s *IterStats) SuccessRatio() float64 {
	if s.Overall.Iters == 0 {
		return 0
	}
	var ok uint64
	for st, c := range s.ByStatus {
		if st.Kind == status.Success {
			ok += c.Iters
		}
	}
	return float64(ok) / float64(s.Overall.Iters)
}

// Clone returns a deep copy of s.
func (s *IterStats) Clone() *IterStats {
	clone := &IterStats{Overall: s.Overall, ByStatus: make(map[status.Status]Counter, len(s.ByStatus))}
	for st, c := range s.ByStatus {
		clone.ByStatus[st] = c
	}
	return clone
}
