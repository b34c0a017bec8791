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

package histogram

import (
	"testing"
	"time"
)

func TestEmptyHistogram(t *testing.T) {
	h := New()
	if !h.IsEmpty() {
		t.Fatalf("new histogram should be empty")
	}
	if h.Count() != 0 {
		t.Fatalf("expected count 0, got %d", h.Count())
	}
}

func TestRecordAndQuantiles(t *testing.T) {
	h := New()
	for _, ms := range []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100} {
		if err := h.Record(time.Duration(ms) * time.Millisecond); err != nil {
			t.Fatalf("Record(%dms): %v", ms, err)
		}
	}
	if h.IsEmpty() {
		t.Fatalf("histogram should not be empty after recording")
	}
	if h.Count() != 10 {
		t.Fatalf("expected count 10, got %d", h.Count())
	}
	if h.Min() > 11*time.Millisecond {
		t.Fatalf("min too large: %v", h.Min())
	}
	if h.Max() < 99*time.Millisecond {
		t.Fatalf("max too small: %v", h.Max())
	}
	med := h.Median()
	if med < 40*time.Millisecond || med > 60*time.Millisecond {
		t.Fatalf("median out of expected range: %v", med)
	}
}

func TestRecordNegativeClampsToZero(t *testing.T) {
	h := New()
	if err := h.Record(-5 * time.Second); err != nil {
		t.Fatalf("negative duration should clamp instead of erroring: %v", err)
	}
	if h.Min() != 0 {
		t.Fatalf("expected clamped min 0, got %v", h.Min())
	}
}

func TestRecordTooLarge(t *testing.T) {
	h := New()
	err := h.Record(24 * time.Hour)
	if err != ErrLatencyTooLarge {
		t.Fatalf("expected ErrLatencyTooLarge, got %v", err)
	}
}

func TestPercentilesOrdering(t *testing.T) {
	h := New()
	for i := 1; i <= 1000; i++ {
		h.Record(time.Duration(i) * time.Millisecond)
	}
	pcts := h.Percentiles(PERCENTAGES)
	var last time.Duration
	for _, p := range pcts {
		if p.Value < last {
			t.Fatalf("percentiles not monotonic: %v then %v", last, p.Value)
		}
		last = p.Value
	}
}

func TestQuantilesNonEmptyOnly(t *testing.T) {
	h := New()
	h.Record(10 * time.Millisecond)
	h.Record(20 * time.Millisecond)
	buckets := h.Quantiles()
	for _, b := range buckets {
		if b.Count == 0 {
			t.Fatalf("Quantiles should omit empty buckets")
		}
	}
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	if total != 2 {
		t.Fatalf("expected total count 2 across buckets, got %d", total)
	}
}
