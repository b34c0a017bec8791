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

// Package clock provides a pausable logical clock used to pace benchmark
// runs: the duration budget, the rate limiter and the rolling windows all
// derive their notion of "now" from here instead of the wall clock, so that
// pausing a run genuinely freezes every time-driven subsystem.
package clock // import "loadkit.dev/loadkit/clock"

import (
	"sync"
	"time"
)

// Clock is a monotonic, pausable stopwatch. The zero value is a valid,
// paused clock with zero elapsed time; use New or StartAt for a clock that
// is already running (StartAt pins the start instant, which tests use to
// make elapsed-time assertions exact).
type Clock struct {
	mu        sync.Mutex
	running   bool
	start     time.Time // wall clock instant Running last became true; only read while running
	accumated time.Duration
	epoch     time.Time // fixed reference instant used by Now()
}

// New creates a running clock anchored at time.Now().
func New() *Clock {
	return StartAt(time.Now())
}

// StartAt creates a running clock anchored at the given instant.
func StartAt(t time.Time) *Clock {
	return &Clock{running: true, start: t, epoch: t}
}

// NewPaused creates a clock in the paused state, with zero elapsed time.
func NewPaused() *Clock {
	now := time.Now()
	return &Clock{running: false, epoch: now}
}

// Elapsed returns the total logical time the clock has spent Running.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

func (c *Clock) elapsedLocked() time.Duration {
	if !c.running {
		return c.accumated
	}
	return c.accumated + time.Since(c.start)
}

// Now returns a wall-clock-shaped time.Time anchored to this clock's
// elapsed logical time (epoch + Elapsed()). Useful for feeding APIs that
// only accept time.Time (e.g. golang.org/x/time/rate.Limiter.ReserveN)
// while keeping them driven entirely by the logical clock.
func (c *Clock) Now() time.Time {
	return c.epoch.Add(c.Elapsed())
}

// Pause freezes the clock. Idempotent.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.accumated += time.Since(c.start)
	c.running = false
}

// Resume unfreezes the clock. Idempotent.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.start = time.Now()
}

// IsRunning reports whether the clock is currently accumulating time.
func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Sleep blocks until d logical-time has elapsed, re-arming on every wake
// with the remaining logical duration. If the clock is paused indefinitely,
// Sleep never returns (matching the semantics of a logical-time sleep: a
// paused clock does not advance, so the wake condition is never reached).
// Sleep returns early if ctx is cancelled.
func (c *Clock) Sleep(ctx sleepCtx, d time.Duration) {
	wake := c.Elapsed() + d
	for {
		remaining := wake - c.Elapsed()
		if remaining <= 0 {
			return
		}
		t := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// sleepCtx is the minimal subset of context.Context Sleep needs; declared
// locally so this package doesn't have to import context just for a Done()
// channel (runner passes context.Context directly, which satisfies this).
type sleepCtx interface {
	Done() <-chan struct{}
}

// Ticker yields a tick every time elapsed logical time crosses another
// multiple of period: the k-th tick fires when Elapsed() >= k*period.
type Ticker struct {
	clock  *Clock
	period time.Duration
	next   time.Duration
}

// Ticker creates a ticker over c firing every period of logical time.
func (c *Clock) Ticker(period time.Duration) *Ticker {
	return &Ticker{clock: c, period: period, next: period}
}

// Tick blocks until the next logical tick, or ctx is done.
func (t *Ticker) Tick(ctx sleepCtx) {
	now := t.clock.Elapsed()
	if t.next > now {
		t.clock.Sleep(ctx, t.next-now)
	}
	t.next += t.period
}
