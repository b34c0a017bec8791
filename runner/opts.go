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

package runner

import (
	"time"

	"loadkit.dev/loadkit/clock"
)

// BenchOpts configures a Runner. Iterations, Duration and Rate are
// pointers because each is independently optional; when both Iterations
// and Duration are set the run stops on whichever trips first. A nil
// Rate means unconstrained throughput.
type BenchOpts struct {
	Clock       *clock.Clock
	Concurrency int
	Iterations  *uint64
	Duration    *time.Duration
	Warmups     uint64
	Rate        *float64
}

// Normalize fills in defaults (a fresh, paused Clock if none was given --
// the leader resumes it at the bench barrier per §4.6 step 3, so setup
// and warmup never count towards elapsed bench time) and rejects
// nonsensical configuration.
func (o *BenchOpts) Normalize() error {
	if o.Concurrency <= 0 {
		return &ConfigError{Reason: "concurrency must be >= 1"}
	}
	if o.Clock == nil {
		o.Clock = clock.NewPaused()
	}
	if o.Rate != nil && *o.Rate <= 0 {
		return &ConfigError{Reason: "rate must be > 0 when set"}
	}
	if o.Duration != nil && *o.Duration <= 0 {
		return &ConfigError{Reason: "duration must be > 0 when set"}
	}
	if o.Iterations != nil && *o.Iterations == 0 {
		return &ConfigError{Reason: "iterations must be >= 1 when set"}
	}
	return nil
}
