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
	"context"
	"sync"

	"loadkit.dev/loadkit/report"
)

// PhaseWatch is a read-mostly "latest value" cell for BenchPhase
// transitions: a collector-facing dashboard can always read the latest
// phase, and may miss intermediate ones if it isn't watching closely.
// Built on the same broadcast-by-closing-channel idiom as PauseControl.
type PhaseWatch struct {
	mu    sync.Mutex
	value report.BenchPhase
	ch    chan struct{}
}

// NewPhaseWatch creates a watch starting at report.PendingPhase().
func NewPhaseWatch() *PhaseWatch {
	return &PhaseWatch{value: report.PendingPhase(), ch: make(chan struct{})}
}

// Publish sets the latest phase and wakes any goroutine blocked in
// Changed.
func (w *PhaseWatch) Publish(p report.BenchPhase) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = p
	close(w.ch)
	w.ch = make(chan struct{})
}

// Latest returns the most recently published phase.
func (w *PhaseWatch) Latest() report.BenchPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Changed blocks until the next Publish call, then returns the new
// value. Returns ctx.Err() if ctx is done first.
func (w *PhaseWatch) Changed(ctx context.Context) (report.BenchPhase, error) {
	w.mu.Lock()
	ch := w.ch
	w.mu.Unlock()
	select {
	case <-ch:
		return w.Latest(), nil
	case <-ctx.Done():
		return report.BenchPhase{}, ctx.Err()
	}
}
