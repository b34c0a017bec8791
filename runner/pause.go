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
	"sync/atomic"
)

// PauseControl is a single-writer, multi-reader pause gate shared between
// the runner and an external controller (e.g. a TUI). The fast path
// (not paused) is a single atomic load; the slow path subscribes to a
// resume broadcast before rechecking the flag, to avoid missing a resume
// that races the check.
type PauseControl struct {
	paused atomic.Bool

	mu       sync.Mutex
	resumeCh chan struct{}
}

// NewPauseControl creates a control in the running (not paused) state.
func NewPauseControl() *PauseControl {
	return &PauseControl{resumeCh: make(chan struct{})}
}

// IsPaused reports whether the control is currently paused.
func (p *PauseControl) IsPaused() bool {
	return p.paused.Load()
}

// Pause gates subsequent WaitIfPaused calls until Resume is called.
func (p *PauseControl) Pause() {
	p.paused.Store(true)
}

// Resume releases the gate and wakes every goroutine blocked in
// WaitIfPaused.
func (p *PauseControl) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused.Load() {
		return
	}
	p.paused.Store(false)
	close(p.resumeCh)
	p.resumeCh = make(chan struct{})
}

// WaitIfPaused blocks while the control is paused, subscribing to the
// resume broadcast before each recheck of the flag. Returns ctx.Err() if
// ctx is cancelled before a resume.
func (p *PauseControl) WaitIfPaused(ctx context.Context) error {
	if !p.IsPaused() {
		return nil
	}
	for {
		p.mu.Lock()
		ch := p.resumeCh
		p.mu.Unlock()
		if !p.IsPaused() {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
