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
	"sync/atomic"
)

// barrier releases exactly once n goroutines have called Arrive, and
// designates the arrival that closed the gate as the leader. The leader
// performs the once-per-phase-transition work (publishing a phase,
// resuming the clock).
type barrier struct {
	n     int32
	count atomic.Int32
	done  chan struct{}
}

// newBarrier creates a barrier sized to n arrivals.
func newBarrier(n int) *barrier {
	return &barrier{n: int32(n), done: make(chan struct{})}
}

// Arrive blocks until n goroutines have called Arrive, or ctx is done.
// leader is true for exactly one caller: the one whose arrival satisfied
// the barrier.
func (b *barrier) Arrive(ctx context.Context) (leader bool, err error) {
	if b.count.Add(1) == b.n {
		close(b.done)
		return true, nil
	}
	select {
	case <-b.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
