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

package baseline

import "fmt"

// Validate checks that the current run's concurrency and rate limit match
// the ones this baseline was captured under: these two materially change
// achievable throughput, so a mismatch makes a numeric comparison
// meaningless and must fail fast, before the runner even starts.
// Duration, iteration count and warmup are deliberately not checked here.
func (b *Baseline) Validate(concurrency int, rateLimit *float64) error {
	want := b.Metadata.BenchConfig
	if want.Concurrency != concurrency {
		return &ValidationError{
			Field:    "concurrency",
			Current:  fmt.Sprintf("%d", concurrency),
			Baseline: fmt.Sprintf("%d", want.Concurrency),
		}
	}
	switch {
	case want.RateLimit == nil && rateLimit == nil:
		// both unconstrained: fine.
	case want.RateLimit == nil || rateLimit == nil:
		return &ValidationError{
			Field:    "rate_limit",
			Current:  optFloatString(rateLimit),
			Baseline: optFloatString(want.RateLimit),
		}
	case *want.RateLimit != *rateLimit:
		return &ValidationError{
			Field:    "rate_limit",
			Current:  optFloatString(rateLimit),
			Baseline: optFloatString(want.RateLimit),
		}
	}
	return nil
}

func optFloatString(f *float64) string {
	if f == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *f)
}
