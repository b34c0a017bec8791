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

import "strconv"

// percentileKey renders a percentile like 99.99 as the JSON object key
// "p99.99".
func percentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}

// formatSeconds renders a histogram bucket's upper bound (in seconds) as
// a compact JSON object key, trimming trailing zeros.
func formatSeconds(secs float64) string {
	return strconv.FormatFloat(secs, 'f', -1, 64)
}

// PercentileValue looks up a previously-saved percentile by its percentage
// (e.g. 90 for p90), returning ok=false if the baseline doesn't carry it
// (older schema, or a percentile list that didn't include it).
func (l *Latency) PercentileValue(p float64) (float64, bool) {
	if l == nil {
		return 0, false
	}
	v, ok := l.Percentiles[percentileKey(p)]
	return v, ok
}
