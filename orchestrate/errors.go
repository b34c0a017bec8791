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

package orchestrate

import (
	"fmt"

	"loadkit.dev/loadkit/compare"
)

// RegressionError is returned by Run when FailOnRegression is set and the
// comparison verdict is Regressed or Mixed. It is the defined signal a
// CLI maps to a non-zero exit code via errors.As.
type RegressionError struct {
	Verdict      compare.Verdict
	BaselineName string
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("orchestrate: regression against baseline %q: verdict=%s", e.BaselineName, e.Verdict)
}
