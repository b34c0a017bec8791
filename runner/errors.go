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

import "fmt"

// ConfigError reports an invalid BenchOpts discovered by Normalize.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("runner: invalid config: %s", e.Reason)
}

// WorkerSetupError wraps a failure from a worker's Setup hook. It is
// always fatal to the run.
type WorkerSetupError struct {
	WorkerID int
	Err      error
}

func (e *WorkerSetupError) Error() string {
	return fmt.Sprintf("runner: worker %d setup failed: %v", e.WorkerID, e.Err)
}

func (e *WorkerSetupError) Unwrap() error {
	return e.Err
}
