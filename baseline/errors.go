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

// NameError reports a BaselineName that fails the grammar ParseBaselineName
// enforces.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("baseline: invalid name %q: %s", e.Name, e.Reason)
}

// Op identifies which step of a save or load failed.
type Op string

const (
	OpOpen      Op = "open"
	OpParse     Op = "parse"
	OpCreateDir Op = "create_dir"
	OpCreateTmp Op = "create_temp"
	OpSerialize Op = "serialize"
	OpFlush     Op = "flush"
	OpSync      Op = "sync"
	OpRename    Op = "rename"
)

// Error wraps a failure at a specific step of Save or Load, along with
// the baseline name and underlying cause.
type Error struct {
	Op   Op
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("baseline: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError reports a mismatch between the current run's
// configuration and a loaded baseline's, for fields that materially
// change achievable throughput: concurrency and rate limit.
type ValidationError struct {
	Field    string
	Current  string
	Baseline string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("baseline: %s mismatch: current=%s baseline=%s", e.Field, e.Current, e.Baseline)
}
