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

// Package status classifies the outcome of a single benchmark iteration.
// Classification is entirely up to the workload under test: this package
// never infers success from the absence of an error.
package status // import "loadkit.dev/loadkit/status"

import "fmt"

// Kind is the broad category of an iteration outcome.
type Kind int

const (
	// Success indicates the iteration's semantic success condition held.
	Success Kind = iota
	// ClientError indicates a caller/request-side failure (e.g. HTTP 4xx).
	ClientError
	// ServerError indicates a callee-side failure (e.g. HTTP 5xx).
	ServerError
	// Error indicates any other classified failure.
	Error
)

// String returns the short display form used in status_dist keys.
func (k Kind) String() string {
	switch k {
	case Success:
		return "OK"
	case ClientError:
		return "CE"
	case ServerError:
		return "SE"
	case Error:
		return "ERR"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is a (kind, code) pair identifying an iteration's outcome. Status
// is comparable and may be used as a map key; both fields participate in
// equality.
type Status struct {
	Kind Kind
	Code int
}

// New builds a Status with the given kind and workload-chosen code.
func New(kind Kind, code int) Status {
	return Status{Kind: kind, Code: code}
}

// SuccessStatus builds a Status of kind Success.
func SuccessStatus(code int) Status {
	return Status{Kind: Success, Code: code}
}

// ClientErrorStatus builds a Status of kind ClientError.
func ClientErrorStatus(code int) Status {
	return Status{Kind: ClientError, Code: code}
}

// ServerErrorStatus builds a Status of kind ServerError.
func ServerErrorStatus(code int) Status {
	return Status{Kind: ServerError, Code: code}
}

// ErrorStatus builds a Status of kind Error.
func ErrorStatus(code int) Status {
	return Status{Kind: Error, Code: code}
}

// String renders the status as "KIND(code)", e.g. "OK(200)".
func (s Status) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.Code)
}
