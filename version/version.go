// Copyright 2017 Fortio Authors
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

// Package version holds loadkit's own version and build information,
// used to stamp the tool_version field of a saved baseline, via the
// [fortio.org/version] helper library. The text and JSON reporters do not
// print it.
package version // import "loadkit.dev/loadkit/version"
import (
	"fortio.org/version"
)

var (
	// The following are (re)computed in init().
	shortVersion = "dev"
	longVersion  = "unknown long"
	fullVersion  = "unknown full"
)

// Short returns the 3 digit short loadkit version string Major.Minor.Patch,
// matching the project git tag (without the leading v), or "dev" when not
// built from a tag / not `go install loadkit.dev/loadkit@latest`. This is
// the string stamped into a baseline's metadata.tool_version field.
func Short() string {
	return shortVersion
}

// Long returns the long loadkit version and build information.
// Format is "X.Y.Z hash go-version processor os".
func Long() string {
	return longVersion
}

// Full returns the Long version plus all the run time BuildInfo, i.e. all
// the dependent modules and their versions and hashes as well.
func Full() string {
	return fullVersion
}

// This "burns in" the loadkit version. We need to get the "right" version
// though, depending on whether we are a module or the main build.
func init() { //nolint:gochecknoinits // we do need an init for this
	shortVersion, longVersion, fullVersion = version.FromBuildInfoPath("loadkit.dev/loadkit")
}
