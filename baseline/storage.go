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

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"fortio.org/log"
)

// Directory env overrides, consulted in ResolveDir's priority order: an
// explicit directory argument always wins; failing that,
// LoadkitBaselineDirEnv; failing that, a subdirectory of
// LoadkitTargetDirEnv; failing that, DefaultBaselineDir.
const (
	LoadkitBaselineDirEnv = "LOADKIT_BASELINE_DIR"
	LoadkitTargetDirEnv   = "LOADKIT_TARGET_DIR"
	DefaultBaselineDir    = "target/loadkit/baselines"
)

// ResolveDir picks the baseline directory to use, following the priority
// order: explicit argument (non-empty) > LOADKIT_BASELINE_DIR >
// $LOADKIT_TARGET_DIR/loadkit/baselines > the hard-coded default.
func ResolveDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := os.Getenv(LoadkitBaselineDirEnv); dir != "" {
		return dir
	}
	if target := os.Getenv(LoadkitTargetDirEnv); target != "" {
		return filepath.Join(target, "loadkit", "baselines")
	}
	return DefaultBaselineDir
}

func path(dir string, name BaselineName) string {
	return filepath.Join(dir, name.String()+".json")
}

// Save writes b to dir/<name>.json, creating dir if needed. The write is
// atomic: it serializes to dir/<name>.json.tmp, flushes and fsyncs that
// file, then renames it over the final path, so a process crash or power
// loss mid-write never corrupts a previously-saved baseline.
func Save(dir string, name BaselineName, b *Baseline) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: OpCreateDir, Name: name.String(), Err: err}
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return &Error{Op: OpSerialize, Name: name.String(), Err: err}
	}
	data = append(data, '\n')

	tmpPath := path(dir, name) + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return &Error{Op: OpCreateTmp, Name: name.String(), Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return &Error{Op: OpFlush, Name: name.String(), Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return &Error{Op: OpSync, Name: name.String(), Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &Error{Op: OpFlush, Name: name.String(), Err: err}
	}
	if err := os.Rename(tmpPath, path(dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return &Error{Op: OpRename, Name: name.String(), Err: err}
	}
	log.Infof("baseline: saved %q to %s", name, dir)
	return nil
}

// Load opens and parses dir/<name>.json. If the file's schema_version
// exceeds CurrentSchemaVersion, Load still attempts a best-effort parse
// (unknown fields are ignored by encoding/json) and logs a non-fatal
// warning: a newer baseline may carry extra fields an older reader
// should tolerate, as long as the fields this version depends on are
// present.
func Load(dir string, name BaselineName) (*Baseline, error) {
	f, err := os.Open(path(dir, name))
	if err != nil {
		return nil, &Error{Op: OpOpen, Name: name.String(), Err: err}
	}
	defer f.Close()

	var b Baseline
	if err := json.NewDecoder(f).Decode(&b); err != nil {
		return nil, &Error{Op: OpParse, Name: name.String(), Err: err}
	}
	if b.SchemaVersion > CurrentSchemaVersion {
		log.Warnf("baseline: %q has schema_version %d, newer than this build's %d; parsing best-effort",
			name, b.SchemaVersion, CurrentSchemaVersion)
	}
	return &b, nil
}

// Exists reports whether a baseline named name exists in dir, without
// parsing it.
func Exists(dir string, name BaselineName) bool {
	_, err := os.Stat(path(dir, name))
	return err == nil
}

// IsNotExist reports whether err is (or wraps) a "baseline does not
// exist" condition from Load, mirroring os.IsNotExist for the wrapped
// baseline.Error.
func IsNotExist(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Op == OpOpen && os.IsNotExist(be.Err)
	}
	return false
}
