/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CrashAutosavePrefix names records written by WriteCrashAutosave.
const CrashAutosavePrefix = "autosave-crash-"

// WriteCrashAutosave writes data into dir/backups as a timestamped record
// and returns its path. The configured store is not involved.
func WriteCrashAutosave(dir string, data []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("create crash autosave dir: %w", err)
	}
	name := CrashAutosavePrefix + time.Now().Format("20060102-150405") + ".json"
	path := filepath.Join(bdir, name)
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash autosave: %w", err)
	}
	return path, nil
}
