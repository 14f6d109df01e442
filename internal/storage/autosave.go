/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"keymapeditor/internal/domain"
)

// AutosaveCrashSnapshot writes doc next to the backups of path as
// <name>.crash-<stamp>.json and returns the written file. An empty path means the
// document was never saved; the snapshot then goes to the temp directory.
func AutosaveCrashSnapshot(path string, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}
	dir := filepath.Join(os.TempDir(), "keymapeditor")
	name := "untitled"
	if strings.TrimSpace(path) != "" {
		dir = filepath.Join(filepath.Dir(path), BackupsDirName)
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	out := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", name, time.Now().Format(backupStamp)))
	if err := Save(out, doc, SaveOptions{}); err != nil {
		return "", fmt.Errorf("autosave: %w", err)
	}
	return out, nil
}
