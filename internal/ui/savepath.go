/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package ui

import (
	"errors"
	"path/filepath"
	"strings"
)

var errBadFileName = errors.New("file name must not be empty or contain a path separator")

// savePath joins a chosen folder and a typed file name. Names without an extension
// get ".json". Nothing is created or opened.
func savePath(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errBadFileName
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	return filepath.Join(dir, name), nil
}

// suggestedName is the file name offered for a save; the current one if any.
func suggestedName(current string) string {
	if current == "" {
		return "keymap.json"
	}
	return filepath.Base(current)
}
