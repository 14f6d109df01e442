/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the open keymap.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/storage"
	"keymapeditor/internal/version"
)

// Snapshotter exposes the document being edited. path is empty for a document that
// was never saved; doc is nil when nothing is open.
type Snapshotter interface {
	Snapshot() (path string, doc *domain.Document)
}

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts a crash-safe autosave
// of the open document (if any).
//
// Usage: defer crash.Recover(editor)
func Recover(snap Snapshotter) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()

		var path string
		var doc *domain.Document
		if snap != nil {
			path, doc = snap.Snapshot()
		}
		ctx := context.Background()
		if path != "" {
			ctx = applog.WithDocument(ctx, path)
		}
		l.ErrorContext(ctx, "panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))
		reportPath, _ := writeReport(path, r, stack)
		if doc != nil {
			if out, err := storage.AutosaveCrashSnapshot(path, doc); err != nil {
				l.ErrorContext(ctx, "autosave crash snapshot failed", slog.Any("err", err))
			} else {
				l.InfoContext(ctx, "autosave crash snapshot written", slog.String("path", out))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func writeReport(docPath string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if docPath != "" {
		dir = filepath.Join(filepath.Dir(docPath), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "KeyMap Editor Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if docPath != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", docPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
