/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
)

const (
	BackupsDirName = ".keymap-backups"
	backupStamp    = "20060102-150405"
)

// SaveOptions controls Save.
type SaveOptions struct {
	// Backup copies an existing target into BackupsDirName before it is replaced.
	Backup bool
}

// Load reads and parses the keymap document at path.
func Load(path string) (*domain.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keymap: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses a keymap document.
func Decode(r io.Reader) (*domain.Document, error) {
	doc, err := domain.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("parse keymap: %w", err)
	}
	return doc, nil
}

// Save writes doc to path with transactional semantics: the document is written to a
// temp file in the same directory which then replaces the target.
func Save(path string, doc *domain.Document, opts SaveOptions) error {
	if doc == nil {
		return errors.New("nil document")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", path))
	var buf bytes.Buffer
	if err := domain.Encode(&buf, doc); err != nil {
		return fmt.Errorf("encode keymap: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if opts.Backup {
		if _, statErr := os.Stat(path); statErr == nil {
			bpath := backupPath(path, time.Now())
			if cerr := copyFile(path, bpath); cerr != nil {
				return fmt.Errorf("backup current keymap: %w", cerr)
			}
			l.Debug("backup written", slog.String("backup", bpath))
		}
	}

	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, buf.Bytes()); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp keymap: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace keymap: %w", rerr)
	}
	l.Info("keymap saved", slog.Int("nodes", len(doc.Nodes)), slog.Int("bytes", buf.Len()))
	return nil
}

func backupPath(path string, now time.Time) string {
	return filepath.Join(filepath.Dir(path), BackupsDirName,
		fmt.Sprintf("%s.%s.bak", filepath.Base(path), now.Format(backupStamp)))
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
