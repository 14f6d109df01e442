/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
)

// ErrSchema is returned by FileStore.Load when schema validation is enabled and the
// file does not conform.
var ErrSchema = errors.New("keymap does not conform to schema")

// FileStore is the file-backed document store used by the editor.
type FileStore struct {
	Options        SaveOptions
	ValidateOnOpen bool
	// Recent, when set, is touched on every successful load and save.
	Recent *RecentIndex
}

func (s *FileStore) Load(path string) (*domain.Document, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load").With(slog.String("path", path))
	if s.ValidateOnOpen {
		data, err := os.ReadFile(path)
		if err != nil {
			s.forgetMissing(path, err)
			return nil, fmt.Errorf("open keymap: %w", err)
		}
		problems, err := Validate(data)
		if err != nil {
			return nil, fmt.Errorf("parse keymap: %w", err)
		}
		if len(problems) > 0 {
			l.Warn("schema validation failed", slog.Int("problems", len(problems)))
			return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(problems, "; "))
		}
	}
	doc, err := Load(path)
	if err != nil {
		l.Error("load failed", slog.Any("err", err))
		s.forgetMissing(path, err)
		return nil, err
	}
	l.Info("keymap loaded", slog.Int("nodes", len(doc.Nodes)))
	s.touch(path, len(doc.Nodes))
	return doc, nil
}

func (s *FileStore) Save(path string, doc *domain.Document) error {
	if err := Save(path, doc, s.Options); err != nil {
		return err
	}
	s.touch(path, len(doc.Nodes))
	return nil
}

func (s *FileStore) touch(path string, nodes int) {
	if s.Recent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Recent.Touch(ctx, path, nodes); err != nil {
		applog.WithComponent("storage").Warn("recent index update failed", slog.String("path", path), slog.Any("err", err))
	}
}

// forgetMissing drops path from the recent index once the file is gone.
func (s *FileStore) forgetMissing(path string, err error) {
	if s.Recent == nil || !errors.Is(err, os.ErrNotExist) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if ferr := s.Recent.Forget(ctx, path); ferr != nil {
		applog.WithComponent("storage").Warn("recent index cleanup failed", slog.String("path", path), slog.Any("err", ferr))
		return
	}
	applog.WithComponent("storage").Info("missing keymap removed from recent index", slog.String("path", path))
}
