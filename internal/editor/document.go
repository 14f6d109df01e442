/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/vector"
)

// OpenDocument asks for a keymap file and loads it. A failed load leaves the current
// document untouched.
func (e *Editor) OpenDocument() error {
	path, ok := e.prompt.PromptOpenPath()
	if !ok {
		return nil
	}
	return e.OpenPath(path)
}

// OpenPath loads the keymap at path.
func (e *Editor) OpenPath(path string) error {
	ctx := applog.WithDocument(context.Background(), path)
	l := applog.WithOperation(e.log, "open")
	doc, err := e.store.Load(path)
	if err != nil {
		l.ErrorContext(ctx, "open keymap failed", slog.Any("err", err))
		return err
	}
	e.LoadDocument(doc)
	e.path = path
	l.InfoContext(ctx, "document opened", slog.Int("nodes", len(doc.Nodes)))
	return nil
}

// LoadDocument makes doc the current document. Valid persisted dimensions replace
// the viewport; invalid ones are reported and the viewport is kept.
func (e *Editor) LoadDocument(doc *domain.Document) {
	if doc == nil {
		doc = domain.NewDocument()
	}
	l := applog.WithOperation(e.log, "load")
	if w, h, ok := doc.Dimensions(); ok {
		vp, _ := vector.NewViewport(w, h)
		e.setViewport(vp)
	} else if doc.HasDimensionFields() {
		l.Warn("invalid document dimensions", slog.Int("width", doc.Width), slog.Int("height", doc.Height))
		e.prompt.Notify(NoticeWarning, AppTitle, fmt.Sprintf(InvalidDimsFormat, doc.Width, doc.Height, e.vp))
	}
	e.doc = doc
	e.path = ""
	e.selected = ""
	e.state = StateIdle
	e.Redraw()
	l.Info("document loaded", slog.Int("nodes", len(doc.Nodes)), slog.String("viewport", e.vp.String()))
}

// SaveDocument asks for a target path and writes the document with the current
// viewport size stamped into it.
func (e *Editor) SaveDocument() error {
	l := applog.WithOperation(e.log, "save")
	if e.doc == nil {
		l.Warn("save without document")
		e.prompt.Notify(NoticeWarning, AppTitle, NothingToSave)
		return ErrNoDocument
	}
	path, ok := e.prompt.PromptSavePath(e.path)
	if !ok {
		return nil
	}
	ctx := applog.WithDocument(context.Background(), path)
	e.doc.SetDimensions(e.vp.W, e.vp.H)
	if err := e.store.Save(path, e.doc); err != nil {
		l.ErrorContext(ctx, "save failed", slog.Any("err", err))
		return fmt.Errorf("save keymap: %w", err)
	}
	e.path = path
	l.InfoContext(ctx, "document saved", slog.Int("nodes", len(e.doc.Nodes)), slog.String("viewport", e.vp.String()))
	e.prompt.Notify(NoticeInfo, AppTitle, SavedMessage)
	return nil
}

// OpenBackdrop asks for an image and uses it as the background.
func (e *Editor) OpenBackdrop() error {
	path, ok := e.prompt.PromptImagePath()
	if !ok {
		return nil
	}
	return e.OpenBackdropPath(path)
}

// OpenBackdropPath loads the image at path scaled to fit the viewport. The viewport
// then becomes the scaled image size.
func (e *Editor) OpenBackdropPath(path string) error {
	bd, vp, err := e.backdrops.Load(path, e.vp)
	if err != nil {
		return fmt.Errorf("load backdrop: %w", err)
	}
	if bd == nil {
		return errors.New("load backdrop: loader returned no image")
	}
	e.bg = bd
	e.setViewport(vp)
	e.Redraw()
	return nil
}
