/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the interactive keymap editing session: pointer handling,
// selection, drag-to-move and the add/modify/delete workflows, plus document and
// backdrop loading.
package editor

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"keymapeditor/internal/backdrop"
	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/render"
	"keymapeditor/internal/storage"
	"keymapeditor/internal/vector"
)

// ErrNoDocument is returned by operations that need an open keymap.
var ErrNoDocument = errors.New("no keymap loaded")

// State is the pointer interaction state.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store loads and saves documents.
type Store interface {
	Load(path string) (*domain.Document, error)
	Save(path string, doc *domain.Document) error
}

// BackdropLoader decodes a background image scaled to fit a viewport.
type BackdropLoader interface {
	Load(path string, vp vector.Viewport) (*backdrop.Backdrop, vector.Viewport, error)
}

// Options configures New. Only Prompter is required.
type Options struct {
	Prompter  Prompter
	Store     Store
	Backdrops BackdropLoader
	Viewport  vector.Viewport
	Scene     *vector.Scene
}

// Editor is one editing session. It is not safe for concurrent use: events must be
// delivered from a single goroutine. The scene it renders into may be read concurrently.
type Editor struct {
	prompt    Prompter
	store     Store
	backdrops BackdropLoader
	render    *render.Renderer

	doc      *domain.Document
	path     string
	vp       vector.Viewport
	bg       *backdrop.Backdrop
	selected domain.NodeID
	state    State

	onViewport func(vector.Viewport)
	log        *slog.Logger
}

// New returns an editor with no document open.
func New(opts Options) (*Editor, error) {
	if opts.Prompter == nil {
		return nil, errors.New("editor: prompter is required")
	}
	if !opts.Viewport.Valid() {
		return nil, fmt.Errorf("editor: %w: %s", vector.ErrInvalidViewport, opts.Viewport)
	}
	e := &Editor{
		prompt:    opts.Prompter,
		store:     opts.Store,
		backdrops: opts.Backdrops,
		render:    render.New(opts.Scene),
		vp:        opts.Viewport,
		log:       applog.WithComponent("editor"),
	}
	if e.store == nil {
		e.store = &storage.FileStore{Options: storage.SaveOptions{Backup: true}}
	}
	if e.backdrops == nil {
		e.backdrops = backdrop.Loader{}
	}
	return e, nil
}

func (e *Editor) Document() *domain.Document           { return e.doc }
func (e *Editor) Path() string                         { return e.path }
func (e *Editor) Viewport() vector.Viewport            { return e.vp }
func (e *Editor) State() State                         { return e.state }
func (e *Editor) Scene() *vector.Scene                 { return e.render.Scene() }
func (e *Editor) Renderer() *render.Renderer           { return e.render }
func (e *Editor) Backdrop() *backdrop.Backdrop         { return e.bg }
func (e *Editor) Snapshot() (string, *domain.Document) { return e.path, e.doc }

// Selection returns the selected node, if any.
func (e *Editor) Selection() (*domain.Node, bool) {
	if e.selected == "" {
		return nil, false
	}
	reg := e.render.Lookup(e.selected)
	if reg == nil {
		return nil, false
	}
	return reg.Node, true
}

// OnViewportChange registers fn to be called whenever the viewport is replaced by a
// loaded document or backdrop.
func (e *Editor) OnViewportChange(fn func(vector.Viewport)) { e.onViewport = fn }

func (e *Editor) setViewport(vp vector.Viewport) {
	if vp == e.vp {
		return
	}
	e.log.Debug("viewport changed", slog.String("from", e.vp.String()), slog.String("to", vp.String()))
	e.vp = vp
	if e.onViewport != nil {
		e.onViewport(vp)
	}
}

func (e *Editor) backdropImage() image.Image {
	if e.bg == nil {
		return nil
	}
	return e.bg.Image
}

// Redraw rebuilds the whole scene from the document.
func (e *Editor) Redraw() { e.render.RenderAll(e.doc, e.vp, e.backdropImage()) }

// PointerDown handles a primary press at pixel p: a hit selects the node, a miss
// clears the selection.
func (e *Editor) PointerDown(p vector.Pt) {
	if reg := e.render.HitTest(p); reg != nil {
		e.selected = reg.Node.ID
		e.state = StateSelecting
		return
	}
	e.selected = ""
	e.state = StateIdle
}

// PointerMove drags the selected node so that it is centered on p. Without a
// selection it does nothing.
func (e *Editor) PointerMove(p vector.Pt) {
	if e.selected == "" {
		return
	}
	reg := e.render.Lookup(e.selected)
	if reg == nil {
		e.selected = ""
		e.state = StateIdle
		return
	}
	e.state = StateDragging
	n := e.vp.ToNormalized(p)
	reg.Node.SetAnchor(domain.Point{X: n.X, Y: n.Y})
	e.render.MoveTo(reg, p)
}

// PointerUp ends a drag. The selection is kept.
func (e *Editor) PointerUp() {
	if e.state == StateDragging {
		e.state = StateSelecting
	}
}

// SecondaryClick opens the node menu for a hit, or the add workflow on empty space.
func (e *Editor) SecondaryClick(p vector.Pt) {
	if reg := e.render.HitTest(p); reg != nil {
		e.editNode(reg)
		return
	}
	e.addNode(p)
}
