/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"keymapeditor/internal/backdrop"
	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/vector"
)

// scriptPrompter answers prompts from queued replies and records notices.
type scriptPrompter struct {
	kinds     []domain.Kind
	strings   []string
	keys      []domain.DirectionKeys
	actions   []NodeAction
	openPaths []string
	savePaths []string
	images    []string

	lastInitial string
	lastKeys    domain.DirectionKeys
	notices     []string
}

func pop[T any](q *[]T) (T, bool) {
	var zero T
	if len(*q) == 0 {
		return zero, false
	}
	v := (*q)[0]
	*q = (*q)[1:]
	return v, true
}

func (s *scriptPrompter) ChooseNodeType() (domain.Kind, bool) {
	k, ok := pop(&s.kinds)
	return k, ok && k != 0
}

func (s *scriptPrompter) PromptString(_, _, initial string) (string, bool) {
	s.lastInitial = initial
	return pop(&s.strings)
}

func (s *scriptPrompter) PromptDirectionKeys(initial domain.DirectionKeys) (domain.DirectionKeys, bool) {
	s.lastKeys = initial
	return pop(&s.keys)
}

func (s *scriptPrompter) ChooseNodeAction(*domain.Node) (NodeAction, bool) {
	a, ok := pop(&s.actions)
	return a, ok && a != 0
}

func (s *scriptPrompter) PromptOpenPath() (string, bool)          { return pop(&s.openPaths) }
func (s *scriptPrompter) PromptSavePath(string) (string, bool)    { return pop(&s.savePaths) }
func (s *scriptPrompter) PromptImagePath() (string, bool)         { return pop(&s.images) }
func (s *scriptPrompter) Notify(level NoticeLevel, _, msg string) { s.notices = append(s.notices, fmt.Sprintf("%d:%s", level, msg)) }

// memStore keeps documents as encoded JSON keyed by path.
type memStore struct {
	files   map[string]string
	saveErr error
}

func (m *memStore) Load(path string) (*domain.Document, error) {
	s, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("open keymap: %s: not found", path)
	}
	return domain.Decode(strings.NewReader(s))
}

func (m *memStore) Save(path string, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	var b strings.Builder
	if err := domain.Encode(&b, doc); err != nil {
		return err
	}
	m.files[path] = b.String()
	return nil
}

type fakeBackdrops struct {
	out vector.Viewport
	err error
}

func (f fakeBackdrops) Load(path string, _ vector.Viewport) (*backdrop.Backdrop, vector.Viewport, error) {
	if f.err != nil {
		return nil, vector.Viewport{}, f.err
	}
	return &backdrop.Backdrop{Source: path}, f.out, nil
}

func newEditor(t *testing.T, w, h int) (*Editor, *scriptPrompter, *memStore) {
	t.Helper()
	p := &scriptPrompter{}
	store := &memStore{files: map[string]string{}}
	e, err := New(Options{Prompter: p, Store: store, Backdrops: fakeBackdrops{out: vector.Viewport{W: w, H: h}}, Viewport: vector.Viewport{W: w, H: h}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return e, p, store
}

func TestNewRequiresPrompterAndViewport(t *testing.T) {
	if _, err := New(Options{Viewport: vector.Viewport{W: 1, H: 1}}); err == nil {
		t.Fatalf("expected error without prompter")
	}
	if _, err := New(Options{Prompter: &scriptPrompter{}}); !errors.Is(err, vector.ErrInvalidViewport) {
		t.Fatalf("expected ErrInvalidViewport, got %v", err)
	}
}

func TestDragScenario(t *testing.T) {
	e, p, store := newEditor(t, 400, 300)
	store.files["in.json"] = `{"width":100,"height":100,"keyMapNodes":[{"type":"KMT_CLICK","key":"Key_W","pos":{"x":0.5,"y":0.5}}]}`
	p.openPaths = []string{"in.json"}
	if err := e.OpenDocument(); err != nil {
		t.Fatalf("OpenDocument error: %v", err)
	}
	if e.Viewport() != (vector.Viewport{W: 100, H: 100}) {
		t.Fatalf("viewport not taken from document: %s", e.Viewport())
	}

	e.PointerDown(vector.Pt{X: 50, Y: 50})
	if e.State() != StateSelecting {
		t.Fatalf("state after hit: %s", e.State())
	}
	e.PointerMove(vector.Pt{X: 60, Y: 70})
	if e.State() != StateDragging {
		t.Fatalf("state while dragging: %s", e.State())
	}
	e.PointerUp()
	if e.State() != StateSelecting {
		t.Fatalf("state after release: %s", e.State())
	}
	node := e.Document().Nodes[0]
	if pos, _ := node.Anchor(); pos.X != 0.6 || pos.Y != 0.7 {
		t.Fatalf("pos after drag: %+v", pos)
	}
	if sel, ok := e.Selection(); !ok || sel != node {
		t.Fatalf("selection lost after drag")
	}

	p.savePaths = []string{"out.json"}
	if err := e.SaveDocument(); err != nil {
		t.Fatalf("SaveDocument error: %v", err)
	}
	saved, err := store.Load("out.json")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if w, h, ok := saved.Dimensions(); !ok || w != 100 || h != 100 {
		t.Fatalf("saved dims: %d x %d", w, h)
	}
	if pos, _ := saved.Nodes[0].Anchor(); pos.X != 0.6 || pos.Y != 0.7 {
		t.Fatalf("saved pos: %+v", pos)
	}
	if len(p.notices) != 1 || p.notices[0] != fmt.Sprintf("%d:%s", NoticeInfo, SavedMessage) {
		t.Fatalf("notices: %v", p.notices)
	}
	if e.Path() != "out.json" {
		t.Fatalf("path after save: %q", e.Path())
	}
}

func TestDragTeleportsVisualsToPointer(t *testing.T) {
	e, _, _ := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_W", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	e.PointerDown(vector.Pt{X: 65, Y: 65})
	e.PointerMove(vector.Pt{X: 10, Y: 20})
	reg := e.Renderer().Lookup(doc.Nodes[0].ID)
	bound, _ := e.Scene().Item(reg.Bound)
	if bound.Rect.Center() != (vector.Pt{X: 10, Y: 20}) {
		t.Fatalf("node should be centered on the pointer, got %+v", bound.Rect.Center())
	}
}

func TestPointerMissClearsSelection(t *testing.T) {
	e, _, _ := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_W", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	e.PointerDown(vector.Pt{X: 50, Y: 50})
	e.PointerDown(vector.Pt{X: 1, Y: 1})
	if _, ok := e.Selection(); ok || e.State() != StateIdle {
		t.Fatalf("miss should clear selection")
	}
	e.PointerMove(vector.Pt{X: 90, Y: 90})
	if pos, _ := doc.Nodes[0].Anchor(); pos.X != 0.5 || pos.Y != 0.5 {
		t.Fatalf("move without selection changed the node: %+v", pos)
	}
}

func TestAddSteerWheel(t *testing.T) {
	e, p, _ := newEditor(t, 400, 400)
	p.kinds = []domain.Kind{domain.KindSteerWheel}
	e.SecondaryClick(vector.Pt{X: 200, Y: 200})
	doc := e.Document()
	if doc == nil || len(doc.Nodes) != 1 {
		t.Fatalf("expected a new document with one node")
	}
	n := doc.Nodes[0]
	if pos, ok := n.Anchor(); !ok || pos.X != 0.5 || pos.Y != 0.5 {
		t.Fatalf("centerPos: %+v", pos)
	}
	if n.DirectionKeys() != domain.DefaultDirectionKeys() || n.Comment != "wasd" || n.Type != domain.TypeSteerWheel {
		t.Fatalf("defaults: %+v", n)
	}
	if reg := e.Renderer().Lookup(n.ID); reg == nil || reg.Radius != 50 {
		t.Fatalf("new node not rendered")
	}
}

func TestAddClick(t *testing.T) {
	e, p, _ := newEditor(t, 200, 100)
	p.kinds = []domain.Kind{domain.KindClick}
	p.strings = []string{"Key_Space"}
	e.SecondaryClick(vector.Pt{X: 50, Y: 25})
	n := e.Document().Nodes[0]
	if n.Label() != "Key_Space" || n.Comment != "Key_Space" || n.Type != domain.TypeClick {
		t.Fatalf("click fields: %+v", n)
	}
	if pos, _ := n.Anchor(); pos.X != 0.25 || pos.Y != 0.25 {
		t.Fatalf("pos: %+v", pos)
	}
	if e.Scene().Len() != 6 {
		t.Fatalf("expected 6 scene items, got %d", e.Scene().Len())
	}
}

func TestAddCancelPaths(t *testing.T) {
	e, p, _ := newEditor(t, 100, 100)
	// type cancelled
	e.SecondaryClick(vector.Pt{X: 10, Y: 10})
	// key cancelled
	p.kinds = []domain.Kind{domain.KindClick}
	e.SecondaryClick(vector.Pt{X: 10, Y: 10})
	// empty key
	p.kinds = []domain.Kind{domain.KindClick}
	p.strings = []string{""}
	e.SecondaryClick(vector.Pt{X: 10, Y: 10})
	if e.Document() != nil || e.Scene().Len() != 0 {
		t.Fatalf("cancelled adds must not mutate anything")
	}
}

func TestModifyClickUpdatesPrimaryLabelOnly(t *testing.T) {
	e, p, _ := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	p.actions = []NodeAction{ActionModify}
	p.strings = []string{"Key_B"}
	e.SecondaryClick(vector.Pt{X: 50, Y: 50})
	if p.lastInitial != "Key_A" {
		t.Fatalf("prompt should be pre-filled, got %q", p.lastInitial)
	}
	if doc.Nodes[0].Label() != "Key_B" {
		t.Fatalf("key not changed")
	}
	reg := e.Renderer().Lookup(doc.Nodes[0].ID)
	label, _ := e.Scene().Item(reg.Label)
	halo, _ := e.Scene().Item(reg.Halo[0])
	if label.Text != "Key_B" || halo.Text != "Key_A" {
		t.Fatalf("label=%q halo=%q", label.Text, halo.Text)
	}

	// empty answer keeps the key
	p.actions = []NodeAction{ActionModify}
	p.strings = []string{""}
	e.SecondaryClick(vector.Pt{X: 50, Y: 50})
	if doc.Nodes[0].Label() != "Key_B" {
		t.Fatalf("empty modify changed the key")
	}
}

func TestModifySteerWheelKeys(t *testing.T) {
	e, p, _ := newEditor(t, 400, 400)
	doc := domain.NewDocument()
	doc.Append(domain.NewSteerWheel(domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	want := domain.DirectionKeys{Left: "Key_J", Right: "Key_L", Up: "Key_I", Down: ""}
	p.actions = []NodeAction{ActionModify}
	p.keys = []domain.DirectionKeys{want}
	e.SecondaryClick(vector.Pt{X: 200, Y: 200})
	if p.lastKeys != domain.DefaultDirectionKeys() {
		t.Fatalf("form not pre-filled: %+v", p.lastKeys)
	}
	if got := doc.Nodes[0].DirectionKeys(); got != want {
		t.Fatalf("keys: %+v", got)
	}

	// cancel keeps keys
	p.actions = []NodeAction{ActionModify}
	e.SecondaryClick(vector.Pt{X: 200, Y: 200})
	if got := doc.Nodes[0].DirectionKeys(); got != want {
		t.Fatalf("cancel changed keys: %+v", got)
	}
}

func TestDeleteRemovesNodeAndVisuals(t *testing.T) {
	e, p, _ := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	doc.Append(domain.NewClick("Key_B", domain.Point{X: 0.1, Y: 0.1}))
	e.LoadDocument(doc)
	e.PointerDown(vector.Pt{X: 50, Y: 50})

	p.actions = []NodeAction{ActionDelete}
	e.SecondaryClick(vector.Pt{X: 50, Y: 50})
	if len(doc.Nodes) != 1 || doc.Nodes[0].Label() != "Key_B" {
		t.Fatalf("wrong nodes after delete")
	}
	if e.Scene().Len() != 6 {
		t.Fatalf("visuals left behind: %d items", e.Scene().Len())
	}
	if e.Renderer().HitTest(vector.Pt{X: 50, Y: 50}) != nil {
		t.Fatalf("hit at former location should miss")
	}
	if _, ok := e.Selection(); ok || e.State() != StateIdle {
		t.Fatalf("selection should be cleared")
	}
}

func TestActionCancelChangesNothing(t *testing.T) {
	e, _, _ := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	before := e.Scene().Len()
	e.SecondaryClick(vector.Pt{X: 50, Y: 50})
	if len(doc.Nodes) != 1 || e.Scene().Len() != before {
		t.Fatalf("cancelled action changed state")
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	e, p, _ := newEditor(t, 100, 100)
	if err := e.SaveDocument(); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if len(p.notices) != 1 || !strings.HasPrefix(p.notices[0], fmt.Sprintf("%d:", NoticeWarning)) {
		t.Fatalf("expected warning notice, got %v", p.notices)
	}
}

func TestSaveCancelAndFailure(t *testing.T) {
	e, p, store := newEditor(t, 100, 100)
	e.LoadDocument(domain.NewDocument())
	if err := e.SaveDocument(); err != nil {
		t.Fatalf("cancelled save returned %v", err)
	}
	if len(store.files) != 0 || len(p.notices) != 0 {
		t.Fatalf("cancelled save wrote something")
	}
	store.saveErr = errors.New("disk full")
	p.savePaths = []string{"x.json"}
	if err := e.SaveDocument(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
}

func TestOpenFailureKeepsCurrentDocument(t *testing.T) {
	e, p, store := newEditor(t, 100, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	store.files["bad.json"] = `{"keyMapNodes": [`
	p.openPaths = []string{"bad.json"}
	if err := e.OpenDocument(); err == nil {
		t.Fatalf("expected load error")
	}
	if e.Document() != doc || e.Scene().Len() != 6 {
		t.Fatalf("current document replaced after failed load")
	}
	if err := e.OpenDocument(); err != nil {
		t.Fatalf("cancelled open returned %v", err)
	}
}

func TestInvalidDimensionsKeepViewport(t *testing.T) {
	e, p, store := newEditor(t, 300, 200)
	store.files["a.json"] = `{"width":0,"height":50,"keyMapNodes":[]}`
	store.files["b.json"] = `{"keyMapNodes":[]}`
	p.openPaths = []string{"a.json", "b.json"}
	if err := e.OpenDocument(); err != nil {
		t.Fatalf("OpenDocument error: %v", err)
	}
	if e.Viewport() != (vector.Viewport{W: 300, H: 200}) {
		t.Fatalf("viewport changed: %s", e.Viewport())
	}
	if len(p.notices) != 1 || !strings.HasPrefix(p.notices[0], fmt.Sprintf("%d:", NoticeWarning)) {
		t.Fatalf("expected a warning notice: %v", p.notices)
	}
	if err := e.OpenDocument(); err != nil {
		t.Fatalf("OpenDocument error: %v", err)
	}
	if len(p.notices) != 1 {
		t.Fatalf("absent dimensions should not warn: %v", p.notices)
	}
}

func TestOpenBackdropReplacesViewport(t *testing.T) {
	p := &scriptPrompter{images: []string{"bg.png"}}
	e, err := New(Options{Prompter: p, Store: &memStore{files: map[string]string{}}, Backdrops: fakeBackdrops{out: vector.Viewport{W: 400, H: 200}}, Viewport: vector.Viewport{W: 400, H: 400}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	var seen vector.Viewport
	e.OnViewportChange(func(vp vector.Viewport) { seen = vp })
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	e.LoadDocument(doc)
	if err := e.OpenBackdrop(); err != nil {
		t.Fatalf("OpenBackdrop error: %v", err)
	}
	if e.Viewport() != (vector.Viewport{W: 400, H: 200}) || seen != e.Viewport() {
		t.Fatalf("viewport: %s seen=%s", e.Viewport(), seen)
	}
	if e.Backdrop() == nil || e.Backdrop().Source != "bg.png" {
		t.Fatalf("backdrop not kept")
	}
	reg := e.Renderer().Lookup(doc.Nodes[0].ID)
	bound, _ := e.Scene().Item(reg.Bound)
	if bound.Rect.Center() != (vector.Pt{X: 200, Y: 100}) {
		t.Fatalf("node not re-laid out: %+v", bound.Rect.Center())
	}
}

func TestOpenBackdropError(t *testing.T) {
	p := &scriptPrompter{images: []string{"bg.png"}}
	e, err := New(Options{Prompter: p, Backdrops: fakeBackdrops{err: errors.New("bad image")}, Viewport: vector.Viewport{W: 10, H: 10}})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := e.OpenBackdrop(); err == nil {
		t.Fatalf("expected error")
	}
	if e.Viewport() != (vector.Viewport{W: 10, H: 10}) {
		t.Fatalf("viewport changed on failure")
	}
}

func TestSnapshot(t *testing.T) {
	e, p, store := newEditor(t, 100, 100)
	store.files["k.json"] = `{"keyMapNodes":[]}`
	p.openPaths = []string{"k.json"}
	if err := e.OpenDocument(); err != nil {
		t.Fatalf("OpenDocument error: %v", err)
	}
	path, doc := e.Snapshot()
	if path != "k.json" || doc != e.Document() {
		t.Fatalf("snapshot: %q %v", path, doc)
	}
}

func TestDocumentRecordsCarryPath(t *testing.T) {
	var logs bytes.Buffer
	applog.Init(applog.Options{Level: "info", Format: "json", Writer: &logs})
	defer applog.Init(applog.Options{Level: "error"})

	e, p, store := newEditor(t, 100, 100)
	store.files["in.json"] = `{"keyMapNodes":[]}`
	if err := e.OpenPath("in.json"); err != nil {
		t.Fatalf("OpenPath error: %v", err)
	}
	if err := e.OpenPath("missing.json"); err == nil {
		t.Fatalf("expected error for a missing file")
	}
	p.savePaths = []string{"out.json"}
	if err := e.SaveDocument(); err != nil {
		t.Fatalf("SaveDocument error: %v", err)
	}

	docs := map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		if m["component"] == "editor" {
			docs[m["msg"].(string)] = m["doc"]
		}
	}
	want := map[string]string{
		"document opened":    "in.json",
		"open keymap failed": "missing.json",
		"document saved":     "out.json",
	}
	for msg, doc := range want {
		if docs[msg] != doc {
			t.Fatalf("%q: doc=%v, want %s\n%s", msg, docs[msg], doc, logs.String())
		}
	}
}
