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
	"fmt"
	"sync"
	"testing"

	"keymapeditor/internal/domain"
	"keymapeditor/internal/editor"
	"keymapeditor/internal/vector"
)

type silentPrompter struct{}

func (silentPrompter) ChooseNodeType() (domain.Kind, bool)        { return 0, false }
func (silentPrompter) PromptString(_, _, _ string) (string, bool) { return "", false }
func (silentPrompter) PromptOpenPath() (string, bool)             { return "", false }
func (silentPrompter) PromptSavePath(string) (string, bool)       { return "", false }
func (silentPrompter) PromptImagePath() (string, bool)            { return "", false }
func (silentPrompter) Notify(editor.NoticeLevel, string, string)  {}

func (silentPrompter) ChooseNodeAction(*domain.Node) (editor.NodeAction, bool) {
	return 0, false
}

func (silentPrompter) PromptDirectionKeys(k domain.DirectionKeys) (domain.DirectionKeys, bool) {
	return k, false
}

func newTestSession(t *testing.T) *session {
	t.Helper()
	ed, err := editor.New(editor.Options{Prompter: silentPrompter{}, Viewport: vector.Viewport{W: 200, H: 100}})
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	return newSession(ed)
}

func TestSessionRunsJobsInOrder(t *testing.T) {
	s := newTestSession(t)
	var mu sync.Mutex
	var got []int
	afters, commands := 0, 0
	s.start(nil, func(_ *editor.Editor, command bool) {
		mu.Lock()
		afters++
		if command {
			commands++
		}
		mu.Unlock()
	})
	for i := 0; i < 3; i++ {
		if !s.input(func(*editor.Editor) { mu.Lock(); got = append(got, i); mu.Unlock() }) {
			t.Fatalf("job %d was dropped", i)
		}
	}
	s.command(func(*editor.Editor) error { return nil })
	s.stop()
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("jobs ran out of order: %v", got)
	}
	if afters != 4 || commands != 1 {
		t.Fatalf("after ran %d times (%d commands), want 4 (1)", afters, commands)
	}
}

func TestSessionDropsInputWhilePrompting(t *testing.T) {
	s := newTestSession(t)
	s.beginPrompt()
	if s.input(func(*editor.Editor) {}) {
		t.Fatalf("input accepted while a prompt is open")
	}
	if s.command(func(*editor.Editor) error { return nil }) {
		t.Fatalf("command accepted while a prompt is open")
	}
	s.endPrompt()
	if !s.input(func(*editor.Editor) {}) {
		t.Fatalf("input dropped after the prompt closed")
	}
}

func TestSessionDropsWhenQueueFull(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < queueDepth; i++ {
		if !s.input(func(*editor.Editor) {}) {
			t.Fatalf("job %d dropped before the queue filled", i)
		}
	}
	if s.input(func(*editor.Editor) {}) {
		t.Fatalf("expected drop on a full queue")
	}
}

func TestSessionReportsErrors(t *testing.T) {
	s := newTestSession(t)
	var reported []error
	s.start(func(err error) { reported = append(reported, err) }, nil)
	boom := errors.New("boom")
	s.command(func(*editor.Editor) error { return boom })
	s.command(func(*editor.Editor) error { return fmt.Errorf("save: %w", editor.ErrNoDocument) })
	s.command(func(*editor.Editor) error { return nil })
	s.stop()
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Fatalf("unexpected reported errors: %v", reported)
	}
}

func TestSessionEventsReachEditor(t *testing.T) {
	s := newTestSession(t)
	s.start(nil, nil)
	s.command(func(ed *editor.Editor) error {
		doc := domain.NewDocument()
		doc.Append(domain.NewClick("Key_Q", domain.Point{X: 0.5, Y: 0.5}))
		ed.LoadDocument(doc)
		return nil
	})
	s.input(func(ed *editor.Editor) { ed.PointerDown(vector.Pt{X: 100, Y: 50}) })
	s.input(func(ed *editor.Editor) { ed.PointerMove(vector.Pt{X: 50, Y: 25}) })
	s.input(func(ed *editor.Editor) { ed.PointerUp() })
	s.stop()
	n := s.ed.Document().Nodes[0]
	p, ok := n.Anchor()
	if !ok || p.X != 0.25 || p.Y != 0.25 {
		t.Fatalf("node not dragged: %+v ok=%v", p, ok)
	}
}
