//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the fyne canvas widget. They are gated behind the "fyne"
// build tag so headless CI does not need a display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"keymapeditor/internal/vector"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func TestKeymapCanvas_PreferredSizeFollowsViewport(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	kc := NewKeymapCanvas(vector.NewScene(), vector.Viewport{W: 640, H: 480})
	if sz := kc.PreferredSize(); sz.Width != 640 || sz.Height != 480 {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
	kc.SetViewport(vector.Viewport{W: 320, H: 200})
	if sz := kc.PreferredSize(); sz.Width != 320 || sz.Height != 200 {
		t.Fatalf("PreferredSize did not follow viewport: %v", sz)
	}
}

func TestKeymapCanvas_MirrorsScene(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	scene := vector.NewScene()
	scene.Add(vector.NewRect(vector.R(80, 40, 40, 40), vector.Fill{Color: vector.Blue, Enabled: true}, vector.Stroke{}))
	scene.Add(vector.NewCircle(vector.Pt{X: 200, Y: 100}, 50, vector.Fill{}, vector.Stroke{Color: vector.Green, Width: 2, Enabled: true}))
	scene.Add(vector.NewText(vector.Pt{X: 100, Y: 85}, "Key_W", vector.LabelFont, vector.Black))

	kc := NewKeymapCanvas(scene, vector.Viewport{W: 400, H: 300})
	r, ok := kc.CreateRenderer().(*keymapCanvasRenderer)
	if !ok {
		t.Fatalf("expected keymapCanvasRenderer, got %T", kc.CreateRenderer())
	}
	r.Layout(fyne.NewSize(400, 300))

	objs := r.Objects()
	if len(objs) != 4 {
		t.Fatalf("expected background plus 3 items, got %d objects", len(objs))
	}
	rect, ok := objs[1].(*canvas.Rectangle)
	if !ok {
		t.Fatalf("expected rectangle, got %T", objs[1])
	}
	if rect.Position() != fyne.NewPos(80, 40) || rect.Size() != fyne.NewSize(40, 40) {
		t.Fatalf("rectangle misplaced: pos=%v size=%v", rect.Position(), rect.Size())
	}
	circle, ok := objs[2].(*canvas.Circle)
	if !ok {
		t.Fatalf("expected circle, got %T", objs[2])
	}
	if circle.Position() != fyne.NewPos(150, 50) || circle.StrokeWidth != 2 {
		t.Fatalf("circle misplaced: pos=%v stroke=%v", circle.Position(), circle.StrokeWidth)
	}
	text, ok := objs[3].(*canvas.Text)
	if !ok {
		t.Fatalf("expected text, got %T", objs[3])
	}
	center := text.Position().X + text.Size().Width/2
	if !almostEqual(center, 100, 0.5) {
		t.Fatalf("label not centered on anchor: center x=%v", center)
	}

	scene.Clear()
	r.Refresh()
	if len(r.Objects()) != 1 {
		t.Fatalf("expected only the background after Clear, got %d", len(r.Objects()))
	}
}

func TestKeymapCanvas_PointerMapping(t *testing.T) {
	kc := NewKeymapCanvas(vector.NewScene(), vector.Viewport{W: 400, H: 300})
	var downs, moves []vector.Pt
	var secondary []vector.Pt
	ups := 0
	kc.handlers = pointerHandlers{
		down:      func(p vector.Pt) { downs = append(downs, p) },
		move:      func(p vector.Pt) { moves = append(moves, p) },
		up:        func() { ups++ },
		secondary: func(p vector.Pt) { secondary = append(secondary, p) },
	}

	kc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(1, 1)}})
	if len(moves) != 0 {
		t.Fatalf("drag without press should be ignored")
	}

	kc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(50, 50)}, Button: desktop.MouseButtonPrimary})
	kc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 70)}})
	kc.MouseUp(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 70)}, Button: desktop.MouseButtonPrimary})
	kc.DragEnd()

	if len(downs) != 1 || downs[0] != (vector.Pt{X: 50, Y: 50}) {
		t.Fatalf("unexpected downs: %v", downs)
	}
	if len(moves) != 1 || moves[0] != (vector.Pt{X: 60, Y: 70}) {
		t.Fatalf("unexpected moves: %v", moves)
	}
	if ups != 1 {
		t.Fatalf("expected exactly one release, got %d", ups)
	}

	kc.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 5)}, Button: desktop.MouseButtonSecondary})
	if len(downs) != 1 {
		t.Fatalf("secondary button must not select")
	}
	kc.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(10, 20)})
	if len(secondary) != 1 || secondary[0] != (vector.Pt{X: 10, Y: 20}) {
		t.Fatalf("unexpected secondary clicks: %v", secondary)
	}
}
