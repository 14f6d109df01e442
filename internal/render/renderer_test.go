/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"testing"

	"keymapeditor/internal/domain"
	"keymapeditor/internal/vector"
)

func mustViewport(t *testing.T, w, h int) vector.Viewport {
	t.Helper()
	vp, err := vector.NewViewport(w, h)
	if err != nil {
		t.Fatalf("NewViewport: %v", err)
	}
	return vp
}

func TestRenderClickItems(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 100, 100)
	n := domain.NewClick("Key_W", domain.Point{X: 0.5, Y: 0.5})
	reg := r.RenderNode(n, vp)
	if reg == nil {
		t.Fatalf("expected registration")
	}
	if len(reg.Halo) != 4 || reg.Radius != 0 {
		t.Fatalf("click registration: halos=%d radius=%v", len(reg.Halo), reg.Radius)
	}
	items := r.Scene().Items()
	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}
	if items[0].Kind != vector.KindRect || items[0].Rect != vector.R(30, 30, 40, 40) || items[0].Fill.Color != vector.Blue {
		t.Fatalf("bounding rect: %+v", items[0])
	}
	last := items[len(items)-1]
	if last.ID != reg.Label || last.Text != "Key_W" || last.At != (vector.Pt{X: 50, Y: 25}) || last.Fill.Color != vector.Black {
		t.Fatalf("primary label should be drawn last: %+v", last)
	}
	for _, it := range items[1:5] {
		if it.Fill.Color != vector.White {
			t.Fatalf("halo color: %+v", it)
		}
		dx, dy := it.At.X-50, it.At.Y-25
		if (dx != 1 && dx != -1) || (dy != 1 && dy != -1) {
			t.Fatalf("halo offset: %+v", it.At)
		}
	}
}

func TestRenderSteerWheelItems(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 400, 400)
	reg := r.RenderNode(domain.NewSteerWheel(domain.Point{X: 0.5, Y: 0.5}), vp)
	if reg == nil || reg.Radius != 50 || len(reg.Halo) != 0 {
		t.Fatalf("wheel registration: %+v", reg)
	}
	circle, _ := r.Scene().Item(reg.Bound)
	if circle.Kind != vector.KindCircle || circle.Rect != vector.R(150, 150, 100, 100) {
		t.Fatalf("circle: %+v", circle)
	}
	if !circle.Stroke.Enabled || circle.Stroke.Width != 2 || circle.Stroke.Color != vector.Green || circle.Fill.Enabled {
		t.Fatalf("circle style: %+v", circle)
	}
	label, _ := r.Scene().Item(reg.Label)
	if label.Text != domain.SteerWheelLabel || label.At != (vector.Pt{X: 200, Y: 130}) {
		t.Fatalf("label: %+v", label)
	}
}

func TestRenderSkipsNodesWithoutPosition(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 100, 100)
	n := domain.NewClick("Key_Q", domain.Point{})
	n.Variant.(*domain.Click).Pos = nil
	if reg := r.RenderNode(n, vp); reg != nil {
		t.Fatalf("expected nil registration")
	}
	if r.Scene().Len() != 0 || len(r.Registrations()) != 0 {
		t.Fatalf("nothing should be drawn")
	}
}

func TestRenderAllIsIdempotent(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 200, 100)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.25, Y: 0.5}))
	doc.Append(domain.NewSteerWheel(domain.Point{X: 0.75, Y: 0.5}))
	bg := image.NewRGBA(image.Rect(0, 0, 200, 100))

	r.RenderAll(doc, vp, bg)
	first := r.Scene().Len()
	r.RenderAll(doc, vp, bg)
	if r.Scene().Len() != first || len(r.Registrations()) != 2 {
		t.Fatalf("second render changed the scene: %d vs %d items", r.Scene().Len(), first)
	}
	items := r.Scene().Items()
	if items[0].Kind != vector.KindImage || items[0].Rect != vp.Bounds() {
		t.Fatalf("backdrop should be first and cover the viewport: %+v", items[0])
	}
	if r.Lookup(doc.Nodes[1].ID) == nil {
		t.Fatalf("lookup by node id failed")
	}
}

func TestHitTest(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 100, 100)
	a := r.RenderNode(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}), vp)
	b := r.RenderNode(domain.NewClick("Key_B", domain.Point{X: 0.6, Y: 0.5}), vp)

	if got := r.HitTest(vector.Pt{X: 30, Y: 30}); got != a {
		t.Fatalf("edge of first rect should hit it")
	}
	if got := r.HitTest(vector.Pt{X: 55, Y: 50}); got != a {
		t.Fatalf("overlap should resolve to first registered")
	}
	if got := r.HitTest(vector.Pt{X: 75, Y: 50}); got != b {
		t.Fatalf("expected second node")
	}
	if got := r.HitTest(vector.Pt{X: 50, Y: 25}); got != a {
		t.Fatalf("label position is inside the rect and should hit it")
	}
	if got := r.HitTest(vector.Pt{X: 5, Y: 5}); got != nil {
		t.Fatalf("expected miss")
	}
}

func TestHitTestCircleCorner(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 400, 400)
	reg := r.RenderNode(domain.NewSteerWheel(domain.Point{X: 0.5, Y: 0.5}), vp)
	if got := r.HitTest(vector.Pt{X: 152, Y: 152}); got != reg {
		t.Fatalf("corner of the enclosing square should hit")
	}
	if got := r.HitTest(vector.Pt{X: 149, Y: 200}); got != nil {
		t.Fatalf("outside the square should miss")
	}
}

func TestMoveToAndSetLabel(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 100, 100)
	reg := r.RenderNode(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}), vp)
	r.MoveTo(reg, vector.Pt{X: 60, Y: 70})
	bound, _ := r.Scene().Item(reg.Bound)
	if bound.Rect != vector.R(40, 50, 40, 40) {
		t.Fatalf("rect after move: %+v", bound.Rect)
	}
	label, _ := r.Scene().Item(reg.Label)
	if label.At != (vector.Pt{X: 60, Y: 45}) {
		t.Fatalf("label after move: %+v", label.At)
	}
	halo, _ := r.Scene().Item(reg.Halo[0])
	if halo.At != (vector.Pt{X: 59, Y: 44}) {
		t.Fatalf("halo after move: %+v", halo.At)
	}

	r.SetLabel(reg, "Key_Z")
	label, _ = r.Scene().Item(reg.Label)
	halo, _ = r.Scene().Item(reg.Halo[0])
	if label.Text != "Key_Z" || halo.Text != "Key_A" {
		t.Fatalf("label=%q halo=%q", label.Text, halo.Text)
	}
}

func TestRemoveErasesAllItems(t *testing.T) {
	r := New(nil)
	vp := mustViewport(t, 100, 100)
	n := domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5})
	reg := r.RenderNode(n, vp)
	other := r.RenderNode(domain.NewClick("Key_B", domain.Point{X: 0.1, Y: 0.1}), vp)
	r.Remove(reg)
	if r.Scene().Len() != 6 {
		t.Fatalf("expected only the other node's items, got %d", r.Scene().Len())
	}
	if r.Lookup(n.ID) != nil || r.HitTest(vector.Pt{X: 50, Y: 50}) != nil {
		t.Fatalf("removed node still reachable")
	}
	if regs := r.Registrations(); len(regs) != 1 || regs[0] != other {
		t.Fatalf("unexpected registrations: %v", regs)
	}
}

func TestViewportRescaleKeepsNormalizedPositions(t *testing.T) {
	r := New(nil)
	doc := domain.NewDocument()
	doc.Append(domain.NewClick("Key_A", domain.Point{X: 0.5, Y: 0.5}))
	r.RenderAll(doc, mustViewport(t, 100, 100), nil)
	r.RenderAll(doc, mustViewport(t, 200, 400), nil)
	reg := r.Lookup(doc.Nodes[0].ID)
	bound, _ := r.Scene().Item(reg.Bound)
	if bound.Rect.Center() != (vector.Pt{X: 100, Y: 200}) {
		t.Fatalf("center after rescale: %+v", bound.Rect.Center())
	}
	if p, _ := doc.Nodes[0].Anchor(); p.X != 0.5 || p.Y != 0.5 {
		t.Fatalf("normalized position changed: %+v", p)
	}
}
