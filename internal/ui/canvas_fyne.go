//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"keymapeditor/internal/vector"
)

// pxPerPt converts label sizes from points to device-independent pixels.
const pxPerPt = 96.0 / 72.0

// pointerHandlers receive canvas input in scene coordinates.
type pointerHandlers struct {
	down      func(vector.Pt)
	move      func(vector.Pt)
	up        func()
	secondary func(vector.Pt)
}

// KeymapCanvas draws a vector.Scene one-to-one in widget coordinates and turns
// mouse input into pointer events.
type KeymapCanvas struct {
	widget.BaseWidget

	scene    *vector.Scene
	vp       vector.Viewport
	handlers pointerHandlers
	pressed  bool
}

var (
	_ desktop.Mouseable      = (*KeymapCanvas)(nil)
	_ fyne.Draggable         = (*KeymapCanvas)(nil)
	_ fyne.SecondaryTappable = (*KeymapCanvas)(nil)
	_ fyne.WidgetRenderer    = (*keymapCanvasRenderer)(nil)
)

func NewKeymapCanvas(scene *vector.Scene, vp vector.Viewport) *KeymapCanvas {
	kc := &KeymapCanvas{scene: scene, vp: vp}
	kc.ExtendBaseWidget(kc)
	return kc
}

// SetViewport resizes the drawing surface. Call from the UI goroutine.
func (kc *KeymapCanvas) SetViewport(vp vector.Viewport) {
	kc.vp = vp
	kc.Refresh()
}

func (kc *KeymapCanvas) Viewport() vector.Viewport { return kc.vp }

func (kc *KeymapCanvas) PreferredSize() fyne.Size {
	return fyne.NewSize(float32(kc.vp.W), float32(kc.vp.H))
}

func toScene(pos fyne.Position) vector.Pt { return vector.Pt{X: float64(pos.X), Y: float64(pos.Y)} }

func (kc *KeymapCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	kc.pressed = true
	if kc.handlers.down != nil {
		kc.handlers.down(toScene(e.Position))
	}
}

func (kc *KeymapCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	kc.release()
}

func (kc *KeymapCanvas) Dragged(e *fyne.DragEvent) {
	if !kc.pressed {
		return
	}
	if kc.handlers.move != nil {
		kc.handlers.move(toScene(e.Position))
	}
}

func (kc *KeymapCanvas) DragEnd() { kc.release() }

// release fires up once per press; fyne reports both MouseUp and DragEnd.
func (kc *KeymapCanvas) release() {
	if !kc.pressed {
		return
	}
	kc.pressed = false
	if kc.handlers.up != nil {
		kc.handlers.up()
	}
}

func (kc *KeymapCanvas) TappedSecondary(e *fyne.PointEvent) {
	if kc.handlers.secondary != nil {
		kc.handlers.secondary(toScene(e.Position))
	}
}

func (kc *KeymapCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &keymapCanvasRenderer{
		kc:     kc,
		bg:     canvas.NewRectangle(color.RGBA{R: 48, G: 48, B: 52, A: 255}),
		images: map[vector.ItemID]*canvas.Image{},
	}
	r.rebuild()
	return r
}

// keymapCanvasRenderer mirrors the scene into fyne canvas objects.
type keymapCanvasRenderer struct {
	kc      *KeymapCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
	// placed holds the geometry applied by Layout, parallel to objects[1:]
	placed []vector.Item
	images map[vector.ItemID]*canvas.Image
}

func (r *keymapCanvasRenderer) Destroy()                     {}
func (r *keymapCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *keymapCanvasRenderer) MinSize() fyne.Size           { return r.kc.PreferredSize() }
func (r *keymapCanvasRenderer) Refresh()                     { r.rebuild(); r.Layout(r.kc.Size()); canvas.Refresh(r.kc) }

// rebuild creates one canvas object per scene item, in paint order.
func (r *keymapCanvasRenderer) rebuild() {
	var items []vector.Item
	if r.kc.scene != nil {
		items = r.kc.scene.Items()
	}
	r.objects = append(r.objects[:0], r.bg)
	r.placed = r.placed[:0]
	live := make(map[vector.ItemID]bool, len(r.images))
	for _, it := range items {
		var obj fyne.CanvasObject
		switch it.Kind {
		case vector.KindRect:
			rect := canvas.NewRectangle(paintColor(it.Fill.Color, it.Fill.Enabled))
			applyStroke(&rect.StrokeColor, &rect.StrokeWidth, it.Stroke)
			obj = rect
		case vector.KindCircle:
			c := canvas.NewCircle(paintColor(it.Fill.Color, it.Fill.Enabled))
			applyStroke(&c.StrokeColor, &c.StrokeWidth, it.Stroke)
			obj = c
		case vector.KindText:
			t := canvas.NewText(it.Text, it.Fill.Color.ToRGBA())
			t.TextSize = float32(it.Font.SizePt * pxPerPt)
			t.Alignment = fyne.TextAlignCenter
			obj = t
		case vector.KindImage:
			img, ok := r.images[it.ID]
			if !ok || img.Image != it.Image {
				img = canvas.NewImageFromImage(it.Image)
				img.FillMode = canvas.ImageFillStretch
				img.ScaleMode = canvas.ImageScaleSmooth
				r.images[it.ID] = img
			}
			live[it.ID] = true
			obj = img
		default:
			continue
		}
		r.objects = append(r.objects, obj)
		r.placed = append(r.placed, it)
	}
	for id := range r.images {
		if !live[id] {
			delete(r.images, id)
		}
	}
}

func (r *keymapCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Move(fyne.NewPos(0, 0))
	r.bg.Resize(size)
	for i, it := range r.placed {
		obj := r.objects[i+1]
		if it.Kind == vector.KindText {
			ts := obj.MinSize()
			obj.Resize(ts)
			obj.Move(fyne.NewPos(float32(it.At.X)-ts.Width/2, float32(it.At.Y)-ts.Height/2))
			continue
		}
		obj.Move(fyne.NewPos(float32(it.Rect.X), float32(it.Rect.Y)))
		obj.Resize(fyne.NewSize(float32(it.Rect.W), float32(it.Rect.H)))
	}
}

func paintColor(c vector.Color, enabled bool) color.Color {
	if !enabled {
		return color.Transparent
	}
	return c.ToRGBA()
}

func applyStroke(col *color.Color, width *float32, s vector.Stroke) {
	if !s.Enabled || s.Width <= 0 {
		return
	}
	*col = s.Color.ToRGBA()
	*width = float32(s.Width)
}
