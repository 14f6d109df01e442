/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns a keymap document into scene items and keeps a registry that
// links every drawn node to the items representing it.
package render

import (
	"image"
	"log/slog"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/vector"
)

// Drawing constants in pixels.
const (
	ClickHalfExtent  = 20.0
	ClickLabelOffset = 25.0
	SteerWheelRadius = 50.0
	SteerWheelStroke = 2.0
	SteerLabelOffset = 70.0
	haloDisplacement = 1.0
)

// Registration records the scene items of one rendered node.
type Registration struct {
	Node   *domain.Node
	Bound  vector.ItemID
	Label  vector.ItemID
	Halo   []vector.ItemID
	Radius float64
}

// Items returns every scene item owned by the registration.
func (r *Registration) Items() []vector.ItemID {
	ids := make([]vector.ItemID, 0, 2+len(r.Halo))
	ids = append(ids, r.Bound)
	ids = append(ids, r.Halo...)
	return append(ids, r.Label)
}

// Renderer draws nodes into a Scene. It is not safe for concurrent use; the Scene
// it writes to is.
type Renderer struct {
	scene *vector.Scene
	regs  []*Registration
	byID  map[domain.NodeID]*Registration
	log   *slog.Logger
}

func New(scene *vector.Scene) *Renderer {
	if scene == nil {
		scene = vector.NewScene()
	}
	return &Renderer{
		scene: scene,
		byID:  make(map[domain.NodeID]*Registration),
		log:   applog.WithComponent("render"),
	}
}

func (r *Renderer) Scene() *vector.Scene { return r.scene }

// RenderAll replaces the scene with the backdrop, if any, followed by every node of doc.
func (r *Renderer) RenderAll(doc *domain.Document, vp vector.Viewport, backdrop image.Image) {
	r.scene.Clear()
	r.regs = nil
	r.byID = make(map[domain.NodeID]*Registration)
	if backdrop != nil {
		r.scene.Add(vector.NewImage(backdrop, vp.Bounds()))
	}
	if doc == nil {
		return
	}
	for _, n := range doc.Nodes {
		r.RenderNode(n, vp)
	}
	r.log.Debug("rendered document", slog.Int("nodes", len(doc.Nodes)), slog.Int("registered", len(r.regs)), slog.String("viewport", vp.String()))
}

// RenderNode draws one node on top of the scene and registers it. It returns nil for a
// node without a position.
func (r *Renderer) RenderNode(n *domain.Node, vp vector.Viewport) *Registration {
	if n == nil {
		return nil
	}
	if old, ok := r.byID[n.ID]; ok {
		r.Remove(old)
	}
	anchor, ok := n.Anchor()
	if !ok {
		r.log.Debug("skipping node without position", slog.String("type", n.Type), slog.String("comment", n.Comment))
		return nil
	}
	p := vp.ToPixel(vector.Pt{X: anchor.X, Y: anchor.Y})
	var reg *Registration
	switch n.Variant.(type) {
	case *domain.SteerWheel:
		reg = r.drawSteerWheel(n, p)
	default:
		reg = r.drawClick(n, p)
	}
	r.regs = append(r.regs, reg)
	r.byID[n.ID] = reg
	return reg
}

func (r *Renderer) drawClick(n *domain.Node, p vector.Pt) *Registration {
	reg := &Registration{Node: n}
	reg.Bound = r.scene.Add(vector.NewRect(
		vector.Around(p, ClickHalfExtent),
		vector.Fill{Color: vector.Blue, Enabled: true},
		vector.Stroke{},
	))
	label := n.Label()
	at := p.Add(0, -ClickLabelOffset)
	for _, d := range haloOffsets() {
		reg.Halo = append(reg.Halo, r.scene.Add(vector.NewText(at.Add(d.X, d.Y), label, vector.LabelFont, vector.White)))
	}
	reg.Label = r.scene.Add(vector.NewText(at, label, vector.LabelFont, vector.Black))
	return reg
}

func (r *Renderer) drawSteerWheel(n *domain.Node, p vector.Pt) *Registration {
	reg := &Registration{Node: n, Radius: SteerWheelRadius}
	reg.Bound = r.scene.Add(vector.NewCircle(
		p, SteerWheelRadius,
		vector.Fill{},
		vector.Stroke{Color: vector.Green, Width: SteerWheelStroke, Enabled: true},
	))
	reg.Label = r.scene.Add(vector.NewText(p.Add(0, -SteerLabelOffset), n.Label(), vector.LabelFont, vector.Black))
	return reg
}

func haloOffsets() []vector.Pt {
	d := haloDisplacement
	return []vector.Pt{{X: -d, Y: -d}, {X: d, Y: -d}, {X: -d, Y: d}, {X: d, Y: d}}
}

func labelOffset(reg *Registration) float64 {
	if reg.Radius > 0 {
		return SteerLabelOffset
	}
	return ClickLabelOffset
}

// MoveTo recenters every item of reg on pixel p.
func (r *Renderer) MoveTo(reg *Registration, p vector.Pt) {
	if reg == nil {
		return
	}
	if reg.Radius > 0 {
		r.scene.SetRect(reg.Bound, vector.Around(p, reg.Radius))
	} else {
		r.scene.SetRect(reg.Bound, vector.Around(p, ClickHalfExtent))
	}
	at := p.Add(0, -labelOffset(reg))
	r.scene.SetAnchor(reg.Label, at)
	for i, d := range haloOffsets() {
		if i < len(reg.Halo) {
			r.scene.SetAnchor(reg.Halo[i], at.Add(d.X, d.Y))
		}
	}
}

// SetLabel changes the primary label text. Halo labels keep their text.
func (r *Renderer) SetLabel(reg *Registration, text string) {
	if reg == nil {
		return
	}
	r.scene.SetText(reg.Label, text)
}

// Remove erases reg and all of its items.
func (r *Renderer) Remove(reg *Registration) {
	if reg == nil {
		return
	}
	r.scene.Delete(reg.Items()...)
	for i, x := range r.regs {
		if x == reg {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			break
		}
	}
	if reg.Node != nil && r.byID[reg.Node.ID] == reg {
		delete(r.byID, reg.Node.ID)
	}
}

// Lookup returns the registration of the node with the given identity.
func (r *Renderer) Lookup(id domain.NodeID) *Registration { return r.byID[id] }

// Registrations returns the live registrations in registration order.
func (r *Renderer) Registrations() []*Registration {
	return append([]*Registration(nil), r.regs...)
}
