/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "image"

// ItemID identifies a drawable item inside a Scene. Zero is never assigned.
type ItemID uint64

// ItemKind discriminates the drawable primitives a Scene can hold.
type ItemKind uint8

const (
	KindRect ItemKind = iota + 1
	KindCircle
	KindText
	KindImage
)

func (k ItemKind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindCircle:
		return "circle"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Item is one drawable primitive. Items are plain values so a Scene can hand out
// snapshots to readers on other goroutines.
//
// Rect holds the box of rects, circles (enclosing square) and images. Text items are
// centered on At.
type Item struct {
	ID     ItemID
	Kind   ItemKind
	Rect   Rect
	At     Pt
	Text   string
	Font   Font
	Fill   Fill
	Stroke Stroke
	Image  image.Image
}

// Bounds returns the axis-aligned box of the item. Text has no measured extent here.
func (it Item) Bounds() Rect {
	if it.Kind == KindText {
		return Rect{X: it.At.X, Y: it.At.Y}
	}
	return it.Rect
}

// Hit reports whether p is inside the item's axis-aligned box. Circles are tested
// against their enclosing square.
func (it Item) Hit(p Pt) bool {
	if it.Kind == KindText {
		return false
	}
	return it.Rect.Contains(p)
}

func NewRect(r Rect, f Fill, s Stroke) Item { return Item{Kind: KindRect, Rect: r, Fill: f, Stroke: s} }

// NewCircle builds a circle item of radius r around c.
func NewCircle(c Pt, r float64, f Fill, s Stroke) Item {
	return Item{Kind: KindCircle, Rect: Around(c, r), Fill: f, Stroke: s}
}

func NewText(at Pt, text string, font Font, col Color) Item {
	return Item{Kind: KindText, At: at, Text: text, Font: font, Fill: Fill{Enabled: true, Color: col}}
}

// NewImage places img so that it covers r.
func NewImage(img image.Image, r Rect) Item { return Item{Kind: KindImage, Rect: r, Image: img} }
