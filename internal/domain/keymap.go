/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the keymap layout model: a document of positioned control nodes.
// Positions are stored normalized to the document's pixel size; see vector.Viewport.

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Persisted type tags.
const (
	TypeClick      = "KMT_CLICK"
	TypeSteerWheel = "KMT_STEER_WHEEL"
)

// Display and default values.
const (
	UnknownKeyLabel = "Unknown Key"
	SteerWheelLabel = "Steer Wheel (WASD)"

	DefaultLeftKey  = "Key_A"
	DefaultRightKey = "Key_D"
	DefaultUpKey    = "Key_W"
	DefaultDownKey  = "Key_S"

	DefaultSteerWheelComment = "wasd"
)

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindClick Kind = iota + 1
	KindSteerWheel
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return TypeClick
	case KindSteerWheel:
		return TypeSteerWheel
	default:
		return "unknown"
	}
}

// KindOf maps a persisted type tag to its variant. Anything that is not a steering
// wheel is treated as a click node.
func KindOf(tag string) Kind {
	if tag == TypeSteerWheel {
		return KindSteerWheel
	}
	return KindClick
}

// NodeID is the in-memory identity of a node. It is not persisted.
type NodeID string

func NewNodeID() NodeID { return NodeID(uuid.NewString()) }

// Point is a normalized position: fractions of the document width and height.
// Members other than x and y are kept in source order and written back.
type Point struct {
	X float64
	Y float64

	order []string
	extra map[string]json.RawMessage
}

// inherit carries the unknown members of old over to p.
func (p *Point) inherit(old *Point) {
	if old != nil && p.extra == nil {
		p.order, p.extra = old.order, old.extra
	}
}

// Variant is implemented only by *Click and *SteerWheel.
type Variant interface {
	Kind() Kind
	isVariant()
}

// Click is a single key trigger at Pos.
type Click struct {
	Pos *Point
	Key string
}

func (*Click) Kind() Kind { return KindClick }
func (*Click) isVariant() {}

// SteerWheel is a four-direction control centered at CenterPos. The offsets are
// semantic radii consumed by the target runtime; the editor only persists them.
type SteerWheel struct {
	CenterPos   *Point
	LeftOffset  float64
	RightOffset float64
	UpOffset    float64
	DownOffset  float64
	LeftKey     string
	RightKey    string
	UpKey       string
	DownKey     string
}

func (*SteerWheel) Kind() Kind { return KindSteerWheel }
func (*SteerWheel) isVariant() {}

// DirectionKeys groups the four key bindings of a steering wheel.
type DirectionKeys struct {
	Left, Right, Up, Down string
}

// DefaultDirectionKeys returns WASD.
func DefaultDirectionKeys() DirectionKeys {
	return DirectionKeys{Left: DefaultLeftKey, Right: DefaultRightKey, Up: DefaultUpKey, Down: DefaultDownKey}
}

// Node is one control entry of the layout.
//
// Fields the model does not interpret are kept as raw JSON together with the key
// order they were read in, so that a load/save cycle does not drop or reorder them.
type Node struct {
	ID      NodeID
	Type    string
	Comment string
	Variant Variant

	order   []string
	present map[string]bool
	extra   map[string]json.RawMessage
}

// NewClick returns a click node the way the add workflow creates one.
func NewClick(key string, pos Point) *Node {
	n := &Node{
		ID:      NewNodeID(),
		Type:    TypeClick,
		Comment: key,
		Variant: &Click{Pos: &pos, Key: key},
	}
	n.mark(fieldComment, fieldType, fieldPos, fieldKey)
	return n
}

// NewSteerWheel returns a steering wheel with default offsets and WASD bindings.
func NewSteerWheel(center Point) *Node {
	n := &Node{
		ID:      NewNodeID(),
		Type:    TypeSteerWheel,
		Comment: DefaultSteerWheelComment,
		Variant: &SteerWheel{
			CenterPos:   &center,
			LeftOffset:  0.2,
			RightOffset: 0.2,
			UpOffset:    0.3,
			DownOffset:  0.2,
			LeftKey:     DefaultLeftKey,
			RightKey:    DefaultRightKey,
			UpKey:       DefaultUpKey,
			DownKey:     DefaultDownKey,
		},
	}
	n.mark(fieldComment, fieldType, fieldCenterPos,
		fieldLeftOffset, fieldRightOffset, fieldUpOffset, fieldDownOffset,
		fieldLeftKey, fieldRightKey, fieldUpKey, fieldDownKey)
	return n
}

func (n *Node) mark(fields ...string) {
	if n.present == nil {
		n.present = make(map[string]bool, len(fields))
	}
	for _, f := range fields {
		n.present[f] = true
	}
}

func (n *Node) has(field string) bool { return n.present[field] }

// Kind returns the node variant.
func (n *Node) Kind() Kind {
	if n.Variant == nil {
		return KindOf(n.Type)
	}
	return n.Variant.Kind()
}

// Label is the text displayed above the node.
func (n *Node) Label() string {
	switch v := n.Variant.(type) {
	case *Click:
		if v.Key != "" || n.has(fieldKey) {
			return v.Key
		}
		if n.Comment != "" || n.has(fieldComment) {
			return n.Comment
		}
		return UnknownKeyLabel
	case *SteerWheel:
		return SteerWheelLabel
	default:
		return UnknownKeyLabel
	}
}

// Anchor returns the normalized position the node is drawn at: pos for clicks,
// centerPos for steering wheels. ok is false when the node has no position.
func (n *Node) Anchor() (Point, bool) {
	switch v := n.Variant.(type) {
	case *Click:
		if v.Pos != nil {
			return *v.Pos, true
		}
	case *SteerWheel:
		if v.CenterPos != nil {
			return *v.CenterPos, true
		}
	}
	return Point{}, false
}

// SetAnchor stores a new normalized position. Unknown members of the previous
// position are kept.
func (n *Node) SetAnchor(p Point) {
	switch v := n.Variant.(type) {
	case *Click:
		p.inherit(v.Pos)
		v.Pos = &p
		n.mark(fieldPos)
	case *SteerWheel:
		p.inherit(v.CenterPos)
		v.CenterPos = &p
		n.mark(fieldCenterPos)
	}
}

// SetKey rebinds a click node. It is a no-op for other variants.
func (n *Node) SetKey(key string) {
	if v, ok := n.Variant.(*Click); ok {
		v.Key = key
		n.mark(fieldKey)
	}
}

// DirectionKeys returns the bindings of a steering wheel, with WASD for absent ones.
func (n *Node) DirectionKeys() DirectionKeys {
	v, ok := n.Variant.(*SteerWheel)
	if !ok {
		return DirectionKeys{}
	}
	k := DefaultDirectionKeys()
	if v.LeftKey != "" || n.has(fieldLeftKey) {
		k.Left = v.LeftKey
	}
	if v.RightKey != "" || n.has(fieldRightKey) {
		k.Right = v.RightKey
	}
	if v.UpKey != "" || n.has(fieldUpKey) {
		k.Up = v.UpKey
	}
	if v.DownKey != "" || n.has(fieldDownKey) {
		k.Down = v.DownKey
	}
	return k
}

// SetDirectionKeys overwrites all four bindings as given, including empty strings.
func (n *Node) SetDirectionKeys(k DirectionKeys) {
	v, ok := n.Variant.(*SteerWheel)
	if !ok {
		return
	}
	v.LeftKey, v.RightKey, v.UpKey, v.DownKey = k.Left, k.Right, k.Up, k.Down
	n.mark(fieldLeftKey, fieldRightKey, fieldUpKey, fieldDownKey)
}

// Document is a keymap layout.
type Document struct {
	Width  int
	Height int
	Nodes  []*Node

	dimsSet  bool
	dimsSeen bool
	order    []string
	extra    map[string]json.RawMessage
}

func NewDocument() *Document { return &Document{Nodes: []*Node{}} }

// Dimensions returns the persisted width and height. ok is true only if both were
// present in the source and positive.
func (d *Document) Dimensions() (w, h int, ok bool) {
	return d.Width, d.Height, d.dimsSet && d.Width > 0 && d.Height > 0
}

// HasDimensionFields reports whether the source carried a width or height field,
// valid or not.
func (d *Document) HasDimensionFields() bool { return d.dimsSeen }

// SetDimensions stamps the viewport size into the document.
func (d *Document) SetDimensions(w, h int) {
	d.Width, d.Height, d.dimsSet, d.dimsSeen = w, h, true, true
}

// Append adds n at the end of the node sequence.
func (d *Document) Append(n *Node) { d.Nodes = append(d.Nodes, n) }

// Node returns the node with the given identity and its index.
func (d *Document) Node(id NodeID) (*Node, int) {
	for i, n := range d.Nodes {
		if n.ID == id {
			return n, i
		}
	}
	return nil, -1
}

// Remove deletes the node with the given identity. It reports whether one was removed.
func (d *Document) Remove(id NodeID) bool {
	_, i := d.Node(id)
	if i < 0 {
		return false
	}
	d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)
	return true
}

// Unknown returns a copy of the top-level fields this model does not interpret.
func (d *Document) Unknown() map[string]json.RawMessage { return copyRaw(d.extra) }

func copyRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
