/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Persisted field names.
const (
	fieldWidth  = "width"
	fieldHeight = "height"
	fieldNodes  = "keyMapNodes"

	fieldType        = "type"
	fieldComment     = "comment"
	fieldKey         = "key"
	fieldPos         = "pos"
	fieldCenterPos   = "centerPos"
	fieldLeftOffset  = "leftOffset"
	fieldRightOffset = "rightOffset"
	fieldUpOffset    = "upOffset"
	fieldDownOffset  = "downOffset"
	fieldLeftKey     = "leftKey"
	fieldRightKey    = "rightKey"
	fieldUpKey       = "upKey"
	fieldDownKey     = "downKey"

	fieldX = "x"
	fieldY = "y"
)

// Canonical output order for fields that were not in the source document.
var (
	documentFieldOrder   = []string{fieldWidth, fieldHeight, fieldNodes}
	pointFieldOrder      = []string{fieldX, fieldY}
	clickFieldOrder      = []string{fieldComment, fieldType, fieldPos, fieldKey}
	steerWheelFieldOrder = []string{
		fieldComment, fieldType, fieldCenterPos,
		fieldLeftOffset, fieldRightOffset, fieldUpOffset, fieldDownOffset,
		fieldLeftKey, fieldRightKey, fieldUpKey, fieldDownKey,
	}
)

var errNotObject = errors.New("expected a JSON object")

// Decode reads a keymap document.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Encode writes doc as indented UTF-8 JSON. Non-ASCII text and HTML characters are
// written as-is.
func Encode(w io.Writer, doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

type jsonField struct {
	key string
	raw json.RawMessage
}

// readObject splits a JSON object into its members, keeping source order.
func readObject(data []byte) ([]jsonField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}
	var out []jsonField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out = append(out, jsonField{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeObject is the inverse of readObject.
func writeObject(fields []jsonField) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalValue(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(f.raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// mergeFields lays out known and unknown members: source order first, then known
// fields new to this object in canonical order, then any remaining unknown fields.
func mergeFields(order []string, known map[string]any, canonical []string, extra map[string]json.RawMessage) ([]jsonField, error) {
	out := make([]jsonField, 0, len(known)+len(extra))
	done := make(map[string]bool, len(known)+len(extra))
	emit := func(key string) error {
		if done[key] {
			return nil
		}
		if v, ok := known[key]; ok {
			raw, err := marshalValue(v)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			out = append(out, jsonField{key: key, raw: raw})
			done[key] = true
			return nil
		}
		if raw, ok := extra[key]; ok {
			out = append(out, jsonField{key: key, raw: raw})
			done[key] = true
		}
		return nil
	}
	for _, k := range order {
		if err := emit(k); err != nil {
			return nil, err
		}
	}
	for _, k := range canonical {
		if err := emit(k); err != nil {
			return nil, err
		}
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if err := emit(k); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendUnique(order []string, seen map[string]bool, key string) []string {
	if seen[key] {
		return order
	}
	seen[key] = true
	return append(order, key)
}

// UnmarshalJSON decodes a node and assigns it a fresh identity.
func (n *Node) UnmarshalJSON(data []byte) error {
	fields, err := readObject(data)
	if err != nil {
		return fmt.Errorf("node: %w", err)
	}
	*n = Node{ID: NewNodeID(), present: map[string]bool{}, extra: map[string]json.RawMessage{}}
	for _, f := range fields {
		if f.key == fieldType {
			if err := json.Unmarshal(f.raw, &n.Type); err != nil {
				return fmt.Errorf("node field %q: %w", f.key, err)
			}
		}
	}
	kind := KindOf(n.Type)
	click := &Click{}
	wheel := &SteerWheel{}
	seen := map[string]bool{}
	for _, f := range fields {
		n.order = appendUnique(n.order, seen, f.key)
		if isNull(f.raw) {
			n.extra[f.key] = f.raw
			continue
		}
		var dst any
		switch f.key {
		case fieldType:
		case fieldComment:
			dst = &n.Comment
		default:
			if kind == KindSteerWheel {
				dst = wheel.field(f.key)
			} else {
				dst = click.field(f.key)
			}
			if dst == nil {
				n.extra[f.key] = f.raw
				continue
			}
		}
		if dst != nil {
			if err := json.Unmarshal(f.raw, dst); err != nil {
				return fmt.Errorf("node field %q: %w", f.key, err)
			}
		}
		n.present[f.key] = true
	}
	if kind == KindSteerWheel {
		n.Variant = wheel
	} else {
		n.Variant = click
	}
	return nil
}

// UnmarshalJSON decodes a position object. Members other than x and y are kept.
func (p *Point) UnmarshalJSON(data []byte) error {
	fields, err := readObject(data)
	if err != nil {
		return err
	}
	*p = Point{}
	seen := map[string]bool{}
	for _, f := range fields {
		p.order = appendUnique(p.order, seen, f.key)
		var dst *float64
		switch f.key {
		case fieldX:
			dst = &p.X
		case fieldY:
			dst = &p.Y
		default:
			if p.extra == nil {
				p.extra = map[string]json.RawMessage{}
			}
			p.extra[f.key] = f.raw
			continue
		}
		if err := json.Unmarshal(f.raw, dst); err != nil {
			return fmt.Errorf("field %q: %w", f.key, err)
		}
	}
	return nil
}

// MarshalJSON writes x and y, then the members that were not interpreted.
func (p Point) MarshalJSON() ([]byte, error) {
	known := map[string]any{fieldX: p.X, fieldY: p.Y}
	fields, err := mergeFields(p.order, known, pointFieldOrder, p.extra)
	if err != nil {
		return nil, err
	}
	return writeObject(fields)
}

func isNull(raw json.RawMessage) bool { return string(bytes.TrimSpace(raw)) == "null" }

func (c *Click) field(key string) any {
	switch key {
	case fieldKey:
		return &c.Key
	case fieldPos:
		return &c.Pos
	}
	return nil
}

func (w *SteerWheel) field(key string) any {
	switch key {
	case fieldCenterPos:
		return &w.CenterPos
	case fieldLeftOffset:
		return &w.LeftOffset
	case fieldRightOffset:
		return &w.RightOffset
	case fieldUpOffset:
		return &w.UpOffset
	case fieldDownOffset:
		return &w.DownOffset
	case fieldLeftKey:
		return &w.LeftKey
	case fieldRightKey:
		return &w.RightKey
	case fieldUpKey:
		return &w.UpKey
	case fieldDownKey:
		return &w.DownKey
	}
	return nil
}

// MarshalJSON writes known fields that were loaded or set, plus every unknown field.
func (n *Node) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	put := func(key string, v any, zero bool) {
		if n.has(key) || !zero {
			known[key] = v
		}
	}
	put(fieldType, n.Type, n.Type == "")
	put(fieldComment, n.Comment, n.Comment == "")
	canonical := clickFieldOrder
	switch v := n.Variant.(type) {
	case *Click:
		if v.Pos != nil {
			known[fieldPos] = v.Pos
		}
		put(fieldKey, v.Key, v.Key == "")
	case *SteerWheel:
		canonical = steerWheelFieldOrder
		if v.CenterPos != nil {
			known[fieldCenterPos] = v.CenterPos
		}
		put(fieldLeftOffset, v.LeftOffset, v.LeftOffset == 0)
		put(fieldRightOffset, v.RightOffset, v.RightOffset == 0)
		put(fieldUpOffset, v.UpOffset, v.UpOffset == 0)
		put(fieldDownOffset, v.DownOffset, v.DownOffset == 0)
		put(fieldLeftKey, v.LeftKey, v.LeftKey == "")
		put(fieldRightKey, v.RightKey, v.RightKey == "")
		put(fieldUpKey, v.UpKey, v.UpKey == "")
		put(fieldDownKey, v.DownKey, v.DownKey == "")
	}
	fields, err := mergeFields(n.order, known, canonical, n.extra)
	if err != nil {
		return nil, err
	}
	return writeObject(fields)
}

// UnmarshalJSON decodes a document. Width and height that are not numbers are
// treated as absent-but-seen so the caller can report them; a malformed node list
// is an error.
func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := readObject(data)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	*d = Document{Nodes: []*Node{}, extra: map[string]json.RawMessage{}}
	var wOK, hOK bool
	seen := map[string]bool{}
	for _, f := range fields {
		d.order = appendUnique(d.order, seen, f.key)
		switch f.key {
		case fieldWidth:
			d.dimsSeen = true
			d.Width, wOK = decodeDimension(f.raw)
		case fieldHeight:
			d.dimsSeen = true
			d.Height, hOK = decodeDimension(f.raw)
		case fieldNodes:
			var nodes []*Node
			if err := json.Unmarshal(f.raw, &nodes); err != nil {
				return fmt.Errorf("%s: %w", fieldNodes, err)
			}
			for i, n := range nodes {
				if n == nil {
					return fmt.Errorf("%s[%d]: null node", fieldNodes, i)
				}
			}
			if nodes != nil {
				d.Nodes = nodes
			}
		default:
			d.extra[f.key] = f.raw
		}
	}
	d.dimsSet = wOK && hOK
	return nil
}

func decodeDimension(raw json.RawMessage) (int, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return int(v), true
}

// MarshalJSON writes the document with its nodes and unknown fields.
func (d *Document) MarshalJSON() ([]byte, error) {
	nodes := d.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	known := map[string]any{fieldNodes: nodes}
	if d.dimsSeen || d.dimsSet {
		known[fieldWidth] = d.Width
		known[fieldHeight] = d.Height
	}
	fields, err := mergeFields(d.order, known, documentFieldOrder, d.extra)
	if err != nil {
		return nil, err
	}
	return writeObject(fields)
}
