/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"keymapeditor/internal/domain"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/render"
	"keymapeditor/internal/vector"
)

// addNode creates a node at pixel p. Cancelling any prompt leaves everything as is.
func (e *Editor) addNode(p vector.Pt) {
	l := applog.WithOperation(e.log, "add")
	kind, ok := e.prompt.ChooseNodeType()
	if !ok {
		return
	}
	n := e.vp.ToNormalized(p)
	pos := domain.Point{X: n.X, Y: n.Y}

	var node *domain.Node
	switch kind {
	case domain.KindSteerWheel:
		node = domain.NewSteerWheel(pos)
	case domain.KindClick:
		key, ok := e.prompt.PromptString(AddKeyTitle, AddKeyMessage, "")
		if !ok || key == "" {
			return
		}
		node = domain.NewClick(key, pos)
	default:
		l.Warn("unsupported node type", slog.String("kind", kind.String()))
		return
	}

	if e.doc == nil {
		e.doc = domain.NewDocument()
	}
	e.doc.Append(node)
	e.render.RenderNode(node, e.vp)
	l.Info("node added", slog.String("type", node.Type), slog.String("label", node.Label()),
		slog.Float64("x", pos.X), slog.Float64("y", pos.Y))
}

// editNode offers modify or delete for the node behind reg.
func (e *Editor) editNode(reg *render.Registration) {
	action, ok := e.prompt.ChooseNodeAction(reg.Node)
	if !ok {
		return
	}
	switch action {
	case ActionModify:
		e.modifyNode(reg)
	case ActionDelete:
		e.deleteNode(reg)
	}
}

func (e *Editor) modifyNode(reg *render.Registration) {
	l := applog.WithOperation(e.log, "modify")
	node := reg.Node
	switch node.Variant.(type) {
	case *domain.SteerWheel:
		keys, ok := e.prompt.PromptDirectionKeys(node.DirectionKeys())
		if !ok {
			return
		}
		node.SetDirectionKeys(keys)
		l.Info("steering keys changed", slog.String("left", keys.Left), slog.String("right", keys.Right),
			slog.String("up", keys.Up), slog.String("down", keys.Down))
	default:
		key, ok := e.prompt.PromptString(EditKeyTitle, EditKeyMessage, node.Label())
		if !ok || key == "" {
			return
		}
		node.SetKey(key)
		e.render.SetLabel(reg, key)
		l.Info("key changed", slog.String("key", key))
	}
}

func (e *Editor) deleteNode(reg *render.Registration) {
	id := reg.Node.ID
	if e.doc != nil {
		e.doc.Remove(id)
	}
	e.render.Remove(reg)
	if e.selected == id {
		e.selected = ""
		e.state = StateIdle
	}
	applog.WithOperation(e.log, "delete").Info("node deleted", slog.String("type", reg.Node.Type), slog.String("label", reg.Node.Label()))
}
