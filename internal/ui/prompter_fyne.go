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
	"errors"
	"os"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"keymapeditor/internal/domain"
	"keymapeditor/internal/editor"
)

// dialogPrompter implements editor.Prompter with fyne dialogs. Its blocking methods
// must be called from the session worker, never from the UI goroutine.
type dialogPrompter struct {
	w fyne.Window
	s *session
}

var _ editor.Prompter = (*dialogPrompter)(nil)

type answer[T any] struct {
	v  T
	ok bool
}

// ask shows a dialog on the UI goroutine and waits for the first reply.
func ask[T any](p *dialogPrompter, show func(reply func(T, bool))) (T, bool) {
	ch := make(chan answer[T], 1)
	var once sync.Once
	reply := func(v T, ok bool) { once.Do(func() { ch <- answer[T]{v: v, ok: ok} }) }
	p.s.beginPrompt()
	defer p.s.endPrompt()
	fyne.Do(func() { show(reply) })
	a := <-ch
	return a.v, a.ok
}

func (p *dialogPrompter) ChooseNodeType() (domain.Kind, bool) {
	return ask(p, func(reply func(domain.Kind, bool)) {
		var d dialog.Dialog
		pick := func(k domain.Kind) func() {
			return func() { reply(k, true); d.Hide() }
		}
		content := container.NewVBox(
			widget.NewLabel("Select Key Type:"),
			widget.NewButton(domain.TypeClick, pick(domain.KindClick)),
			widget.NewButton(domain.TypeSteerWheel, pick(domain.KindSteerWheel)),
		)
		d = dialog.NewCustom("Select Key Type", "Cancel", content, p.w)
		d.SetOnClosed(func() { reply(0, false) })
		d.Show()
	})
}

func (p *dialogPrompter) PromptString(title, message, initial string) (string, bool) {
	return ask(p, func(reply func(string, bool)) {
		entry := widget.NewEntry()
		entry.SetText(initial)
		d := dialog.NewCustomConfirm(title, "OK", "Cancel", container.NewVBox(widget.NewLabel(message), entry), func(ok bool) {
			reply(entry.Text, ok)
		}, p.w)
		entry.OnSubmitted = func(s string) { reply(s, true); d.Hide() }
		d.Resize(fyne.NewSize(360, d.MinSize().Height))
		d.Show()
		p.w.Canvas().Focus(entry)
	})
}

func (p *dialogPrompter) PromptDirectionKeys(initial domain.DirectionKeys) (domain.DirectionKeys, bool) {
	return ask(p, func(reply func(domain.DirectionKeys, bool)) {
		left, right, up, down := widget.NewEntry(), widget.NewEntry(), widget.NewEntry(), widget.NewEntry()
		left.SetText(initial.Left)
		right.SetText(initial.Right)
		up.SetText(initial.Up)
		down.SetText(initial.Down)
		items := []*widget.FormItem{
			widget.NewFormItem("Left Key:", left),
			widget.NewFormItem("Right Key:", right),
			widget.NewFormItem("Up Key:", up),
			widget.NewFormItem("Down Key:", down),
		}
		d := dialog.NewForm("Modify Keys", "Modify Keys", "Cancel", items, func(ok bool) {
			reply(domain.DirectionKeys{Left: left.Text, Right: right.Text, Up: up.Text, Down: down.Text}, ok)
		}, p.w)
		d.Resize(fyne.NewSize(360, d.MinSize().Height))
		d.Show()
	})
}

func (p *dialogPrompter) ChooseNodeAction(node *domain.Node) (editor.NodeAction, bool) {
	return ask(p, func(reply func(editor.NodeAction, bool)) {
		var d dialog.Dialog
		pick := func(a editor.NodeAction) func() {
			return func() { reply(a, true); d.Hide() }
		}
		modify := "Modify Key"
		if node.Kind() == domain.KindSteerWheel {
			modify = "Modify Keys"
		}
		content := container.NewVBox(
			widget.NewLabel(node.Label()),
			widget.NewButton(modify, pick(editor.ActionModify)),
			widget.NewButton("Delete Key", pick(editor.ActionDelete)),
		)
		d = dialog.NewCustom("Modify or Delete Key", "Cancel", content, p.w)
		d.SetOnClosed(func() { reply(0, false) })
		d.Show()
	})
}

func (p *dialogPrompter) PromptOpenPath() (string, bool) {
	return p.openPath([]string{".json"})
}

func (p *dialogPrompter) PromptImagePath() (string, bool) {
	return p.openPath([]string{".png", ".jpg", ".jpeg", ".bmp", ".webp"})
}

func (p *dialogPrompter) openPath(exts []string) (string, bool) {
	return ask(p, func(reply func(string, bool)) {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				if err != nil {
					dialog.ShowError(err, p.w)
				}
				reply("", false)
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			reply(path, true)
		}, p.w)
		fd.SetFilter(fstorage.NewExtensionFileFilter(exts))
		fd.Show()
	})
}

// PromptSavePath asks for a folder and then a file name. The target is not opened
// here: the store backs up an existing file before replacing it.
func (p *dialogPrompter) PromptSavePath(current string) (string, bool) {
	return ask(p, func(reply func(string, bool)) {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				if err != nil {
					dialog.ShowError(err, p.w)
				}
				reply("", false)
				return
			}
			dir := uri.Path()
			name := widget.NewEntry()
			name.SetText(suggestedName(current))
			form := dialog.NewForm("Save Keymap", "Save", "Cancel", []*widget.FormItem{
				widget.NewFormItem("File name", name),
			}, func(ok bool) {
				if !ok {
					reply("", false)
					return
				}
				path, perr := savePath(dir, name.Text)
				if perr != nil {
					dialog.ShowError(perr, p.w)
					reply("", false)
					return
				}
				if _, serr := os.Stat(path); serr == nil && path != current {
					dialog.ShowConfirm("Replace file", filepath.Base(path)+" already exists. Replace it?", func(yes bool) {
						reply(path, yes)
					}, p.w)
					return
				}
				reply(path, true)
			}, p.w)
			form.Resize(fyne.NewSize(420, 160))
			form.Show()
		}, p.w)
		if current != "" {
			if dir, err := fstorage.ListerForURI(fstorage.NewFileURI(filepath.Dir(current))); err == nil {
				fd.SetLocation(dir)
			}
		}
		fd.Show()
	})
}

func (p *dialogPrompter) Notify(level editor.NoticeLevel, title, message string) {
	fyne.Do(func() {
		if level == editor.NoticeError {
			dialog.ShowError(errors.New(message), p.w)
			return
		}
		dialog.ShowInformation(title, message, p.w)
	})
}
