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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"keymapeditor/internal/config"
	"keymapeditor/internal/crash"
	"keymapeditor/internal/editor"
	"keymapeditor/internal/export"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/storage"
	"keymapeditor/internal/vector"
	"keymapeditor/internal/version"
)

const recentLimit = 10

// Run starts the desktop editor. A non-empty path is opened once the window is up.
func Run(path string) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", err))
	}
	store := &storage.FileStore{
		Options:        storage.SaveOptions{Backup: cfg.Editor.Backups},
		ValidateOnOpen: cfg.Editor.ValidateOnOpen,
	}
	if cfg.Index.Enabled {
		if ip, err := cfg.IndexPath(); err != nil {
			l.Warn("recent index disabled", slog.Any("err", err))
		} else if ri, err := storage.OpenRecentIndex(ip); err != nil {
			l.Warn("recent index disabled", slog.String("path", ip), slog.Any("err", err))
		} else {
			store.Recent = ri
			defer func() { _ = ri.Close() }()
		}
	}
	vp, err := vector.NewViewport(cfg.Editor.DefaultWidth, cfg.Editor.DefaultHeight)
	if err != nil {
		d := config.Defaults().Editor
		l.Warn("invalid default canvas size", slog.Any("err", err))
		vp = vector.Viewport{W: d.DefaultWidth, H: d.DefaultHeight}
	}

	fyneApp := app.NewWithID(applog.AppName)
	w := fyneApp.NewWindow(editor.AppTitle)
	prefs := fyneApp.Preferences()

	scene := vector.NewScene()
	prompter := &dialogPrompter{w: w}
	ed, err := editor.New(editor.Options{Prompter: prompter, Store: store, Viewport: vp, Scene: scene})
	if err != nil {
		return err
	}
	defer crash.Recover(ed)
	s := newSession(ed)
	prompter.s = s

	kc := NewKeymapCanvas(scene, vp)
	kc.handlers = pointerHandlers{
		down:      func(p vector.Pt) { s.input(func(ed *editor.Editor) { ed.PointerDown(p) }) },
		move:      func(p vector.Pt) { s.input(func(ed *editor.Editor) { ed.PointerMove(p) }) },
		up:        func() { s.input(func(ed *editor.Editor) { ed.PointerUp() }) },
		secondary: func(p vector.Pt) { s.input(func(ed *editor.Editor) { ed.SecondaryClick(p) }) },
	}
	var refreshQueued atomic.Bool
	scene.OnChange(func() {
		if refreshQueued.CompareAndSwap(false, true) {
			fyne.Do(func() {
				refreshQueued.Store(false)
				kc.Refresh()
			})
		}
	})

	status := widget.NewLabel("Ready")
	ed.OnViewportChange(func(vp vector.Viewport) {
		fyne.Do(func() {
			kc.SetViewport(vp)
			w.Resize(fyne.NewSize(float32(vp.W), float32(vp.H)+status.MinSize().Height))
		})
	})

	recentMenu := fyne.NewMenu("Open Recent")
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = recentMenu
	recentItem.Disabled = store.Recent == nil

	var mainMenu *fyne.MainMenu
	rebuildRecent := func(entries []storage.RecentEntry) {
		items := make([]*fyne.MenuItem, 0, len(entries))
		for _, e := range entries {
			p := e.Path
			items = append(items, fyne.NewMenuItem(p, func() {
				l.Info("menu: open recent", slog.String("path", p))
				s.command(func(ed *editor.Editor) error { return ed.OpenPath(p) })
			}))
		}
		recentMenu.Items = items
		if mainMenu != nil {
			mainMenu.Refresh()
		}
	}
	listRecent := func() []storage.RecentEntry {
		if store.Recent == nil {
			return nil
		}
		entries, err := store.Recent.List(context.Background(), recentLimit)
		if err != nil {
			l.Warn("list recent documents failed", slog.Any("err", err))
		}
		return entries
	}

	s.start(
		func(err error) { fyne.Do(func() { dialog.ShowError(err, w) }) },
		func(ed *editor.Editor, command bool) {
			title, line := describe(ed)
			var entries []storage.RecentEntry
			if command {
				entries = listRecent()
			}
			fyne.Do(func() {
				w.SetTitle(title)
				status.SetText(line)
				if command {
					rebuildRecent(entries)
				}
			})
		},
	)

	openItem := fyne.NewMenuItem("Open KeyMap", func() {
		l.Info("menu: open keymap")
		s.command((*editor.Editor).OpenDocument)
	})
	saveItem := fyne.NewMenuItem("Save KeyMap", func() {
		l.Info("menu: save keymap")
		s.command((*editor.Editor).SaveDocument)
	})
	backdropItem := fyne.NewMenuItem("Open Background Image", func() {
		l.Info("menu: open background image")
		s.command((*editor.Editor).OpenBackdrop)
	})
	exportItem := fyne.NewMenuItem("Export Image…", func() {
		l.Info("menu: export")
		showExportDialog(w, s)
	})
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	backdropItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyB, Modifier: fyne.KeyModifierShortcutDefault}
	fileMenu := fyne.NewMenu("File", openItem, saveItem, backdropItem, fyne.NewMenuItemSeparator(), recentItem, exportItem)

	aboutItem := fyne.NewMenuItem("About KeyMap Editor", func() {
		l.Info("menu: about")
		exe, _ := os.Executable()
		info := fmt.Sprintf("%s\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			editor.AppTitle, version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	mainMenu = fyne.NewMainMenu(fileMenu, fyne.NewMenu("Help", aboutItem))
	w.SetMainMenu(mainMenu)
	for _, it := range []*fyne.MenuItem{openItem, saveItem, backdropItem} {
		act := it.Action
		w.Canvas().AddShortcut(it.Shortcut, func(fyne.Shortcut) { act() })
	}
	rebuildRecent(listRecent())

	w.SetContent(container.NewBorder(nil, status, nil, nil, container.NewScroll(kc)))
	winW := prefs.IntWithFallback("window.width", vp.W)
	winH := prefs.IntWithFallback("window.height", vp.H)
	if winW < 400 {
		winW = 400
	}
	if winH < 300 {
		winH = 300
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if path != "" {
		s.command(func(ed *editor.Editor) error { return ed.OpenPath(path) })
	}

	w.ShowAndRun()
	// a worker parked in a dialog never returns once the window is gone
	if !s.prompting() {
		s.stop()
	}
	l.Info("UI closed")
	return nil
}

// describe renders the window title and status line for the current document.
func describe(ed *editor.Editor) (title, line string) {
	doc := ed.Document()
	if doc == nil {
		return editor.AppTitle, fmt.Sprintf("No keymap open · canvas %s", ed.Viewport())
	}
	name := "untitled"
	if p := ed.Path(); p != "" {
		name = filepath.Base(p)
	}
	line = fmt.Sprintf("%s · %d nodes · canvas %s", name, len(doc.Nodes), ed.Viewport())
	if n, ok := ed.Selection(); ok {
		line += " · selected " + n.Label()
	}
	return fmt.Sprintf("%s - %s", editor.AppTitle, name), line
}

// showExportDialog asks for a .png or .pdf target and renders the scene on the worker.
func showExportDialog(w fyne.Window, s *session) {
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if wc == nil {
			return
		}
		out := wc.URI().Path()
		_ = wc.Close()
		s.command(func(ed *editor.Editor) error {
			title := editor.AppTitle
			if p := ed.Path(); p != "" {
				title = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			}
			if err := export.WriteFile(out, ed.Scene(), ed.Viewport(), title); err != nil {
				return err
			}
			fyne.Do(func() { dialog.ShowInformation("Export", "Exported to "+out, w) })
			return nil
		})
	}, w)
	fd.SetFileName("keymap.png")
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".pdf"}))
	fd.Show()
}
