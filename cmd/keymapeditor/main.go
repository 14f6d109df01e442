/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"keymapeditor/internal/config"
	"keymapeditor/internal/crash"
	"keymapeditor/internal/editor"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/storage"
	"keymapeditor/internal/ui"
	"keymapeditor/internal/version"
)

var cfg = config.Defaults()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "keymapeditor",
		Short:         "Edit on-screen key mapping layouts",
		Long:          editor.AppTitle + " places click and steer-wheel nodes over a screenshot and\nstores them as normalized keymap JSON.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loaded, err := config.Load()
			cfg = loaded
			applog.Init(applog.Options{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				AddSource: cfg.Logging.Source,
				File:      cfg.Logging.File,
				MaxSizeMB: cfg.Logging.MaxSizeMB,
			})
			if err != nil {
				applog.WithComponent("cli").Warn("config load failed; using defaults", slog.Any("err", err))
			}
		},
	}
	root.SetVersionTemplate("keymapeditor {{ .Version }}\n")
	root.AddCommand(
		versionCmd(),
		infoCmd(),
		validateCmd(),
		exportCmd(),
		recentCmd(),
		uiCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), editor.AppTitle)
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [file]",
		Short: "Launch the desktop editor (build with -tags fyne for the full UI)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return ui.Run(path)
		},
	}
}

// openStore returns the file store configured from cfg. The returned func closes
// the recent index, if one was opened.
func openStore() (*storage.FileStore, func()) {
	store := &storage.FileStore{
		Options:        storage.SaveOptions{Backup: cfg.Editor.Backups},
		ValidateOnOpen: cfg.Editor.ValidateOnOpen,
	}
	if !cfg.Index.Enabled {
		return store, func() {}
	}
	l := applog.WithComponent("cli")
	ip, err := cfg.IndexPath()
	if err != nil {
		l.Warn("recent index disabled", slog.Any("err", err))
		return store, func() {}
	}
	ri, err := storage.OpenRecentIndex(ip)
	if err != nil {
		l.Warn("recent index disabled", slog.String("path", ip), slog.Any("err", err))
		return store, func() {}
	}
	store.Recent = ri
	return store, func() { _ = ri.Close() }
}

func run() int {
	defer crash.Recover(nil)
	if err := newRootCmd().Execute(); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
