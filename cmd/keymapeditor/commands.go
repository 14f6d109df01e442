/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"keymapeditor/internal/backdrop"
	"keymapeditor/internal/domain"
	"keymapeditor/internal/export"
	applog "keymapeditor/internal/log"
	"keymapeditor/internal/render"
	"keymapeditor/internal/storage"
	"keymapeditor/internal/vector"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the dimensions, nodes and backups of a keymap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := storage.Load(args[0])
			if err != nil {
				return err
			}
			backups, err := storage.Backups(args[0])
			if err != nil {
				applog.WithComponent("cli").Warn("list backups failed", slog.String("path", args[0]), slog.Any("err", err))
			}
			printInfo(cmd.OutOrStdout(), args[0], doc, backups)
			return nil
		},
	}
}

func printInfo(out io.Writer, path string, doc *domain.Document, backups []string) {
	fmt.Fprintf(out, "File:  %s\n", path)
	if w, h, ok := doc.Dimensions(); ok {
		fmt.Fprintf(out, "Size:  %dx%d\n", w, h)
	} else if doc.HasDimensionFields() {
		fmt.Fprintf(out, "Size:  invalid (width=%d, height=%d)\n", doc.Width, doc.Height)
	} else {
		fmt.Fprintln(out, "Size:  not recorded")
	}
	if extra := doc.Unknown(); len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "Extra: %s\n", strings.Join(keys, ", "))
	}
	fmt.Fprintf(out, "Backups: %d\n", len(backups))
	for _, b := range backups {
		fmt.Fprintf(out, "  %s\n", filepath.Base(b))
	}
	fmt.Fprintf(out, "Nodes: %d\n", len(doc.Nodes))
	if len(doc.Nodes) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tLABEL\tPOSITION")
	for i, n := range doc.Nodes {
		pos := "-"
		if p, ok := n.Anchor(); ok {
			pos = fmt.Sprintf("%.4f, %.4f", p.X, p.Y)
		}
		typ := n.Type
		if typ == "" {
			typ = "(none)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, typ, n.Label(), pos)
	}
	_ = tw.Flush()
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a keymap against the JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read keymap: %w", err)
			}
			issues, err := storage.Validate(data)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				for _, is := range issues {
					fmt.Fprintln(cmd.OutOrStdout(), "  -", is)
				}
				return fmt.Errorf("%s: %d schema violation(s)", args[0], len(issues))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			return nil
		},
	}
}

type exportFlags struct {
	background    string
	width, height int
}

func exportCmd() *cobra.Command {
	var f exportFlags
	c := &cobra.Command{
		Use:   "export <file> <out.png|out.pdf>",
		Short: "Render a keymap to a PNG or PDF sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runExport(args[0], args[1], f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", args[1])
			return nil
		},
	}
	c.Flags().StringVar(&f.background, "background", "", "Background image drawn under the nodes")
	c.Flags().IntVar(&f.width, "width", 0, "Canvas width in pixels (default: document width)")
	c.Flags().IntVar(&f.height, "height", 0, "Canvas height in pixels (default: document height)")
	return c
}

func runExport(in, out string, f exportFlags) error {
	l := applog.WithOperation(applog.WithComponent("cli"), "export")
	doc, err := storage.Load(in)
	if err != nil {
		return err
	}
	w, h := cfg.Editor.DefaultWidth, cfg.Editor.DefaultHeight
	if dw, dh, ok := doc.Dimensions(); ok {
		w, h = dw, dh
	}
	if f.width > 0 {
		w = f.width
	}
	if f.height > 0 {
		h = f.height
	}
	vp, err := vector.NewViewport(w, h)
	if err != nil {
		return err
	}
	var bg image.Image
	if f.background != "" {
		var b *backdrop.Backdrop
		b, vp, err = backdrop.Loader{}.Load(f.background, vp)
		if err != nil {
			return err
		}
		bg = b.Image
	}
	scene := vector.NewScene()
	render.New(scene).RenderAll(doc, vp, bg)
	title := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	start := time.Now()
	if err := export.WriteFile(out, scene, vp, title); err != nil {
		return err
	}
	l.Info("exported", slog.String("in", in), slog.String("out", out), slog.String("viewport", vp.String()), slog.Duration("took", time.Since(start)))
	return nil
}

func recentCmd() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened keymaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore := openStore()
			defer closeStore()
			if store.Recent == nil {
				return errors.New("recent index is disabled")
			}
			entries, err := store.Recent.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent keymaps.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LAST USED\tOPENS\tNODES\tPATH")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.LastUsed.Local().Format("2006-01-02 15:04"), e.Opens, e.Nodes, e.Path)
			}
			return tw.Flush()
		},
	}
	c.Flags().IntVar(&limit, "limit", 10, "Maximum number of entries")
	return c
}
