/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	applog "keymapeditor/internal/log"
	"keymapeditor/internal/vector"
	"keymapeditor/internal/version"
)

// PDF writes the scene as a single vector page. One pixel maps to one point.
// Labels use the built-in Helvetica, so text outside cp1252 is substituted.
func PDF(w io.Writer, scene *vector.Scene, vp vector.Viewport, title string) error {
	if scene == nil {
		return fmt.Errorf("nil scene")
	}
	if !vp.Valid() {
		return vector.ErrInvalidViewport
	}
	pw, ph := float64(vp.W), float64(vp.H)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	pdf.SetTitle(title, true)
	pdf.SetCreator(fmt.Sprintf("%s %s", applog.AppName, version.String()), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	images := 0
	for _, it := range scene.Items() {
		switch it.Kind {
		case vector.KindImage:
			if it.Image == nil {
				continue
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, it.Image); err != nil {
				return fmt.Errorf("encode backdrop: %w", err)
			}
			images++
			name := fmt.Sprintf("backdrop-%d", images)
			opt := gofpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opt, &buf)
			pdf.ImageOptions(name, it.Rect.X, it.Rect.Y, it.Rect.W, it.Rect.H, false, opt, 0, "")
		case vector.KindRect:
			if style := applyPaint(pdf, it); style != "" {
				pdf.Rect(it.Rect.X, it.Rect.Y, it.Rect.W, it.Rect.H, style)
			}
		case vector.KindCircle:
			if style := applyPaint(pdf, it); style != "" {
				c := it.Rect.Center()
				pdf.Circle(c.X, c.Y, it.Rect.W/2, style)
			}
		case vector.KindText:
			size := it.Font.SizePt
			if size <= 0 {
				size = 10
			}
			pdf.SetFont("Helvetica", "", size)
			col := it.Fill.Color
			pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
			s := tr(it.Text)
			// Center horizontally on At, and vertically on the cap height.
			x := it.At.X - pdf.GetStringWidth(s)/2
			y := it.At.Y + size*0.35
			pdf.Text(x, y, s)
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

// applyPaint sets colors for it and returns the gofpdf draw style, or "" when the
// item paints nothing.
func applyPaint(pdf *gofpdf.Fpdf, it vector.Item) string {
	style := ""
	if it.Fill.Enabled {
		c := it.Fill.Color
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		style += "F"
	}
	if it.Stroke.Enabled {
		c := it.Stroke.Color
		pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
		pdf.SetLineWidth(it.Stroke.Width)
		style = "D" + style
	}
	return style
}
