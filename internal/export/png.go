/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a keymap scene to PNG or PDF.
package export

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"

	"keymapeditor/internal/vector"
)

// PNG rasterizes the scene at the viewport size.
func PNG(w io.Writer, scene *vector.Scene, vp vector.Viewport) error {
	dc, err := rasterize(scene, vp, nil)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// PNGWithFonts is PNG with labels drawn from faces.
func PNGWithFonts(w io.Writer, scene *vector.Scene, vp vector.Viewport, faces *FaceCache) error {
	dc, err := rasterize(scene, vp, faces)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func rasterize(scene *vector.Scene, vp vector.Viewport, faces *FaceCache) (*gg.Context, error) {
	if scene == nil {
		return nil, fmt.Errorf("nil scene")
	}
	if !vp.Valid() {
		return nil, vector.ErrInvalidViewport
	}
	if faces == nil {
		var err error
		if faces, err = labelFaces(); err != nil {
			return nil, err
		}
	}
	dc := gg.NewContext(vp.W, vp.H)
	dc.SetColor(vector.White.ToRGBA())
	dc.Clear()

	for _, it := range scene.Items() {
		switch it.Kind {
		case vector.KindImage:
			if it.Image != nil {
				dc.DrawImage(it.Image, int(it.Rect.X), int(it.Rect.Y))
			}
		case vector.KindRect:
			dc.DrawRectangle(it.Rect.X, it.Rect.Y, it.Rect.W, it.Rect.H)
			paint(dc, it)
		case vector.KindCircle:
			c := it.Rect.Center()
			dc.DrawCircle(c.X, c.Y, it.Rect.W/2)
			paint(dc, it)
		case vector.KindText:
			face, err := faces.Face(it.Font.SizePt)
			if err != nil {
				return nil, err
			}
			dc.SetFontFace(face)
			dc.SetColor(it.Fill.Color.ToRGBA())
			dc.DrawStringAnchored(it.Text, it.At.X, it.At.Y, 0.5, 0.5)
		}
	}
	return dc, nil
}

// paint fills and strokes the current path as the item asks.
func paint(dc *gg.Context, it vector.Item) {
	switch {
	case it.Fill.Enabled && it.Stroke.Enabled:
		dc.SetColor(it.Fill.Color.ToRGBA())
		dc.FillPreserve()
		dc.SetColor(it.Stroke.Color.ToRGBA())
		dc.SetLineWidth(it.Stroke.Width)
		dc.Stroke()
	case it.Fill.Enabled:
		dc.SetColor(it.Fill.Color.ToRGBA())
		dc.Fill()
	case it.Stroke.Enabled:
		dc.SetColor(it.Stroke.Color.ToRGBA())
		dc.SetLineWidth(it.Stroke.Width)
		dc.Stroke()
	default:
		dc.ClearPath()
	}
}
