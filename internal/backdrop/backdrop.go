/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backdrop decodes background images and scales them to fit the editor viewport.
package backdrop

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	applog "keymapeditor/internal/log"
	"keymapeditor/internal/vector"
)

var ErrEmptyImage = errors.New("backdrop: image has no pixels")

// Backdrop is a decoded background image already resampled to the viewport it was
// loaded for.
type Backdrop struct {
	Image      image.Image
	Source     string
	Format     string
	SourceSize image.Point
	Scale      float64
}

// Loader decodes image files. The zero value uses Catmull-Rom resampling.
type Loader struct {
	Interpolator draw.Interpolator
}

// Load decodes path and scales it proportionally so that it fits inside vp. The
// returned viewport is the scaled image size and becomes the editor viewport.
func (l Loader) Load(path string, vp vector.Viewport) (*Backdrop, vector.Viewport, error) {
	log := applog.WithOperation(applog.WithComponent("backdrop"), "load").With(slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return nil, vp, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	bd, out, err := l.Decode(f, vp)
	if err != nil {
		log.Error("backdrop load failed", slog.Any("err", err))
		return nil, vp, err
	}
	bd.Source = path
	log.Info("backdrop loaded",
		slog.String("format", bd.Format),
		slog.Int("src_w", bd.SourceSize.X), slog.Int("src_h", bd.SourceSize.Y),
		slog.String("viewport", out.String()))
	return bd, out, nil
}

// Decode is Load for an already opened image.
func (l Loader) Decode(r io.Reader, vp vector.Viewport) (*Backdrop, vector.Viewport, error) {
	if !vp.Valid() {
		return nil, vp, vector.ErrInvalidViewport
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, vp, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	out, err := Fit(b.Dx(), b.Dy(), vp)
	if err != nil {
		return nil, vp, err
	}
	interp := l.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	return &Backdrop{
		Image:      Resample(src, out.W, out.H, interp),
		Format:     format,
		SourceSize: image.Pt(b.Dx(), b.Dy()),
		Scale:      FitScale(b.Dx(), b.Dy(), vp),
	}, out, nil
}

// FitScale is the largest factor that keeps an iw x ih image inside vp.
func FitScale(iw, ih int, vp vector.Viewport) float64 {
	if iw <= 0 || ih <= 0 {
		return 0
	}
	return math.Min(float64(vp.W)/float64(iw), float64(vp.H)/float64(ih))
}

// Fit returns the viewport an iw x ih image occupies after proportional scaling into
// vp. Scaled sizes truncate toward zero.
func Fit(iw, ih int, vp vector.Viewport) (vector.Viewport, error) {
	if iw <= 0 || ih <= 0 {
		return vp, ErrEmptyImage
	}
	s := FitScale(iw, ih, vp)
	out, err := vector.NewViewport(int(float64(iw)*s), int(float64(ih)*s))
	if err != nil {
		return vp, fmt.Errorf("scale %dx%d into %s: %w", iw, ih, vp, err)
	}
	return out, nil
}

// Resample scales src to exactly w x h.
func Resample(src image.Image, w, h int, interp draw.Interpolator) image.Image {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h && b.Min == (image.Point{}) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
