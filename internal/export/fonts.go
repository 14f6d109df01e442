/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FaceCache hands out label faces by point size from one parsed OpenType font.
type FaceCache struct {
	DPI float64 // default 72 if zero

	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFaceCache parses ttf. A nil ttf selects Go Regular.
func NewFaceCache(ttf []byte) (*FaceCache, error) {
	if ttf == nil {
		ttf = goregular.TTF
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FaceCache{font: f, faces: make(map[float64]font.Face)}, nil
}

// LoadFaceCache reads a font file.
func LoadFaceCache(path string) (*FaceCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	fc, err := NewFaceCache(data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	return fc, nil
}

// Face returns the face for sizePt, creating it on first use.
func (c *FaceCache) Face(sizePt float64) (font.Face, error) {
	if sizePt <= 0 {
		sizePt = 10
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[sizePt]; ok {
		return f, nil
	}
	dpi := c.DPI
	if dpi <= 0 {
		dpi = 72
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{Size: sizePt, DPI: dpi, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	c.faces[sizePt] = face
	return face, nil
}

var (
	defaultFacesOnce sync.Once
	defaultFaces     *FaceCache
	defaultFacesErr  error
)

func labelFaces() (*FaceCache, error) {
	defaultFacesOnce.Do(func() {
		defaultFaces, defaultFacesErr = NewFaceCache(nil)
	})
	return defaultFaces, defaultFacesErr
}
