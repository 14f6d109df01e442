/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"errors"
	"fmt"
)

// ErrInvalidViewport is returned for non-positive viewport dimensions.
var ErrInvalidViewport = errors.New("viewport dimensions must be positive")

// Viewport is the current pixel size of the editing canvas. Stored node positions are
// fractions of it; every conversion uses the viewport current at the time of the call.
type Viewport struct {
	W, H int
}

// NewViewport validates and returns a viewport.
func NewViewport(w, h int) (Viewport, error) {
	if w <= 0 || h <= 0 {
		return Viewport{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, w, h)
	}
	return Viewport{W: w, H: h}, nil
}

// Valid reports whether both dimensions are positive.
func (v Viewport) Valid() bool { return v.W > 0 && v.H > 0 }

// ToPixel maps a normalized point to viewport pixels.
func (v Viewport) ToPixel(n Pt) Pt {
	return Pt{X: n.X * float64(v.W), Y: n.Y * float64(v.H)}
}

// ToNormalized maps a pixel point to normalized [0,1] space. The viewport must be valid.
func (v Viewport) ToNormalized(p Pt) Pt {
	return Pt{X: p.X / float64(v.W), Y: p.Y / float64(v.H)}
}

// Bounds returns the viewport as a rect anchored at the origin.
func (v Viewport) Bounds() Rect { return Rect{W: float64(v.W), H: float64(v.H)} }

func (v Viewport) String() string { return fmt.Sprintf("%dx%d", v.W, v.H) }
