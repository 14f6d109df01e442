/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "image/color"

// Styles and paint definitions.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Blue        = Color{0, 0, 255, 255}
	Green       = Color{0, 128, 0, 255}
	Transparent = Color{0, 0, 0, 0}
)

// ToRGBA converts to the standard library color type used by image backends.
func (c Color) ToRGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

type Fill struct {
	Color   Color
	Enabled bool
}

type Stroke struct {
	Color   Color
	Width   float64
	Enabled bool
}

// Font describes label typography. Family is informational; backends pick a face.
type Font struct {
	Family string
	SizePt float64
}

// LabelFont is used for every node label.
var LabelFont = Font{Family: "Arial", SizePt: 10}
