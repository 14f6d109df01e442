/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry in viewport pixel space.
// Values use float64 so that normalized document coordinates survive the round trip
// through pixel space without float32 truncation.

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Add returns p translated by (dx, dy).
func (p Pt) Add(dx, dy float64) Pt { return Pt{X: p.X + dx, Y: p.Y + dy} }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Around returns the square of half-extent r centered on c.
func Around(c Pt, r float64) Rect { return Rect{X: c.X - r, Y: c.Y - r, W: 2 * r, H: 2 * r} }

// Center returns the midpoint of r.
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r; all four edges are inclusive.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}
