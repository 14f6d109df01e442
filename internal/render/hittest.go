/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import "keymapeditor/internal/vector"

// HitTest returns the first registration, in registration order, whose bounding item
// contains p. Labels are not hit targets.
func (r *Renderer) HitTest(p vector.Pt) *Registration {
	for _, reg := range r.regs {
		it, ok := r.scene.Item(reg.Bound)
		if ok && it.Hit(p) {
			return reg
		}
	}
	return nil
}
