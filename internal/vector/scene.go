/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "sync"

// Scene is an ordered display list. Later items draw on top of earlier ones.
// Writers are expected to be a single event goroutine; readers (UI refresh, exporters)
// may snapshot concurrently via Items.
type Scene struct {
	mu       sync.RWMutex
	next     ItemID
	order    []ItemID
	items    map[ItemID]*Item
	onChange func()
}

func NewScene() *Scene {
	return &Scene{items: make(map[ItemID]*Item)}
}

// OnChange registers a callback invoked after every mutation, outside the lock.
func (s *Scene) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Scene) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Clear removes every item. IDs are not reused.
func (s *Scene) Clear() {
	s.mu.Lock()
	s.order = nil
	s.items = make(map[ItemID]*Item)
	s.mu.Unlock()
	s.changed()
}

// Add appends it on top of the scene and returns its new ID.
func (s *Scene) Add(it Item) ItemID {
	s.mu.Lock()
	s.next++
	it.ID = s.next
	s.items[it.ID] = &it
	s.order = append(s.order, it.ID)
	s.mu.Unlock()
	s.changed()
	return it.ID
}

// Delete removes the given items; unknown IDs are ignored.
func (s *Scene) Delete(ids ...ItemID) {
	s.mu.Lock()
	drop := make(map[ItemID]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			drop[id] = true
			delete(s.items, id)
		}
	}
	if len(drop) > 0 {
		kept := s.order[:0]
		for _, id := range s.order {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		s.order = kept
	}
	s.mu.Unlock()
	if len(drop) > 0 {
		s.changed()
	}
}

// Item returns a copy of the item with the given ID.
func (s *Scene) Item(id ItemID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

func (s *Scene) update(id ItemID, fn func(*Item)) bool {
	s.mu.Lock()
	it, ok := s.items[id]
	if ok {
		fn(it)
	}
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return ok
}

// SetRect replaces the box of a rect, circle or image item.
func (s *Scene) SetRect(id ItemID, r Rect) bool {
	return s.update(id, func(it *Item) { it.Rect = r })
}

// SetAnchor moves a text item.
func (s *Scene) SetAnchor(id ItemID, p Pt) bool {
	return s.update(id, func(it *Item) { it.At = p })
}

// SetText replaces the text of a text item.
func (s *Scene) SetText(id ItemID, text string) bool {
	return s.update(id, func(it *Item) { it.Text = text })
}

// Items returns a draw-ordered snapshot of the scene.
func (s *Scene) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// Len returns the number of items.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
