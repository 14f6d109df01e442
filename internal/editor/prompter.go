/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "keymapeditor/internal/domain"

// NodeAction is the choice offered for an existing node.
type NodeAction int

const (
	ActionModify NodeAction = iota + 1
	ActionDelete
)

func (a NodeAction) String() string {
	switch a {
	case ActionModify:
		return "modify"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// NoticeLevel grades a non-blocking notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Prompter asks the user for input. Every method blocks until answered; ok is false
// when the user cancelled.
type Prompter interface {
	ChooseNodeType() (kind domain.Kind, ok bool)
	PromptString(title, message, initial string) (value string, ok bool)
	PromptDirectionKeys(initial domain.DirectionKeys) (keys domain.DirectionKeys, ok bool)
	ChooseNodeAction(node *domain.Node) (action NodeAction, ok bool)
	PromptOpenPath() (path string, ok bool)
	PromptSavePath(suggested string) (path string, ok bool)
	PromptImagePath() (path string, ok bool)
	// Notify shows a message without waiting for the user.
	Notify(level NoticeLevel, title, message string)
}

// Prompt texts.
const (
	AppTitle = "KeyMap Editor"

	AddKeyTitle    = "Add Key Binding"
	AddKeyMessage  = "Enter key (e.g., Key_W):"
	EditKeyTitle   = "Change Key Binding"
	EditKeyMessage = "Enter new key:"

	SavedMessage      = "Keymap saved successfully!"
	NothingToSave     = "No keymap to save!"
	InvalidDimsFormat = "The keymap has invalid dimensions (width=%d, height=%d); keeping %s."
)
