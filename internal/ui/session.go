/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"keymapeditor/internal/crash"
	"keymapeditor/internal/editor"
	applog "keymapeditor/internal/log"
)

// queueDepth bounds pending editor jobs; pointer moves beyond it are dropped.
const queueDepth = 64

type job struct {
	run     func(*editor.Editor) error
	command bool
}

// session runs every editor call on one worker goroutine. Dialogs block the
// worker, so input that arrives while a prompt is open is discarded.
type session struct {
	ed      *editor.Editor
	jobs    chan job
	prompts atomic.Int32
	onError func(error)
	after   func(ed *editor.Editor, command bool)

	stopOnce sync.Once
	done     chan struct{}
	log      *slog.Logger
}

func newSession(ed *editor.Editor) *session {
	return &session{
		ed:   ed,
		jobs: make(chan job, queueDepth),
		done: make(chan struct{}),
		log:  applog.WithComponent("ui"),
	}
}

// start launches the worker. onError receives job errors other than
// editor.ErrNoDocument; after runs on the worker once each job has finished and
// reports whether it was a menu command.
func (s *session) start(onError func(error), after func(ed *editor.Editor, command bool)) {
	s.onError = onError
	s.after = after
	go s.loop()
}

func (s *session) loop() {
	defer close(s.done)
	defer crash.Recover(s.ed)
	for j := range s.jobs {
		err := j.run(s.ed)
		if err != nil && !errors.Is(err, editor.ErrNoDocument) {
			s.log.Error("editor job failed", slog.Any("err", err))
			if s.onError != nil {
				s.onError(err)
			}
		}
		if s.after != nil {
			s.after(s.ed, j.command)
		}
	}
}

// input queues a pointer-driven job. It is dropped while a prompt is open or
// when the queue is full.
func (s *session) input(fn func(*editor.Editor)) bool {
	if s.prompting() {
		return false
	}
	return s.offer(job{run: func(ed *editor.Editor) error { fn(ed); return nil }})
}

// command queues a menu action under the same rules as input.
func (s *session) command(fn func(*editor.Editor) error) bool {
	if s.prompting() {
		return false
	}
	return s.offer(job{run: fn, command: true})
}

func (s *session) offer(j job) (ok bool) {
	defer func() {
		// send on a closed queue after stop
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.jobs <- j:
		return true
	default:
		s.log.Debug("editor queue full; event dropped")
		return false
	}
}

func (s *session) beginPrompt()    { s.prompts.Add(1) }
func (s *session) endPrompt()      { s.prompts.Add(-1) }
func (s *session) prompting() bool { return s.prompts.Load() > 0 }

// stop closes the queue and waits for the worker to drain it.
func (s *session) stop() {
	s.stopOnce.Do(func() { close(s.jobs) })
	<-s.done
}
