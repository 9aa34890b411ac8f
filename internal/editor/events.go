/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"
	"sync"
	"time"
)

type EventKind int

const (
	// EventScene follows a committed change to items or styles.
	EventScene EventKind = iota
	// EventSelection follows a selection change.
	EventSelection
	// EventHistory follows undo, redo, restore or a history reset.
	EventHistory
	// EventNotice carries a user-facing message.
	EventNotice
	// EventDrag follows pointer moves during a drag.
	EventDrag
)

func (k EventKind) String() string {
	switch k {
	case EventScene:
		return "scene"
	case EventSelection:
		return "selection"
	case EventHistory:
		return "history"
	case EventNotice:
		return "notice"
	case EventDrag:
		return "drag"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind   EventKind
	Label  string
	ItemID string
	Notice *Notice
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short message for the user, the equivalent of a toast.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	TS      time.Time   `json:"ts"`
}

const maxNotices = 20

func (e *Editor) notify(level NoticeLevel, msg string) {
	n := Notice{Level: level, Message: msg, TS: e.opts.Now()}
	e.notices = append(e.notices, n)
	if len(e.notices) > maxNotices {
		e.notices = e.notices[len(e.notices)-maxNotices:]
	}
	if level == NoticeError {
		e.log.Warn("notice", slog.String("message", msg))
	} else {
		e.log.Info("notice", slog.String("message", msg))
	}
	e.emit(Event{Kind: EventNotice, Notice: &n})
}

// Notices returns the most recent notices, oldest first.
func (e *Editor) Notices() []Notice {
	return append([]Notice(nil), e.notices...)
}

// LastNotice returns the newest notice.
func (e *Editor) LastNotice() (Notice, bool) {
	if len(e.notices) == 0 {
		return Notice{}, false
	}
	return e.notices[len(e.notices)-1], true
}

// Subscription is a registered listener; Close releases it.
type Subscription struct {
	e    *Editor
	id   int
	once sync.Once
}

// Subscribe registers fn for every event. Listeners run synchronously on the
// caller of the action and must not call back into the editor.
func (e *Editor) Subscribe(fn func(Event)) *Subscription {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.nextSub++
	e.subs[e.nextSub] = fn
	return &Subscription{e: e, id: e.nextSub}
}

// Close unregisters the listener. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.e.subMu.Lock()
		delete(s.e.subs, s.id)
		s.e.subMu.Unlock()
	})
}

func (e *Editor) emit(ev Event) {
	e.subMu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
