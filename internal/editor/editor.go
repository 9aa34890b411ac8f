/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor is the application context of InMyRoom. It owns the scene,
// selection, drag and history components and turns every committed user
// action into exactly one history entry. Front ends (CLI, HTTP, desktop)
// drive an Editor; it is not safe for concurrent use, so each front end
// serializes its calls.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inmyroom/internal/config"
	"inmyroom/internal/domain"
	"inmyroom/internal/drag"
	"inmyroom/internal/export"
	"inmyroom/internal/history"
	applog "inmyroom/internal/log"
	"inmyroom/internal/scene"
	"inmyroom/internal/selection"
	"inmyroom/internal/storage"
	"inmyroom/internal/vector"
)

// InitialLabel names the first history entry of a session.
const InitialLabel = "Initial state"

// NoSelectionMessage is the notice shown when an action needs a selection.
const NoSelectionMessage = "Select an item first."

var (
	ErrNoSelection    = errors.New("no item selected")
	ErrDragActive     = errors.New("a drag is in progress")
	ErrInvalidOptions = errors.New("invalid editor options")
	ErrOutOfRange     = errors.New("index out of range")
)

// Options configures an Editor. Zero values fall back to the defaults.
type Options struct {
	Bounds         domain.Bounds
	Limits         domain.SizeLimits
	SnapThreshold  float64
	HistoryLimit   int
	CoalesceWindow time.Duration
	// DataDir receives crash reports and crash autosaves.
	DataDir     string
	ExportDir   string
	ExportScale float64
	Clipboard   export.Clipboard
	Now         func() time.Time
}

// OptionsFromConfig maps the user configuration onto editor options.
func OptionsFromConfig(cfg config.AppConfig, dataDir string) Options {
	c := cfg.Canvas
	return Options{
		Bounds:         domain.Bounds{Width: c.Width, Height: c.Height, FloorHeight: c.FloorHeight, Padding: c.Padding},
		Limits:         domain.SizeLimits{Min: c.MinItemSize, Max: c.MaxItemSize},
		SnapThreshold:  c.SnapThreshold,
		HistoryLimit:   cfg.History.Limit,
		CoalesceWindow: cfg.History.CoalesceWindow(),
		DataDir:        dataDir,
		ExportDir:      cfg.Export.Dir,
		ExportScale:    float64(cfg.Export.Scale),
	}
}

func (o *Options) fill() error {
	if o.Bounds == (domain.Bounds{}) {
		o.Bounds = domain.DefaultBounds()
	}
	if !o.Bounds.Valid() {
		return fmt.Errorf("%w: bounds %+v", ErrInvalidOptions, o.Bounds)
	}
	if o.Limits == (domain.SizeLimits{}) {
		o.Limits = domain.DefaultSizeLimits()
	}
	if o.Limits.Min <= 0 || o.Limits.Min > o.Limits.Max {
		return fmt.Errorf("%w: size limits %+v", ErrInvalidOptions, o.Limits)
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = history.DefaultCapacity
	}
	if o.ExportScale <= 0 {
		o.ExportScale = export.DefaultScale
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}

// Editor is the single application context.
type Editor struct {
	opts  Options
	sc    *scene.Scene
	sel   *selection.Controller
	drag  *drag.Controller
	hist  *history.Timeline
	store storage.Store
	log   *slog.Logger

	// nudged is the item moved by keyboard nudges since the last EndNudge.
	nudged string

	notices []Notice

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New builds an editor over store. A nil store keeps the room in memory.
// The editor starts empty; call Start to load the saved room.
func New(opts Options, store storage.Store) (*Editor, error) {
	if err := opts.fill(); err != nil {
		return nil, err
	}
	if store == nil {
		store = storage.NewMemoryStore(0)
	}
	e := &Editor{
		opts:  opts,
		sc:    scene.New(),
		store: store,
		log:   applog.WithComponent("editor"),
		subs:  map[int]func(Event){},
	}
	e.sel = selection.New(e.sc, selection.Hooks{
		OnSelect:   func(id string) { e.emit(Event{Kind: EventSelection, ItemID: id}) },
		OnDeselect: func(id string) { e.emit(Event{Kind: EventSelection, ItemID: id}) },
	})
	e.drag = drag.New(e.sc, e.sel, drag.Options{
		Bounds: opts.Bounds,
		Limits: opts.Limits,
		Snap:   vector.SnapOptions{Threshold: opts.SnapThreshold, SnapToEdges: true, SnapToCenters: true},
	})
	e.hist = history.New(history.Config{Capacity: opts.HistoryLimit, CoalesceWindow: opts.CoalesceWindow, Now: opts.Now})
	e.hist.Reset(InitialLabel, e.sc.Snapshot())
	return e, nil
}

// Start loads the saved room, if any, and starts a fresh history whose first
// entry is the loaded state. Missing or malformed saved state is not an
// error; loaded reports whether a room was restored.
func (e *Editor) Start(ctx context.Context) (loaded bool, err error) {
	l := applog.WithOperation(e.log, "start")
	data, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSavedState):
		l.InfoContext(ctx, "no saved room; starting empty")
	case err != nil:
		return false, fmt.Errorf("load room: %w", err)
	default:
		patch, derr := storage.Deserialize(data)
		if derr != nil {
			l.InfoContext(ctx, "saved room unusable; starting empty", slog.Any("err", derr))
			break
		}
		e.apply(patch.Snapshot)
		loaded = true
		l.InfoContext(ctx, "room loaded", slog.Int("items", e.sc.Len()), slog.String("version", patch.Version))
	}
	e.hist.Reset(InitialLabel, e.sc.Snapshot())
	e.emit(Event{Kind: EventHistory, Label: InitialLabel})
	return loaded, nil
}

// Close saves the room and releases the store.
func (e *Editor) Close(ctx context.Context) error {
	serr := e.Save(ctx)
	cerr := e.store.Close()
	return errors.Join(serr, cerr)
}

// Options returns the effective options.
func (e *Editor) Options() Options { return e.opts }

// Bounds returns the canvas bounds.
func (e *Editor) Bounds() domain.Bounds { return e.opts.Bounds }

// Store exposes the persistence backend.
func (e *Editor) Store() storage.Store { return e.store }

// apply replaces the scene with snap after bringing every item back inside
// the current canvas and size limits.
func (e *Editor) apply(snap scene.Snapshot) {
	snap = snap.Clone()
	for i := range snap.Items {
		e.sanitize(&snap.Items[i])
	}
	e.sc.Restore(snap)
}

// commit records the current scene under label and notifies subscribers.
func (e *Editor) commit(label, itemID string) {
	e.hist.PushFor(label, itemID, e.sc.Snapshot())
	e.log.Debug("history push", slog.String("label", label), slog.Int("len", e.hist.Len()))
	e.emit(Event{Kind: EventScene, Label: label, ItemID: itemID})
}

// guard rejects item mutations while a drag owns the scene and closes any
// pending keyboard nudge so it lands in history before the next action.
func (e *Editor) guard() error {
	if e.drag.Active() {
		return ErrDragActive
	}
	e.flushNudge()
	return nil
}
