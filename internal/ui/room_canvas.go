//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	"inmyroom/internal/export"
	applog "inmyroom/internal/log"
	"inmyroom/internal/vector"
)

// RoomCanvas shows the room and turns pointer gestures into editor drags.
// The room itself is painted by the PNG rasterizer at 1x, so what the user
// sees is exactly what a capture produces; selection and guides are drawn
// as overlays.
type RoomCanvas struct {
	widget.BaseWidget

	ed  *editor.Editor
	log *slog.Logger

	// armed is the kind placed by the next tap or drag, empty when idle.
	armed domain.Kind
	// dragging is set between the first Dragged event and DragEnd.
	dragging bool

	// OnChanged runs after every gesture that may have changed the room.
	OnChanged func()
}

func NewRoomCanvas(ed *editor.Editor) *RoomCanvas {
	rc := &RoomCanvas{ed: ed, log: applog.WithComponent("ui.canvas")}
	rc.ExtendBaseWidget(rc)
	return rc
}

// Arm makes the next tap or drag place kind. An empty kind disarms.
func (rc *RoomCanvas) Arm(kind domain.Kind) { rc.armed = kind }

// Armed returns the kind waiting to be placed.
func (rc *RoomCanvas) Armed() domain.Kind { return rc.armed }

// PreferredSize is the room at 1x.
func (rc *RoomCanvas) PreferredSize() fyne.Size {
	b := rc.ed.Bounds()
	return fyne.NewSize(float32(b.Width), float32(b.Height))
}

// viewport maps room coordinates onto the widget: the room is scaled to fit
// and centred.
type viewport struct {
	ox, oy, scale float32
}

func fitViewport(size fyne.Size, b domain.Bounds) viewport {
	bw, bh := float32(b.Width), float32(b.Height)
	if bw <= 0 || bh <= 0 || size.Width <= 0 || size.Height <= 0 {
		return viewport{scale: 1}
	}
	s := size.Width / bw
	if sh := size.Height / bh; sh < s {
		s = sh
	}
	return viewport{ox: (size.Width - bw*s) / 2, oy: (size.Height - bh*s) / 2, scale: s}
}

func (v viewport) toScreen(x, y float64) fyne.Position {
	return fyne.NewPos(v.ox+float32(x)*v.scale, v.oy+float32(y)*v.scale)
}

func (v viewport) toRoom(pos fyne.Position) vector.Pt {
	return vector.Pt{X: float64((pos.X - v.ox) / v.scale), Y: float64((pos.Y - v.oy) / v.scale)}
}

func (rc *RoomCanvas) viewport() viewport { return fitViewport(rc.Size(), rc.ed.Bounds()) }

// hitTest returns the top-most item under p.
func hitTest(items []domain.Item, p vector.Pt) (string, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if p.X >= it.X && p.X <= it.X+it.Width && p.Y >= it.Y && p.Y <= it.Y+it.Height {
			return it.ID, true
		}
	}
	return "", false
}

// Tapped places an armed kind or selects the item under the pointer.
func (rc *RoomCanvas) Tapped(e *fyne.PointEvent) {
	p := rc.viewport().toRoom(e.Position)
	switch {
	case rc.armed != "":
		if _, err := rc.ed.Place(rc.armed, 0, 0, p); err != nil {
			rc.log.Warn("place failed", slog.Any("err", err))
		}
		rc.armed = ""
	default:
		if id, ok := hitTest(rc.ed.Items(), p); ok {
			if err := rc.ed.Select(id); err != nil {
				rc.log.Warn("select failed", slog.Any("err", err))
			}
		} else {
			rc.ed.ClickEmpty()
		}
	}
	rc.changed()
}

// Dragged starts a place or reposition drag on the first event and follows
// the pointer afterwards. Dragging bare canvas does nothing.
func (rc *RoomCanvas) Dragged(e *fyne.DragEvent) {
	v := rc.viewport()
	p := v.toRoom(e.Position)
	if !rc.dragging {
		start := v.toRoom(e.Position.Subtract(e.Dragged))
		switch {
		case rc.armed != "":
			if _, err := rc.ed.BeginPlace(rc.armed, 0, 0, start); err != nil {
				rc.log.Warn("drag place failed", slog.Any("err", err))
				return
			}
			rc.armed = ""
		default:
			id, ok := hitTest(rc.ed.Items(), start)
			if !ok {
				return
			}
			if err := rc.ed.BeginMove(id, start); err != nil {
				rc.log.Warn("drag move failed", slog.Any("err", err))
				return
			}
		}
		rc.dragging = true
	}
	if rc.ed.DragTo(p) {
		rc.Refresh()
	}
}

// DragEnd commits the drag as one history entry.
func (rc *RoomCanvas) DragEnd() {
	if !rc.dragging {
		return
	}
	rc.dragging = false
	rc.ed.EndDrag()
	rc.changed()
}

func (rc *RoomCanvas) changed() {
	rc.Refresh()
	if rc.OnChanged != nil {
		rc.OnChanged()
	}
}

func (rc *RoomCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	room := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	room.FillMode = canvas.ImageFillStretch
	room.ScaleMode = canvas.ImageScaleFastest

	bbox := canvas.NewRectangle(color.RGBA{})
	bbox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bbox.StrokeWidth = 2
	bbox.Hide()

	r := &roomCanvasRenderer{rc: rc, bg: bg, room: room, bbox: bbox}
	r.rebuildObjects()
	r.paint()
	return r
}

type roomCanvasRenderer struct {
	rc      *RoomCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	room    *canvas.Image
	bbox    *canvas.Rectangle
	guides  []*canvas.Line
}

func (r *roomCanvasRenderer) Destroy()                     {}
func (r *roomCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *roomCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(400, 300) }

func (r *roomCanvasRenderer) Refresh() {
	r.paint()
	r.Layout(r.rc.Size())
	canvas.Refresh(r.rc)
}

func (r *roomCanvasRenderer) rebuildObjects() {
	objs := []fyne.CanvasObject{r.bg, r.room, r.bbox}
	for _, g := range r.guides {
		objs = append(objs, g)
	}
	r.objects = objs
}

// paint rasterizes the room into the image object.
func (r *roomCanvasRenderer) paint() {
	img, err := export.Rasterize(context.Background(), r.rc.ed.Frame(), export.PNGOptions{Scale: 1})
	if err != nil {
		r.rc.log.Error("render failed", slog.Any("err", err))
		return
	}
	r.room.Image = img
	r.room.Refresh()
}

func (r *roomCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	v := fitViewport(size, r.rc.ed.Bounds())
	b := r.rc.ed.Bounds()
	r.room.Move(v.toScreen(0, 0))
	r.room.Resize(fyne.NewSize(float32(b.Width)*v.scale, float32(b.Height)*v.scale))

	if it, ok := r.rc.ed.Selected(); ok {
		r.bbox.Move(v.toScreen(it.X, it.Y))
		r.bbox.Resize(fyne.NewSize(float32(it.Width)*v.scale, float32(it.Height)*v.scale))
		r.bbox.Show()
	} else {
		r.bbox.Hide()
	}

	var guides []vector.GuideLine
	if d, ok := r.rc.ed.Drag(); ok {
		guides = d.Guides
	}
	if len(guides) != len(r.guides) {
		r.guides = r.guides[:0]
		for range guides {
			ln := canvas.NewLine(color.RGBA{R: 255, G: 0, B: 170, A: 220})
			ln.StrokeWidth = 1
			r.guides = append(r.guides, ln)
		}
		r.rebuildObjects()
	}
	for i, g := range guides {
		r.guides[i].Position1 = v.toScreen(g.From.X, g.From.Y)
		r.guides[i].Position2 = v.toScreen(g.To.X, g.To.Y)
	}
}
