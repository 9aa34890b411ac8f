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
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inmyroom/internal/config"
	"inmyroom/internal/domain"
	"inmyroom/internal/drag"
	"inmyroom/internal/manip"
	"inmyroom/internal/storage"
	"inmyroom/internal/upload"
	"inmyroom/internal/vector"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func newEditor(t *testing.T, store storage.Store) *Editor {
	t.Helper()
	e, err := New(Options{
		DataDir:   t.TempDir(),
		ExportDir: t.TempDir(),
		Now:       func() time.Time { return fixedNow },
	}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func labels(e *Editor) []string {
	entries, _ := e.History()
	out := make([]string, len(entries))
	for i, en := range entries {
		out[i] = en.Label
	}
	return out
}

func place(t *testing.T, e *Editor, kind domain.Kind, x, y float64) domain.Item {
	t.Helper()
	it, err := e.Place(kind, 0, 0, vector.Pt{X: x, Y: y})
	if err != nil {
		t.Fatalf("Place %s: %v", kind, err)
	}
	return it
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Bounds: domain.Bounds{Width: 100, Height: 100, FloorHeight: 200}}, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for floor taller than canvas, got %v", err)
	}
	if _, err := New(Options{Limits: domain.SizeLimits{Min: 50, Max: 10}}, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for inverted limits, got %v", err)
	}
}

func TestPlaceCentresAndRecordsOneEntry(t *testing.T) {
	e := newEditor(t, nil)
	it := place(t, e, "chair", 400, 300)
	if it.X != 370 || it.Y != 270 || it.Width != 60 || it.Height != 60 {
		t.Fatalf("unexpected placement: %+v", it)
	}
	if sel, ok := e.Selected(); !ok || sel.ID != it.ID {
		t.Fatalf("placed item should be selected")
	}
	got := labels(e)
	if len(got) != 2 || got[0] != InitialLabel || got[1] != "Chair added" {
		t.Fatalf("history = %v", got)
	}
}

func TestPlaceNearEdgeIsClamped(t *testing.T) {
	e := newEditor(t, nil)
	it := place(t, e, "bed", 5, 595)
	b := domain.DefaultBounds()
	if it.X != b.Padding || it.Y != b.Height-it.Height-b.Padding {
		t.Fatalf("expected clamp to bottom-left, got %+v", it)
	}
}

func TestDragGesture(t *testing.T) {
	e := newEditor(t, nil)
	it := place(t, e, "table", 200, 200)
	if err := e.BeginMove(it.ID, vector.Pt{X: it.X + 10, Y: it.Y + 10}); err != nil {
		t.Fatalf("BeginMove: %v", err)
	}
	if st, ok := e.Drag(); !ok || st.Mode != drag.ModeReposition || st.ItemID != it.ID {
		t.Fatalf("drag state = %+v, %v", st, ok)
	}
	if _, err := e.BeginPlace("chair", 0, 0, vector.Pt{X: 1, Y: 1}); !errors.Is(err, ErrDragActive) {
		t.Fatalf("second drag must be refused, got %v", err)
	}
	if _, err := e.BringForward(); !errors.Is(err, ErrDragActive) {
		t.Fatalf("mutations during drag must be refused, got %v", err)
	}
	e.DragTo(vector.Pt{X: 310, Y: 110})
	e.DragTo(vector.Pt{X: 320, Y: 120})
	cm, ok := e.EndDrag()
	if !ok || cm.Action != drag.ActionMoved {
		t.Fatalf("commit = %+v", cm)
	}
	moved, _ := e.Item(it.ID)
	if moved.X != 300 || moved.Y != 100 {
		t.Fatalf("offset not kept: %+v", moved)
	}
	got := labels(e)
	if len(got) != 3 || got[2] != "Table moved" {
		t.Fatalf("history = %v", got)
	}
	if _, ok := e.EndDrag(); ok {
		t.Fatalf("second EndDrag must be a no-op")
	}
}

func TestActionsWithoutSelection(t *testing.T) {
	e := newEditor(t, nil)
	actions := map[string]func() error{
		"forward":  func() error { _, err := e.BringForward(); return err },
		"backward": func() error { _, err := e.SendBackward(); return err },
		"rotate":   func() error { _, err := e.RotateRight(); return err },
		"resize":   func() error { _, err := e.ResizeBigger(); return err },
		"align":    func() error { _, err := e.Align(manip.AlignLeft); return err },
		"delete":   func() error { _, err := e.DeleteSelected(); return err },
		"nudge":    func() error { _, err := e.Nudge(1, 0, false); return err },
	}
	for name, fn := range actions {
		if err := fn(); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("%s: expected ErrNoSelection, got %v", name, err)
		}
		n, ok := e.LastNotice()
		if !ok || n.Message != NoSelectionMessage || n.Level != NoticeError {
			t.Fatalf("%s: notice = %+v", name, n)
		}
	}
	if e.hist.Len() != 1 {
		t.Fatalf("no history entries expected, got %v", labels(e))
	}
}

func TestDeleteSelected(t *testing.T) {
	e := newEditor(t, nil)
	it := place(t, e, "sofa", 300, 300)
	del, err := e.DeleteSelected()
	if err != nil || del.ID != it.ID {
		t.Fatalf("DeleteSelected = %+v, %v", del, err)
	}
	if len(e.Items()) != 0 {
		t.Fatalf("item still present")
	}
	if _, ok := e.Selected(); ok {
		t.Fatalf("selection must be cleared")
	}
	got := labels(e)
	if got[len(got)-1] != "Sofa deleted" {
		t.Fatalf("history = %v", got)
	}
}

func TestLayering(t *testing.T) {
	e := newEditor(t, nil)
	a := place(t, e, "chair", 100, 100)
	b := place(t, e, "lamp", 200, 100)
	if b.Z <= a.Z {
		t.Fatalf("new items go on top: %d <= %d", b.Z, a.Z)
	}
	if err := e.Select(a.ID); err != nil {
		t.Fatal(err)
	}
	up, _ := e.BringForward()
	if up.Z <= b.Z {
		t.Fatalf("BringForward should lift above %d, got %d", b.Z, up.Z)
	}
	down, _ := e.SendBackward()
	if down.Z != up.Z-1 {
		t.Fatalf("SendBackward = %d", down.Z)
	}
	got := labels(e)
	if got[len(got)-2] != "Chair brought forward" || got[len(got)-1] != "Chair sent backward" {
		t.Fatalf("history = %v", got)
	}
}

func TestSendBackwardStopsAtFloorLayer(t *testing.T) {
	e := newEditor(t, nil)
	e.sc.AddItem(domain.Item{Kind: "plant", X: 10, Y: 10, Width: 50, Height: 80, Z: domain.FloorZOrder})
	id := e.sc.Items()[0].ID
	_ = e.Select(id)
	before := e.hist.Len()
	it, err := e.SendBackward()
	if err != nil || it.Z != domain.FloorZOrder {
		t.Fatalf("SendBackward = %+v, %v", it, err)
	}
	if e.hist.Len() != before {
		t.Fatalf("a no-op must not add history")
	}
}

func TestRotateAndResize(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	it, _ := e.RotateLeft()
	if it.Rotation != 345 {
		t.Fatalf("rotation = %v", it.Rotation)
	}
	it, _ = e.RotateRight()
	if it.Rotation != 0 {
		t.Fatalf("rotation = %v", it.Rotation)
	}
	it, _ = e.ResizeBigger()
	if it.Width != 70 || it.Height != 70 {
		t.Fatalf("size = %vx%v", it.Width, it.Height)
	}
	for i := 0; i < 10; i++ {
		_, _ = e.ResizeSmaller()
	}
	it, _ = e.Selected()
	if it.Width != 20 {
		t.Fatalf("size should stop at the minimum, got %v", it.Width)
	}
	n := e.hist.Len()
	_, _ = e.ResizeSmaller()
	if e.hist.Len() != n {
		t.Fatalf("resize at the limit must not add history")
	}
}

func TestAlignNotices(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	it, err := e.Align(manip.AlignRight)
	if err != nil || it.X != 735 {
		t.Fatalf("Align right = %+v, %v", it, err)
	}
	if n, _ := e.LastNotice(); n.Message != "Item aligned right" {
		t.Fatalf("notice = %+v", n)
	}
	if _, err := e.Align("diagonal"); !errors.Is(err, manip.ErrUnknownEdge) {
		t.Fatalf("expected ErrUnknownEdge, got %v", err)
	}
}

func TestNudgesCoalesceUntilKeyUp(t *testing.T) {
	e := newEditor(t, nil)
	it := place(t, e, "chair", 400, 300)
	before := e.hist.Len()
	for i := 0; i < 3; i++ {
		_, _ = e.Nudge(1, 0, false)
	}
	_, _ = e.Nudge(0, 1, true)
	if e.hist.Len() != before {
		t.Fatalf("nudges must not push before key-up")
	}
	if !e.EndNudge() {
		t.Fatalf("EndNudge should record the move")
	}
	if e.EndNudge() {
		t.Fatalf("second EndNudge must be a no-op")
	}
	got, _ := e.Item(it.ID)
	if got.X != it.X+3 || got.Y != it.Y+10 {
		t.Fatalf("position = %v,%v", got.X, got.Y)
	}
	if e.hist.Len() != before+1 || labels(e)[before] != "Chair moved" {
		t.Fatalf("history = %v", labels(e))
	}
}

func TestPendingNudgeFlushedByNextAction(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	_, _ = e.Nudge(-1, 0, false)
	_, _ = e.RotateRight()
	got := labels(e)
	if got[len(got)-2] != "Chair moved" || got[len(got)-1] != "Chair rotated" {
		t.Fatalf("history = %v", got)
	}
}

func TestUndoRecordsPendingNudgeFirst(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 100, 100)
	table := place(t, e, "table", 400, 300)
	_, _ = e.Nudge(1, 0, true)
	if ok, _ := e.Undo(); !ok {
		t.Fatalf("Undo failed")
	}
	got, ok := e.Item(table.ID)
	if !ok {
		t.Fatalf("undo must only revert the nudge, items = %+v", e.Items())
	}
	if got.X != table.X {
		t.Fatalf("table x = %v, want %v", got.X, table.X)
	}
	if l := labels(e); len(l) != 4 || l[3] != "Table moved" {
		t.Fatalf("history = %v", l)
	}
	if ok, _ := e.Redo(); !ok {
		t.Fatalf("Redo failed")
	}
	if got, _ := e.Item(table.ID); got.X != table.X+manip.FastMoveStep {
		t.Fatalf("redo should replay the nudge, x = %v", got.X)
	}
}

func TestRedoRecordsPendingNudgeFirst(t *testing.T) {
	e := newEditor(t, nil)
	chair := place(t, e, "chair", 100, 100)
	place(t, e, "table", 400, 300)
	_, _ = e.Undo()
	_ = e.Select(chair.ID)
	_, _ = e.Nudge(0, 1, false)
	if ok, _ := e.Redo(); ok {
		t.Fatalf("the nudge is a new action, nothing should be left to redo")
	}
	got, _ := e.Item(chair.ID)
	if got.Y != chair.Y+1 {
		t.Fatalf("nudge lost, y = %v", got.Y)
	}
	if l := labels(e); len(l) != 3 || l[2] != "Chair moved" {
		t.Fatalf("history = %v", l)
	}
}

func TestRestoreHistoryRecordsPendingNudgeFirst(t *testing.T) {
	e := newEditor(t, nil)
	chair := place(t, e, "chair", 100, 100)
	_, _ = e.Nudge(1, 0, false)
	if err := e.RestoreHistory(1); err != nil {
		t.Fatalf("RestoreHistory: %v", err)
	}
	if got, _ := e.Item(chair.ID); got.X != chair.X {
		t.Fatalf("x = %v, want %v", got.X, chair.X)
	}
	if l := labels(e); len(l) != 3 || l[2] != "Chair moved" {
		t.Fatalf("history = %v", l)
	}
	if err := e.RestoreHistory(2); err != nil {
		t.Fatalf("RestoreHistory(2): %v", err)
	}
	if got, _ := e.Item(chair.ID); got.X != chair.X+1 {
		t.Fatalf("x = %v, want %v", got.X, chair.X+1)
	}
}

func TestRestoreHistoryWithNudgeAtCapacity(t *testing.T) {
	e := newEditor(t, nil)
	var last domain.Item
	for i := 0; i < 9; i++ {
		last = place(t, e, "lamp", 100+float64(i)*20, 100)
	}
	if e.hist.Len() != 10 {
		t.Fatalf("len = %d", e.hist.Len())
	}
	_, _ = e.Nudge(0, 1, false)
	// entry 9 was "Lamp added" for the last lamp before the flush shifted it
	if err := e.RestoreHistory(9); err != nil {
		t.Fatalf("RestoreHistory: %v", err)
	}
	got, ok := e.Item(last.ID)
	if !ok || got.Y != last.Y {
		t.Fatalf("restored wrong entry: %+v", got)
	}
}

func TestNonFiniteInputStaysLegal(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, storage.NewMemoryStore(1))
	it := place(t, e, "chair", 400, 300)
	b := e.Bounds()
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got, err := e.MoveItem(it.ID, v, 50)
		if err != nil {
			t.Fatalf("MoveItem(%v): %v", v, err)
		}
		if math.IsNaN(got.X) || got.X < b.Padding || got.X > b.Width-got.Width-b.Padding {
			t.Fatalf("MoveItem(%v) x = %v", v, got.X)
		}
	}
	placed, err := e.Place("table", math.NaN(), math.NaN(), vector.Pt{X: math.NaN(), Y: math.Inf(1)})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if math.IsNaN(placed.X) || math.IsNaN(placed.Width) || math.IsInf(placed.Y, 0) {
		t.Fatalf("placed = %+v", placed)
	}
	if err := e.Save(ctx); err != nil {
		t.Fatalf("Save after non-finite input: %v", err)
	}
}

func TestUndoRedoAndBranchTruncation(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 100, 100)
	place(t, e, "table", 300, 300)
	if ok, _ := e.Undo(); !ok {
		t.Fatalf("Undo failed")
	}
	if len(e.Items()) != 1 {
		t.Fatalf("undo should remove the table")
	}
	if _, ok := e.Selected(); ok {
		t.Fatalf("time travel clears selection")
	}
	if ok, _ := e.Redo(); !ok || len(e.Items()) != 2 {
		t.Fatalf("Redo failed")
	}
	if err := e.RestoreHistory(0); err != nil || len(e.Items()) != 0 {
		t.Fatalf("RestoreHistory(0): %v", err)
	}
	if e.hist.Len() != 3 {
		t.Fatalf("restore must not add entries")
	}
	place(t, e, "lamp", 200, 200)
	got := labels(e)
	if len(got) != 2 || got[1] != "Lamp added" {
		t.Fatalf("redo branch should be discarded, history = %v", got)
	}
	if e.CanRedo() {
		t.Fatalf("nothing to redo after a new action")
	}
	if err := e.RestoreHistory(9); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestHistoryCapacity(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	for i := 0; i < 15; i++ {
		_, _ = e.RotateRight()
	}
	if e.hist.Len() != 10 {
		t.Fatalf("len = %d, want 10", e.hist.Len())
	}
	entries, cur := e.History()
	if cur != 9 || entries[0].Label != "Chair rotated" {
		t.Fatalf("oldest entries should be evicted: cursor=%d first=%q", cur, entries[0].Label)
	}
}

func TestStylesAndReset(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	if err := e.SetFloorPreset("marble"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetFloorPreset("lava"); !errors.Is(err, domain.ErrUnknownFloor) {
		t.Fatalf("expected ErrUnknownFloor, got %v", err)
	}
	if err := e.SetBackgroundColor("#336699"); err != nil {
		t.Fatal(err)
	}
	if err := e.Reset(); err != nil {
		t.Fatal(err)
	}
	if len(e.Items()) != 0 {
		t.Fatalf("reset should clear items")
	}
	if name, _ := e.Floor().Preset(); name != "marble" {
		t.Fatalf("reset keeps the floor, got %q", name)
	}
	if c, ok := e.Background().Color(); !ok || c.Hex() != "#336699" {
		t.Fatalf("reset keeps the background")
	}
	got := labels(e)
	want := []string{InitialLabel, "Chair added", "Floor changed", "Background changed", "Room reset"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("history = %v", got)
	}
	next := place(t, e, "chair", 100, 100)
	if next.ID == "furniture-1" {
		t.Fatalf("ids must not be reused after reset")
	}
}

func pngReader(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestUploads(t *testing.T) {
	e := newEditor(t, nil)
	ctx := context.Background()
	if err := e.UploadFloor(ctx, pngReader(t)); err != nil {
		t.Fatalf("UploadFloor: %v", err)
	}
	if _, ok := e.Floor().Image(); !ok {
		t.Fatalf("floor should be an image")
	}
	n := e.hist.Len()
	if err := e.UploadBackground(ctx, strings.NewReader("not an image")); !errors.Is(err, upload.ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
	if e.Background().Kind() != domain.BackgroundNone || e.hist.Len() != n {
		t.Fatalf("failed upload must leave the room unchanged")
	}
	if last, _ := e.LastNotice(); last.Level != NoticeError {
		t.Fatalf("expected an error notice, got %+v", last)
	}
}

func TestSaveAndStartRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(2)
	e := newEditor(t, store)
	place(t, e, "chair", 400, 300)
	_, _ = e.RotateRight()
	_ = e.SetFloorPreset("tile")
	_ = e.SetBackgroundColor("#ffeedd")
	if err := e.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	e2 := newEditor(t, store)
	loaded, err := e2.Start(ctx)
	if err != nil || !loaded {
		t.Fatalf("Start = %v, %v", loaded, err)
	}
	items := e2.Items()
	if len(items) != 1 || items[0].Kind != "chair" || items[0].X != 370 || items[0].Rotation != 15 {
		t.Fatalf("items = %+v", items)
	}
	if name, _ := e2.Floor().Preset(); name != "tile" {
		t.Fatalf("floor = %v", e2.Floor())
	}
	if c, _ := e2.Background().Color(); c.Hex() != "#ffeedd" {
		t.Fatalf("background = %v", e2.Background())
	}
	if got := labels(e2); len(got) != 1 || got[0] != InitialLabel {
		t.Fatalf("history is per session, got %v", got)
	}
}

func TestStartWithoutOrWithBadState(t *testing.T) {
	ctx := context.Background()
	e := newEditor(t, nil)
	if loaded, err := e.Start(ctx); err != nil || loaded {
		t.Fatalf("empty store: %v, %v", loaded, err)
	}
	store := storage.NewMemoryStore(0)
	_ = store.Save(ctx, []byte(`{"furniture": "nope"`))
	e = newEditor(t, store)
	if loaded, err := e.Start(ctx); err != nil || loaded {
		t.Fatalf("bad state: %v, %v", loaded, err)
	}
	if len(e.Items()) != 0 {
		t.Fatalf("bad state should yield an empty room")
	}
}

func TestRestoredItemsAreSanitized(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	_ = store.Save(ctx, []byte(`{"furniture":[{"type":"bed","width":900,"height":5,"left":-50,"top":2000,"zIndex":10005,"transform":"rotate(-90deg)"}],"version":"2.0"}`))
	e := newEditor(t, store)
	if _, err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	it := e.Items()[0]
	if it.Width != 300 || it.Height != 20 || it.X != 5 || it.Y != 575 || it.Rotation != 270 {
		t.Fatalf("item not sanitized: %+v", it)
	}
}

func TestRevertAndBackups(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(3)
	e := newEditor(t, store)
	place(t, e, "chair", 400, 300)
	_ = e.Save(ctx)
	place(t, e, "lamp", 100, 100)
	_ = e.Save(ctx)
	place(t, e, "plant", 600, 100)
	if err := e.Revert(ctx); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if len(e.Items()) != 2 {
		t.Fatalf("revert should load the last save, got %d items", len(e.Items()))
	}
	bs, _ := e.Backups(ctx)
	if len(bs) != 1 {
		t.Fatalf("backups = %d", len(bs))
	}
	if err := e.RestoreBackup(ctx, 0); err != nil || len(e.Items()) != 1 {
		t.Fatalf("RestoreBackup: %v, %d items", err, len(e.Items()))
	}
	got := labels(e)
	if got[len(got)-1] != "Backup restored" {
		t.Fatalf("history = %v", got)
	}
	if err := e.RestoreBackup(ctx, 5); err == nil {
		t.Fatalf("expected out of range error")
	}
}

type failingClipboard struct{}

func (failingClipboard) CopyImage(context.Context, []byte) error { return errors.New("no display") }

func TestCaptureFallsBackToDownload(t *testing.T) {
	e := newEditor(t, nil)
	e.opts.Clipboard = failingClipboard{}
	place(t, e, "chair", 400, 300)
	d, err := e.Capture(context.Background(), true)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if d.Clipboard || d.Path == "" {
		t.Fatalf("expected a download, got %+v", d)
	}
	if filepath.Base(d.Path) != "inmyroom-2025-03-04T05-06-07.png" {
		t.Fatalf("name = %s", d.Path)
	}
	f, err := os.Open(d.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil || img.Bounds().Dx() != 1600 {
		t.Fatalf("capture should be 2x: %v, %v", img.Bounds(), err)
	}
}

func TestCrashAutosave(t *testing.T) {
	e := newEditor(t, nil)
	place(t, e, "chair", 400, 300)
	path, err := e.CrashAutosave()
	if err != nil {
		t.Fatalf("CrashAutosave: %v", err)
	}
	if !strings.HasPrefix(path, e.CrashDir()) {
		t.Fatalf("autosave outside data dir: %s", path)
	}
	b, _ := os.ReadFile(path)
	patch, err := storage.Deserialize(b)
	if err != nil || len(patch.Snapshot.Items) != 1 {
		t.Fatalf("autosave unreadable: %v", err)
	}
}

func TestSubscriptions(t *testing.T) {
	e := newEditor(t, nil)
	var kinds []EventKind
	sub := e.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	place(t, e, "chair", 400, 300)
	if len(kinds) == 0 {
		t.Fatalf("expected events")
	}
	var sawScene bool
	for _, k := range kinds {
		if k == EventScene {
			sawScene = true
		}
	}
	if !sawScene {
		t.Fatalf("expected a scene event, got %v", kinds)
	}
	sub.Close()
	sub.Close()
	n := len(kinds)
	_, _ = e.RotateRight()
	if len(kinds) != n {
		t.Fatalf("closed subscription still receives events")
	}
}

func TestOpenFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Storage.Driver = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "room.json")
	e, err := Open(ctx, cfg, "", t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	place(t, e, "plant", 100, 100)
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	e, err = Open(ctx, cfg, "", t.TempDir())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer e.Close(ctx)
	if len(e.Items()) != 1 {
		t.Fatalf("room not persisted through the file store")
	}

	cfg.Storage.Driver = "carrier-pigeon"
	if _, err := Open(ctx, cfg, "", t.TempDir()); !errors.Is(err, storage.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
