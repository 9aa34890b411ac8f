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
	"context"
	"fmt"
	"io"
	"log/slog"

	"inmyroom/internal/export"
	applog "inmyroom/internal/log"
	"inmyroom/internal/scene"
	"inmyroom/internal/storage"
)

// Snapshot returns a detached copy of the room.
func (e *Editor) Snapshot() scene.Snapshot { return e.sc.Snapshot() }

// Record serializes the room in the persisted format.
func (e *Editor) Record() ([]byte, error) {
	return storage.Serialize(e.sc.Snapshot(), e.opts.Now())
}

// Save writes the room to the store.
func (e *Editor) Save(ctx context.Context) error {
	l := applog.WithOperation(e.log, "save")
	data, err := e.Record()
	if err != nil {
		return err
	}
	if err := e.store.Save(ctx, data); err != nil {
		l.ErrorContext(ctx, "save failed", slog.Any("err", err))
		e.notify(NoticeError, "Could not save the room")
		return fmt.Errorf("save room: %w", err)
	}
	l.DebugContext(ctx, "room saved", slog.Int("items", e.sc.Len()), slog.Int("bytes", len(data)))
	return nil
}

// Revert replaces the room with the last saved state and records it as one
// history entry. ErrNoSavedState is returned when nothing was saved yet.
func (e *Editor) Revert(ctx context.Context) error {
	if err := e.guard(); err != nil {
		return err
	}
	data, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	return e.applyRecord(data, "Saved room loaded")
}

// Backups lists earlier saves, newest first.
func (e *Editor) Backups(ctx context.Context) ([]storage.Backup, error) {
	return e.store.Backups(ctx)
}

// RestoreBackup replaces the room with backup i (0 is the newest).
func (e *Editor) RestoreBackup(ctx context.Context, i int) error {
	if err := e.guard(); err != nil {
		return err
	}
	bs, err := e.store.Backups(ctx)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(bs) {
		return fmt.Errorf("backup %d: %w", i, ErrOutOfRange)
	}
	return e.applyRecord(bs[i].Data, "Backup restored")
}

func (e *Editor) applyRecord(data []byte, label string) error {
	patch, err := storage.Deserialize(data)
	if err != nil {
		return err
	}
	e.sel.Deselect()
	e.apply(patch.Snapshot)
	e.commit(label, "")
	return nil
}

// Frame resolves the room for the renderers.
func (e *Editor) Frame() export.Frame {
	return export.FrameOf(e.sc.Snapshot(), e.opts.Bounds)
}

// RenderPNG rasterizes the room at the configured scale.
func (e *Editor) RenderPNG(ctx context.Context, labels bool) ([]byte, error) {
	return export.EncodePNG(ctx, e.Frame(), export.PNGOptions{Scale: e.opts.ExportScale, Labels: labels})
}

// Capture renders the room and delivers it. With toClipboard the image goes
// to the clipboard and falls back to a file download when that fails.
func (e *Editor) Capture(ctx context.Context, toClipboard bool) (export.Delivery, error) {
	l := applog.WithOperation(e.log, "capture")
	png, err := e.RenderPNG(ctx, false)
	if err != nil {
		l.ErrorContext(ctx, "render failed", slog.Any("err", err))
		e.notify(NoticeError, "Could not capture the room")
		return export.Delivery{}, err
	}
	var cb export.Clipboard
	if toClipboard {
		cb = e.opts.Clipboard
		if cb == nil {
			cb = export.NewCommandClipboard()
		}
	}
	d, err := export.CopyOrDownload(ctx, cb, e.opts.ExportDir, png, e.opts.Now().UTC())
	if err != nil {
		e.notify(NoticeError, "Could not save the image")
		return d, err
	}
	switch {
	case d.Clipboard:
		e.notify(NoticeSuccess, "Image copied to clipboard")
	case d.ClipboardErr != nil:
		e.notify(NoticeError, "Clipboard unavailable; image downloaded instead")
	default:
		e.notify(NoticeSuccess, "Image downloaded")
	}
	return d, nil
}

// WritePDF writes the room sheet.
func (e *Editor) WritePDF(w io.Writer, title string) error {
	return export.WritePDF(w, e.Frame(), export.PDFOptions{Title: title, Time: e.opts.Now()})
}

// ExportBatch writes the room with an export preset into the export dir.
func (e *Editor) ExportBatch(ctx context.Context, opt export.BatchOptions) ([]string, error) {
	if opt.OutDir == "" {
		opt.OutDir = e.opts.ExportDir
	}
	if opt.Now.IsZero() {
		opt.Now = e.opts.Now().UTC()
	}
	return export.BatchExport(ctx, e.Frame(), opt)
}

// CrashDir is where crash reports and autosaves are written.
func (e *Editor) CrashDir() string { return e.opts.DataDir }

// CrashAutosave writes the room next to the crash report without going
// through the store.
func (e *Editor) CrashAutosave() (string, error) {
	data, err := e.Record()
	if err != nil {
		return "", err
	}
	return storage.WriteCrashAutosave(e.opts.DataDir, data)
}
