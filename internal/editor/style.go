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

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
	"inmyroom/internal/upload"
)

func errNoItem(id string) error { return fmt.Errorf("%w: %s", scene.ErrNoItem, id) }

// Background returns the current background.
func (e *Editor) Background() domain.Background { return e.sc.Background() }

// Floor returns the current floor.
func (e *Editor) Floor() domain.Floor { return e.sc.Floor() }

// SetBackground replaces the background.
func (e *Editor) SetBackground(bg domain.Background) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.sc.SetBackground(bg)
	e.commit("Background changed", "")
	return nil
}

// SetBackgroundColor parses hex and applies it; an empty string restores the
// default gradient.
func (e *Editor) SetBackgroundColor(hex string) error {
	if hex == "" {
		return e.SetBackground(domain.NoBackground())
	}
	bg, err := domain.ColorBackground(hex)
	if err != nil {
		e.notify(NoticeError, "Invalid color "+hex)
		return err
	}
	return e.SetBackground(bg)
}

// SetFloor replaces the floor.
func (e *Editor) SetFloor(f domain.Floor) error {
	if err := e.guard(); err != nil {
		return err
	}
	e.sc.SetFloor(f)
	e.commit("Floor changed", "")
	return nil
}

// SetFloorPreset applies a named preset.
func (e *Editor) SetFloorPreset(name string) error {
	f, err := domain.PresetFloor(name)
	if err != nil {
		e.notify(NoticeError, "Unknown floor "+name)
		return err
	}
	return e.SetFloor(f)
}

// UploadBackground reads an image and makes it the background. Unreadable
// input leaves the room unchanged.
func (e *Editor) UploadBackground(ctx context.Context, r io.Reader) error {
	url, err := e.readUpload(ctx, r)
	if err != nil {
		return err
	}
	bg, err := domain.ImageBackground(url)
	if err != nil {
		return err
	}
	if err := e.SetBackground(bg); err != nil {
		return err
	}
	e.notify(NoticeSuccess, "Background image uploaded")
	return nil
}

// UploadFloor reads an image and makes it the floor.
func (e *Editor) UploadFloor(ctx context.Context, r io.Reader) error {
	url, err := e.readUpload(ctx, r)
	if err != nil {
		return err
	}
	f, err := domain.ImageFloor(url)
	if err != nil {
		return err
	}
	if err := e.SetFloor(f); err != nil {
		return err
	}
	e.notify(NoticeSuccess, "Floor image uploaded")
	return nil
}

func (e *Editor) readUpload(ctx context.Context, r io.Reader) (string, error) {
	if e.drag.Active() {
		return "", ErrDragActive
	}
	url, err := upload.ReadDataURL(ctx, r, upload.DefaultLimit)
	if err != nil {
		e.notify(NoticeError, "Could not read the image file")
		return "", err
	}
	return url, nil
}
