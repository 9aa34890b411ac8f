/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeClipboard struct {
	err  error
	data []byte
}

func (f *fakeClipboard) CopyImage(_ context.Context, png []byte) error {
	if f.err != nil {
		return f.err
	}
	f.data = png
	return nil
}

var stamp = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func TestFilename(t *testing.T) {
	if got := Filename(stamp, ".png"); got != "inmyroom-2025-01-02T03-04-05.png" {
		t.Fatalf("Filename = %q", got)
	}
}

func TestCopyOrDownloadClipboard(t *testing.T) {
	cb := &fakeClipboard{}
	d, err := CopyOrDownload(context.Background(), cb, t.TempDir(), []byte("png"), stamp)
	if err != nil {
		t.Fatalf("CopyOrDownload: %v", err)
	}
	if !d.Clipboard || d.Path != "" || string(cb.data) != "png" {
		t.Fatalf("unexpected delivery: %+v", d)
	}
}

func TestCopyOrDownloadFallsBack(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("no display")
	d, err := CopyOrDownload(context.Background(), &fakeClipboard{err: boom}, dir, []byte("png"), stamp)
	if err != nil {
		t.Fatalf("CopyOrDownload: %v", err)
	}
	if d.Clipboard || !errors.Is(d.ClipboardErr, boom) {
		t.Fatalf("expected fallback with clipboard error, got %+v", d)
	}
	if d.Path != filepath.Join(dir, "inmyroom-2025-01-02T03-04-05.png") {
		t.Fatalf("path = %s", d.Path)
	}
	if b, _ := os.ReadFile(d.Path); string(b) != "png" {
		t.Fatalf("file content = %q", b)
	}
}

func TestCopyOrDownloadNilClipboard(t *testing.T) {
	d, err := CopyOrDownload(context.Background(), nil, t.TempDir(), []byte("png"), stamp)
	if err != nil || d.Path == "" || d.ClipboardErr != nil {
		t.Fatalf("expected plain download, got %+v, %v", d, err)
	}
}

func TestCommandClipboardBackends(t *testing.T) {
	var ran []string
	c := &CommandClipboard{
		lookPath: func(name string) (string, error) {
			if name == "wl-copy" {
				return "/usr/bin/wl-copy", nil
			}
			return "", errors.New("not found")
		},
		run: func(_ context.Context, name string, args []string, _ []byte) error {
			ran = append(ran, name)
			return nil
		},
		getenv: func(k string) string {
			if k == "WAYLAND_DISPLAY" {
				return "wayland-0"
			}
			return ""
		},
	}
	if err := c.CopyImage(context.Background(), []byte("x")); err != nil {
		t.Fatalf("CopyImage: %v", err)
	}
	if len(ran) != 1 || ran[0] != "/usr/bin/wl-copy" {
		t.Fatalf("ran = %v", ran)
	}

	c.getenv = func(string) string { return "" }
	if err := c.CopyImage(context.Background(), []byte("x")); !errors.Is(err, ErrNoClipboard) {
		t.Fatalf("expected ErrNoClipboard without wayland or xclip, got %v", err)
	}
}
