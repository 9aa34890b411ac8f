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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	applog "inmyroom/internal/log"
)

// ErrNoClipboard means no clipboard backend is installed.
var ErrNoClipboard = errors.New("no clipboard backend available")

// Filename returns the download name for a capture taken at t, e.g.
// inmyroom-2025-01-02T03-04-05.png.
func Filename(t time.Time, ext string) string {
	return "inmyroom-" + t.Format("2006-01-02T15-04-05") + ext
}

// SaveDownload writes data into dir under Filename(now, ext) and returns the
// path.
func SaveDownload(dir string, data []byte, now time.Time, ext string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	path := filepath.Join(dir, Filename(now, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// Clipboard receives PNG images.
type Clipboard interface {
	CopyImage(ctx context.Context, png []byte) error
}

// CommandClipboard pipes images into wl-copy on Wayland or xclip on X11.
type CommandClipboard struct {
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args []string, stdin []byte) error
	getenv   func(string) string
}

func NewCommandClipboard() *CommandClipboard {
	return &CommandClipboard{lookPath: exec.LookPath, run: runWithStdin, getenv: os.Getenv}
}

func (c *CommandClipboard) CopyImage(ctx context.Context, png []byte) error {
	type backend struct {
		name string
		args []string
	}
	var candidates []backend
	if c.getenv("WAYLAND_DISPLAY") != "" {
		candidates = append(candidates, backend{"wl-copy", []string{"--type", "image/png"}})
	}
	candidates = append(candidates, backend{"xclip", []string{"-selection", "clipboard", "-t", "image/png", "-i"}})
	for _, b := range candidates {
		path, err := c.lookPath(b.name)
		if err != nil {
			continue
		}
		if err := c.run(ctx, path, b.args, png); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		return nil
	}
	return ErrNoClipboard
}

func runWithStdin(ctx context.Context, name string, args []string, stdin []byte) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return err
	}
	return nil
}

// Delivery reports where a capture ended up.
type Delivery struct {
	Clipboard bool
	Path      string
	// ClipboardErr is set when the clipboard failed and the file fallback ran.
	ClipboardErr error
}

// CopyOrDownload tries the clipboard first and falls back to a file in dir.
// A nil clipboard goes straight to the file.
func CopyOrDownload(ctx context.Context, cb Clipboard, dir string, png []byte, now time.Time) (Delivery, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "deliver")
	var d Delivery
	if cb != nil {
		err := cb.CopyImage(ctx, png)
		if err == nil {
			d.Clipboard = true
			return d, nil
		}
		l.Warn("clipboard copy failed; saving file instead", slog.Any("err", err))
		d.ClipboardErr = err
	}
	path, err := SaveDownload(dir, png, now, ".png")
	if err != nil {
		return d, err
	}
	d.Path = path
	return d, nil
}
