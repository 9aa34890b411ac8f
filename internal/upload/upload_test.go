/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestReadDataURLImage(t *testing.T) {
	url, err := ReadDataURL(context.Background(), bytes.NewReader(pngBytes(t)), 0)
	if err != nil {
		t.Fatalf("ReadDataURL: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", url)
	}
	img, err := Decode(url)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestReadDataURLRejects(t *testing.T) {
	ctx := context.Background()
	cases := map[string][]byte{
		"empty": nil,
		"text":  []byte("hello, this is not an image"),
	}
	for name, in := range cases {
		if _, err := ReadDataURL(ctx, bytes.NewReader(in), 0); !errors.Is(err, ErrUnreadableFile) {
			t.Fatalf("%s: expected ErrUnreadableFile, got %v", name, err)
		}
	}
	if _, err := ReadDataURL(ctx, bytes.NewReader(pngBytes(t)), 10); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("oversized: expected ErrUnreadableFile, got %v", err)
	}
}

func TestReadDataURLCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ReadDataURL(ctx, bytes.NewReader(pngBytes(t)), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floor.png")
	if err := os.WriteFile(path, pngBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(context.Background(), path, 0); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := ReadFile(context.Background(), path+".missing", 0); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile for missing file, got %v", err)
	}
}

func TestSplitRejectsPlainURL(t *testing.T) {
	if _, _, err := Split("https://example.com/a.png"); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile, got %v", err)
	}
	if _, _, err := Split("data:image/png,raw"); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("expected ErrUnreadableFile for non-base64, got %v", err)
	}
}
