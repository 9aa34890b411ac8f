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
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
)

func sampleFrame(t *testing.T) Frame {
	t.Helper()
	bg, err := domain.ColorBackground("#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	snap := scene.Snapshot{
		Items: []domain.Item{
			{ID: "furniture-2", Kind: "table", X: 300, Y: 100, Width: 100, Height: 40, Rotation: 90, Z: 10002},
			{ID: "furniture-1", Kind: "chair", X: 100, Y: 100, Width: 60, Height: 60, Z: 10001},
		},
		Background: bg,
		Floor:      domain.DefaultFloor(),
	}
	return FrameOf(snap, domain.DefaultBounds())
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func TestFrameOfSortsByZ(t *testing.T) {
	f := sampleFrame(t)
	if f.Items[0].ID != "furniture-1" || f.Items[1].ID != "furniture-2" {
		t.Fatalf("items not in z order: %+v", f.Items)
	}
	if f.Floor.BorderWidth != 4 {
		t.Fatalf("floor not resolved: %+v", f.Floor)
	}
}

func TestRasterizeLayers(t *testing.T) {
	img, err := Rasterize(context.Background(), sampleFrame(t), PNGOptions{})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Bounds().Dx() != 1600 || img.Bounds().Dy() != 1200 {
		t.Fatalf("expected 2x canvas, got %v", img.Bounds())
	}
	checks := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"background", 10, 10, color.RGBA{255, 0, 0, 255}},
		{"floor border", 10, 962, color.RGBA{0xbf, 0xa1, 0x6a, 255}},
		{"floor fill", 10, 1000, color.RGBA{0xde, 0xb8, 0x87, 255}},
		{"chair fill", 260, 260, toRGBA(KindColor("chair"))},
		{"chair outline", 201, 260, toRGBA(outline)},
		// the table is rotated a quarter turn so it extends above its unrotated top
		{"rotated table", 700, 150, toRGBA(KindColor("table"))},
	}
	for _, c := range checks {
		if got := rgbaAt(img, c.x, c.y); got != c.want {
			t.Fatalf("%s at (%d,%d) = %v, want %v", c.name, c.x, c.y, got, c.want)
		}
	}
}

func TestRasterizeDefaultGradient(t *testing.T) {
	f := sampleFrame(t)
	f.Background = domain.NoBackground()
	f.Items = nil
	img, err := Rasterize(context.Background(), f, PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if got := rgbaAt(img, 0, 0); got != toRGBA(domain.GradientFrom) {
		t.Fatalf("top-left = %v, want gradient start", got)
	}
	if got := rgbaAt(img, 400, 0); got == toRGBA(domain.GradientFrom) {
		t.Fatalf("gradient does not vary")
	}
}

func TestRasterizeImageBackground(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	bg, err := domain.ImageBackground("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	f := sampleFrame(t)
	f.Background = bg
	img, err := Rasterize(context.Background(), f, PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if got := rgbaAt(img, 400, 20); got.B < 200 || got.R > 50 {
		t.Fatalf("background image not painted: %v", got)
	}
}

func TestRasterizeLabelsDrawInk(t *testing.T) {
	f := sampleFrame(t)
	plain, _ := Rasterize(context.Background(), f, PNGOptions{Scale: 1})
	labelled, _ := Rasterize(context.Background(), f, PNGOptions{Scale: 1, Labels: true})
	diff := 0
	for y := 100; y < 160; y++ {
		for x := 100; x < 160; x++ {
			if plain.RGBAAt(x, y) != labelled.RGBAAt(x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Fatalf("expected label pixels inside the chair")
	}
}

func TestRasterizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Rasterize(ctx, sampleFrame(t), PNGOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRasterizeRejectsBadBounds(t *testing.T) {
	f := sampleFrame(t)
	f.Bounds.Width = 0
	if _, err := Rasterize(context.Background(), f, PNGOptions{}); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestEncodePNGDecodes(t *testing.T) {
	data, err := EncodePNG(context.Background(), sampleFrame(t), PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 800 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}
}

func TestWrapLabel(t *testing.T) {
	if got := wrapLabel(labelFace, "Chair 2", 100); len(got) != 1 || got[0] != "Chair 2" {
		t.Fatalf("wide box: %q", got)
	}
	if got := wrapLabel(labelFace, "Chair 2", 40); len(got) != 2 || got[0] != "Chair" || got[1] != "2" {
		t.Fatalf("narrow box: %q", got)
	}
	if got := wrapLabel(labelFace, "Window", 20); len(got) != 1 || got[0] != "Wi" {
		t.Fatalf("cut word: %q", got)
	}
	if wrapLabel(labelFace, "  ", 40) != nil {
		t.Fatalf("blank label should yield no lines")
	}
}

func TestKindColorFamilies(t *testing.T) {
	if KindColor("chair_3") != KindColor("chair") {
		t.Fatalf("variants should share the family color")
	}
	if KindColor("spaceship") != neutral {
		t.Fatalf("unknown kinds use the neutral color")
	}
}
