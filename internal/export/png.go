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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	"inmyroom/internal/domain"
	applog "inmyroom/internal/log"
	"inmyroom/internal/upload"
	geom "inmyroom/internal/vector"
)

// PNGOptions controls rasterization.
// - Scale: output pixels per canvas pixel, DefaultScale when <= 0
// - Labels: draw the kind label on each item
type PNGOptions struct {
	Scale  float64
	Labels bool
}

func (o PNGOptions) scale() float64 {
	if o.Scale <= 0 {
		return DefaultScale
	}
	return o.Scale
}

// Rasterize paints the frame onto an opaque RGBA image: white base,
// background, floor band, then items in z order.
func Rasterize(ctx context.Context, f Frame, opt PNGOptions) (*image.RGBA, error) {
	if !f.Bounds.Valid() {
		return nil, fmt.Errorf("invalid canvas bounds %+v", f.Bounds)
	}
	l := applog.WithOperation(applog.WithComponent("export"), "rasterize")
	s := opt.scale()
	pixW := int(math.Round(f.Bounds.Width * s))
	pixH := int(math.Round(f.Bounds.Height * s))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: toRGBA(white)}, image.Point{}, draw.Src)

	paintBackground(img, f.Background, l)

	floorTop := int(math.Round((f.Bounds.Height - f.Bounds.FloorHeight) * s))
	band := image.Rect(0, floorTop, pixW, pixH)
	fillRect(img, band, toRGBA(f.Floor.Fill))
	if f.Floor.Image != "" {
		paintImage(img, band, f.Floor.Image, l)
	}
	if bw := int(math.Round(f.Floor.BorderWidth * s)); bw > 0 {
		fillRect(img, image.Rect(0, floorTop, pixW, floorTop+bw), toRGBA(f.Floor.BorderTop))
	}

	z := xvector.NewRasterizer(pixW, pixH)
	for _, it := range f.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := geom.R(it.X*s, it.Y*s, it.Width*s, it.Height*s)
		fillPolygon(z, img, geom.Corners(r, it.Rotation), toRGBA(outline))
		inset := math.Min(1.5*s, math.Min(r.W, r.H)/4)
		fillPolygon(z, img, geom.Corners(r.Inset(inset, inset), it.Rotation), toRGBA(KindColor(it.Kind)))
		if opt.Labels {
			drawLabel(img, r, it.Kind.Label())
		}
	}
	return img, nil
}

// EncodePNG rasterizes f and returns the encoded PNG.
func EncodePNG(ctx context.Context, f Frame, opt PNGOptions) ([]byte, error) {
	img, err := Rasterize(ctx, f, opt)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func paintBackground(img *image.RGBA, bg domain.Background, l *slog.Logger) {
	switch bg.Kind() {
	case domain.BackgroundColor:
		c, _ := bg.Color()
		fillRect(img, img.Bounds(), toRGBA(c))
		return
	case domain.BackgroundImage:
		src, _ := bg.Image()
		if paintImage(img, img.Bounds(), src, l) {
			return
		}
	}
	gradient(img, domain.GradientFrom, domain.GradientTo)
}

// paintImage scales a data URL image into dst. It reports false when the
// image cannot be decoded.
func paintImage(img *image.RGBA, dst image.Rectangle, dataURL string, l *slog.Logger) bool {
	src, err := upload.Decode(dataURL)
	if err != nil {
		l.Warn("style image not drawable", slog.Any("err", err))
		return false
	}
	xdraw.CatmullRom.Scale(img, dst, src, src.Bounds(), xdraw.Over, nil)
	return true
}

// gradient fills img with a diagonal blend from the top-left to the
// bottom-right corner.
func gradient(img *image.RGBA, from, to domain.Color) {
	b := img.Bounds()
	span := float64(b.Dx() + b.Dy() - 2)
	if span <= 0 {
		span = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := float64(x+y) / span
			img.SetRGBA(x, y, color.RGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 255,
			})
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func fillPolygon(z *xvector.Rasterizer, img *image.RGBA, pts [4]geom.Pt, c color.RGBA) {
	b := img.Bounds()
	z.Reset(b.Dx(), b.Dy())
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

// drawLabel centers the wrapped label inside r; labels are never rotated.
func drawLabel(img *image.RGBA, r geom.Rect, text string) {
	lines := wrapLabel(labelFace, text, int(r.W)-4)
	if len(lines) == 0 {
		return
	}
	lh := lineHeight(labelFace)
	asc := labelFace.Metrics().Ascent.Round()
	c := r.Center()
	y := int(math.Round(c.Y)) - lh*len(lines)/2 + asc
	d := &font.Drawer{Dst: img, Src: image.NewUniform(toRGBA(ink)), Face: labelFace}
	for _, ln := range lines {
		x := int(math.Round(c.X)) - advance(d, ln)/2
		d.Dot = fixed.P(x, y)
		d.DrawString(ln)
		y += lh
	}
}

func toRGBA(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
