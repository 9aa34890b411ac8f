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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"inmyroom/internal/domain"
	"inmyroom/internal/upload"
)

// PDFOptions controls the room sheet.
// Units are points. The page is A4 landscape; the plan is scaled to fit above
// the inventory table, which flows onto further pages when needed.
type PDFOptions struct {
	Title string
	Time  time.Time
}

const (
	pageW, pageH = 842.0, 595.0
	margin       = 36.0
	planMaxH     = 330.0
)

// WritePDF renders the room sheet for f into w.
func WritePDF(w io.Writer, f Frame, opt PDFOptions) error {
	if !f.Bounds.Valid() {
		return fmt.Errorf("invalid canvas bounds %+v", f.Bounds)
	}
	title := opt.Title
	if title == "" {
		title = "My Room"
	}
	ts := opt.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle(title, true)
	pdf.SetAuthor("InMyRoom", false)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 20, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 14, ts.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")

	scale := (pageW - 2*margin) / f.Bounds.Width
	if h := f.Bounds.Height * scale; h > planMaxH {
		scale = planMaxH / f.Bounds.Height
	}
	ox, oy := margin, pdf.GetY()+6
	drawPlan(pdf, f, ox, oy, scale)
	pdf.SetY(oy + f.Bounds.Height*scale + 18)

	drawInventory(pdf, f.Items)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// EncodePDF returns the room sheet as bytes.
func EncodePDF(f Frame, opt PDFOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, f, opt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawPlan(pdf *gofpdf.Fpdf, f Frame, ox, oy, s float64) {
	b := f.Bounds
	w, h := b.Width*s, b.Height*s

	bg := domain.GradientFrom
	if c, ok := f.Background.Color(); ok {
		bg = c
	}
	setFillColor(pdf, bg)
	pdf.Rect(ox, oy, w, h, "F")
	if src, ok := f.Background.Image(); ok {
		placeImage(pdf, "background", src, ox, oy, w, h)
	}

	floorY := oy + (b.Height-b.FloorHeight)*s
	setFillColor(pdf, f.Floor.Fill)
	pdf.Rect(ox, floorY, w, b.FloorHeight*s, "F")
	if f.Floor.Image != "" {
		placeImage(pdf, "floor", f.Floor.Image, ox, floorY, w, b.FloorHeight*s)
	}
	setFillColor(pdf, f.Floor.BorderTop)
	pdf.Rect(ox, floorY, w, f.Floor.BorderWidth*s, "F")

	setDrawColor(pdf, outline)
	pdf.SetLineWidth(0.8)
	pdf.SetFont("Helvetica", "", 6)
	for _, it := range f.Items {
		x, y := ox+it.X*s, oy+it.Y*s
		iw, ih := it.Width*s, it.Height*s
		pdf.TransformBegin()
		// gofpdf rotates counter-clockwise; canvas rotation is clockwise.
		pdf.TransformRotate(-it.Rotation, x+iw/2, y+ih/2)
		setFillColor(pdf, KindColor(it.Kind))
		pdf.Rect(x, y, iw, ih, "FD")
		setTextColor(pdf, ink)
		pdf.SetXY(x, y+ih/2-4)
		pdf.CellFormat(iw, 8, it.Kind.Label(), "", 0, "C", false, 0, "")
		pdf.TransformEnd()
	}
	setDrawColor(pdf, ink)
	pdf.SetLineWidth(0.5)
	pdf.Rect(ox, oy, w, h, "D")
}

// placeImage embeds a style image. Formats gofpdf cannot read are skipped
// and the flat fill stays visible.
func placeImage(pdf *gofpdf.Fpdf, name, dataURL string, x, y, w, h float64) {
	mime, data, err := upload.Split(dataURL)
	if err != nil {
		return
	}
	var typ string
	switch strings.ToLower(mime) {
	case "image/png":
		typ = "PNG"
	case "image/jpeg":
		typ = "JPG"
	case "image/gif":
		typ = "GIF"
	default:
		return
	}
	opts := gofpdf.ImageOptions{ImageType: typ}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Ok() {
		pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	} else {
		pdf.ClearError()
	}
}

var inventoryCols = []struct {
	title string
	width float64
	align string
}{
	{"#", 30, "R"},
	{"Item", 180, "L"},
	{"Left", 70, "R"},
	{"Top", 70, "R"},
	{"Size", 100, "R"},
	{"Rotation", 80, "R"},
	{"Layer", 70, "R"},
}

func drawInventory(pdf *gofpdf.Fpdf, items []domain.Item) {
	pdf.SetFont("Helvetica", "B", 11)
	setTextColor(pdf, ink)
	pdf.CellFormat(0, 16, fmt.Sprintf("Furniture (%d)", len(items)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range inventoryCols {
		pdf.CellFormat(c.width, 14, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, it := range items {
		row := []string{
			fmt.Sprintf("%d", i+1),
			it.Kind.Label(),
			fmt.Sprintf("%.0f", it.X),
			fmt.Sprintf("%.0f", it.Y),
			fmt.Sprintf("%.0f x %.0f", it.Width, it.Height),
			fmt.Sprintf("%.0f deg", it.Rotation),
			fmt.Sprintf("%d", it.Z),
		}
		for j, c := range inventoryCols {
			pdf.CellFormat(c.width, 13, row[j], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
