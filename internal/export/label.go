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
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// labelFace is deterministic across platforms, which keeps raster output
// stable in tests.
var labelFace font.Face = basicfont.Face7x13

// wrapLabel breaks text on spaces so that each line fits maxWidth pixels.
// A single word wider than maxWidth is cut down to fit.
func wrapLabel(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || maxWidth <= 0 {
		return nil
	}
	d := &font.Drawer{Face: face}
	var lines []string
	cur := ""
	for _, w := range words {
		w = fitWord(d, w, maxWidth)
		if w == "" {
			continue
		}
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if cur != "" && advance(d, next) > maxWidth {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func fitWord(d *font.Drawer, w string, maxWidth int) string {
	for w != "" && advance(d, w) > maxWidth {
		w = w[:len(w)-1]
	}
	return w
}

func advance(d *font.Drawer, s string) int {
	return d.MeasureString(s).Round()
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return m.Height.Round()
}
