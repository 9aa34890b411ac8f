/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package vector

// Smart guides snap a dragged rectangle to the edges and centers of the other
// items in the room. Snapping is deterministic so it can be unit tested.

import "math"

// Orientation of a guide line.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// GuideKind names which features aligned.
type GuideKind string

const (
	GuideEdge   GuideKind = "edge"
	GuideCenter GuideKind = "center"
)

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance in pixels at which snapping occurs.
	// Zero or negative disables snapping.
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Anchor is a static reference rect, usually another item's footprint.
// Higher Weight is preferred when distances tie.
type Anchor struct {
	Rect   Rect
	Weight float64
}

// GuideLine describes a visual guide produced by a snap. Position is the x
// (vertical) or y (horizontal) coordinate of the guide.
type GuideLine struct {
	Orientation Orientation
	Kind        GuideKind
	Position    float64
	From        Pt
	To          Pt
}

type candidate struct {
	delta float64
	dist  float64
	guide GuideLine
	ok    bool
}

func (c *candidate) consider(delta, threshold, weight float64, g GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	if weight < 1 {
		weight = 1
	}
	if !c.ok || dist/weight < c.dist {
		c.delta, c.dist, c.guide, c.ok = delta, dist/weight, g, true
	}
}

// ComputeSmartGuides snaps moving against anchors. X and Y are snapped
// independently; the returned guides describe what aligned.
func ComputeSmartGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 || len(anchors) == 0 {
		return moving, nil
	}
	var bx, by candidate
	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aCX := a.Rect.X, a.Rect.X+a.Rect.W, a.Rect.X+a.Rect.W/2
		aT, aB, aCY := a.Rect.Y, a.Rect.Y+a.Rect.H, a.Rect.Y+a.Rect.H/2
		if opts.SnapToEdges {
			for _, p := range [][2]float64{{mL, aL}, {mR, aR}, {mL, aR}, {mR, aL}} {
				bx.consider(p[0]-p[1], opts.Threshold, a.Weight, verticalGuide(p[1], moving, a.Rect, GuideEdge))
			}
			for _, p := range [][2]float64{{mT, aT}, {mB, aB}, {mT, aB}, {mB, aT}} {
				by.consider(p[0]-p[1], opts.Threshold, a.Weight, horizontalGuide(p[1], moving, a.Rect, GuideEdge))
			}
		}
		if opts.SnapToCenters {
			bx.consider(mCX-aCX, opts.Threshold, a.Weight, verticalGuide(aCX, moving, a.Rect, GuideCenter))
			by.consider(mCY-aCY, opts.Threshold, a.Weight, horizontalGuide(aCY, moving, a.Rect, GuideCenter))
		}
	}

	var guides []GuideLine
	snapped := moving
	if bx.ok {
		snapped.X = FloatRound(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if by.ok {
		snapped.Y = FloatRound(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func verticalGuide(x float64, a, b Rect, kind GuideKind) GuideLine {
	x = FloatRound(x, 3)
	return GuideLine{
		Orientation: Vertical,
		Kind:        kind,
		Position:    x,
		From:        Pt{x, math.Min(a.Y, b.Y)},
		To:          Pt{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontalGuide(y float64, a, b Rect, kind GuideKind) GuideLine {
	y = FloatRound(y, 3)
	return GuideLine{
		Orientation: Horizontal,
		Kind:        kind,
		Position:    y,
		From:        Pt{math.Min(a.X, b.X), y},
		To:          Pt{math.Max(a.X+a.W, b.X+b.W), y},
	}
}
