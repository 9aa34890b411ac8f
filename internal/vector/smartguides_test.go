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

import "testing"

func TestComputeSmartGuides_SnapToNeighbourEdges(t *testing.T) {
	table := Rect{X: 100, Y: 100, W: 100, H: 70}
	chair := Rect{X: 203, Y: 104, W: 60, H: 60}
	opts := SnapOptions{Threshold: 6, SnapToEdges: true}

	snapped, guides := ComputeSmartGuides(chair, []Anchor{{Rect: table, Weight: 1}}, opts)
	if snapped.X != 200 {
		t.Fatalf("expected chair to abut table at x=200, got %v", snapped.X)
	}
	if snapped.Y != 100 {
		t.Fatalf("expected top edges aligned at y=100, got %v", snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == Vertical && g.Position == 200 {
			vOK = true
		}
		if g.Orientation == Horizontal && g.Position == 100 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected guides at x=200 (%v) and y=100 (%v)", vOK, hOK)
	}
}

func TestComputeSmartGuides_SnapToCenters(t *testing.T) {
	bed := Rect{X: 0, Y: 0, W: 200, H: 100}
	lamp := Rect{X: 200/2 - 20 - 2, Y: 100/2 - 45 + 3, W: 40, H: 90}
	snapped, guides := ComputeSmartGuides(lamp, []Anchor{{Rect: bed, Weight: 1}}, SnapOptions{Threshold: 5, SnapToCenters: true})
	if snapped.X != 80 || snapped.Y != 5 {
		t.Fatalf("expected centre snap to (80,5), got (%v,%v)", snapped.X, snapped.Y)
	}
	for _, g := range guides {
		if g.Kind != GuideCenter {
			t.Fatalf("unexpected guide kind %q", g.Kind)
		}
	}
}

func TestComputeSmartGuides_Disabled(t *testing.T) {
	a := []Anchor{{Rect: Rect{X: 0, Y: 0, W: 100, H: 100}, Weight: 1}}
	moving := Rect{X: 1, Y: 1, W: 50, H: 50}
	snapped, guides := ComputeSmartGuides(moving, a, SnapOptions{SnapToEdges: true})
	if snapped != moving || guides != nil {
		t.Fatalf("zero threshold must not snap")
	}
	snapped, guides = ComputeSmartGuides(R(10, 10, 50, 20), a, SnapOptions{Threshold: 5, SnapToEdges: true})
	if snapped.X != 10 || snapped.Y != 10 || len(guides) != 0 {
		t.Fatalf("expected no snap outside threshold; got %+v", snapped)
	}
}

func TestComputeSmartGuides_PicksClosestAxisIndependently(t *testing.T) {
	anchors := []Anchor{
		{Rect: Rect{X: 0, Y: 0, W: 100, H: 100}, Weight: 1},
		{Rect: Rect{X: 300, Y: 0, W: 100, H: 100}, Weight: 1},
	}
	moving := Rect{X: 2, Y: 97, W: 80, H: 80}
	snapped, _ := ComputeSmartGuides(moving, anchors, SnapOptions{Threshold: 5, SnapToEdges: true})
	if snapped.X != 0 {
		t.Fatalf("expected X snapped to 0, got %v", snapped.X)
	}
	if snapped.Y != 100 {
		t.Fatalf("expected Y snapped to 100, got %v", snapped.Y)
	}
}
