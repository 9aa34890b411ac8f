/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package manip

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
)

func legal(t *testing.T, it domain.Item, b domain.Bounds) {
	t.Helper()
	if math.IsNaN(it.X) || math.IsNaN(it.Y) || math.IsNaN(it.Width) || math.IsNaN(it.Height) {
		t.Fatalf("non-finite geometry: %+v", it)
	}
	if it.X < b.Padding || it.X > max(b.Padding, b.Width-it.Width-b.Padding) {
		t.Fatalf("x out of range: %+v", it)
	}
	if it.Y < b.Padding || it.Y > max(b.Padding, b.Height-it.Height-b.Padding) {
		t.Fatalf("y out of range: %+v", it)
	}
}

func TestMoveAlwaysLegal(t *testing.T) {
	b := domain.DefaultBounds()
	rng := rand.New(rand.NewPCG(1, 2))
	it := domain.Item{X: 100, Y: 100, Width: 60, Height: 60}
	for i := 0; i < 2000; i++ {
		Move(&it, rng.Float64()*2000-1000, rng.Float64()*2000-1000, b)
		legal(t, it, b)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		MoveTo(&it, v, v, b)
		legal(t, it, b)
		Move(&it, v, -v, b)
		legal(t, it, b)
	}
}

func TestMoveClampsEachAxis(t *testing.T) {
	b := domain.DefaultBounds()
	it := domain.Item{X: 10, Y: 10, Width: 60, Height: 60}
	if !Move(&it, -100, 5, b) {
		t.Fatalf("expected a change")
	}
	if it.X != 5 || it.Y != 15 {
		t.Fatalf("got (%v,%v), want (5,15)", it.X, it.Y)
	}
	it.X, it.Y = 735, 535
	if Move(&it, 1, 1, b) {
		t.Fatalf("move at the corner should not change the position")
	}
}

func TestResizeStaysWithinLimits(t *testing.T) {
	b := domain.DefaultBounds()
	l := domain.DefaultSizeLimits()
	rng := rand.New(rand.NewPCG(3, 4))
	it := domain.Item{X: 700, Y: 500, Width: 60, Height: 60}
	for i := 0; i < 1000; i++ {
		Resize(&it, rng.Float64()*800-400, l, b)
		if it.Width < l.Min || it.Width > l.Max || it.Height < l.Min || it.Height > l.Max {
			t.Fatalf("size out of limits: %+v", it)
		}
		legal(t, it, b)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		Resize(&it, v, l, b)
		if math.IsNaN(it.Width) || it.Width < l.Min || it.Width > l.Max || it.Height < l.Min || it.Height > l.Max {
			t.Fatalf("size out of limits after %v: %+v", v, it)
		}
		legal(t, it, b)
	}
}

func TestResizeNoOpAtLimit(t *testing.T) {
	b := domain.DefaultBounds()
	l := domain.DefaultSizeLimits()
	it := domain.Item{X: 5, Y: 5, Width: 20, Height: 20}
	if Resize(&it, -ResizeStep, l, b) {
		t.Fatalf("shrinking at the minimum should be a no-op")
	}
	if !Resize(&it, ResizeStep, l, b) || it.Width != 30 || it.Height != 30 {
		t.Fatalf("grow failed: %+v", it)
	}
}

func TestResizeReclampsPosition(t *testing.T) {
	b := domain.DefaultBounds()
	it := domain.Item{X: 735, Y: 535, Width: 60, Height: 60}
	Resize(&it, 40, domain.DefaultSizeLimits(), b)
	if it.X != 695 || it.Y != 495 {
		t.Fatalf("position not reclamped: %+v", it)
	}
}

func TestRotateWraps(t *testing.T) {
	it := domain.Item{Rotation: 350}
	Rotate(&it, RotateStep)
	if it.Rotation != 5 {
		t.Fatalf("rotation = %v, want 5", it.Rotation)
	}
	Rotate(&it, -RotateStep)
	if it.Rotation != 350 {
		t.Fatalf("rotation = %v, want 350", it.Rotation)
	}
	for i := 0; i < 240; i++ {
		Rotate(&it, RotateStep)
	}
	if it.Rotation != 350 {
		t.Fatalf("full turns drifted: %v", it.Rotation)
	}
}

func TestBringForward(t *testing.T) {
	s := scene.New()
	a := s.AddItem(domain.Item{Kind: "chair"})
	s.AddItem(domain.Item{Kind: "table"})
	it, _ := s.Item(a)
	BringForward(it, s)
	items := s.Items()
	if items[len(items)-1].ID != a {
		t.Fatalf("item not on top after BringForward")
	}
	if s.MaxZOrder() != it.Z {
		t.Fatalf("scene max z = %d, item z = %d", s.MaxZOrder(), it.Z)
	}
	z := it.Z
	BringForward(it, s)
	if it.Z != z+1 {
		t.Fatalf("z should keep rising, got %d", it.Z)
	}
}

func TestSendBackwardStopsAtFloor(t *testing.T) {
	it := domain.Item{Z: 14}
	for i := 0; i < 20; i++ {
		SendBackward(&it)
		if it.Z < domain.FloorZOrder {
			t.Fatalf("z sank below floor: %d", it.Z)
		}
	}
	if it.Z != domain.FloorZOrder {
		t.Fatalf("z = %d, want %d", it.Z, domain.FloorZOrder)
	}
	if SendBackward(&it) {
		t.Fatalf("SendBackward at floor should report no change")
	}
}

func TestAlign(t *testing.T) {
	b := domain.DefaultBounds()
	cases := []struct {
		edge Edge
		x, y float64
	}{
		{AlignLeft, 5, 200},
		{AlignCenter, 370, 200},
		{AlignRight, 735, 200},
		{AlignTop, 300, 5},
		{AlignMiddle, 300, 210},
		{AlignBottom, 300, 415},
	}
	for _, c := range cases {
		it := domain.Item{X: 300, Y: 200, Width: 60, Height: 60}
		if err := Align(&it, c.edge, b); err != nil {
			t.Fatalf("Align(%s): %v", c.edge, err)
		}
		if it.X != c.x || it.Y != c.y {
			t.Errorf("Align(%s) = (%v,%v), want (%v,%v)", c.edge, it.X, it.Y, c.x, c.y)
		}
	}
	it := domain.Item{Width: 60, Height: 60}
	if err := Align(&it, "diagonal", b); !errors.Is(err, ErrUnknownEdge) {
		t.Fatalf("expected ErrUnknownEdge, got %v", err)
	}
	if _, err := ParseEdge("middle"); err != nil {
		t.Fatalf("ParseEdge: %v", err)
	}
}

func TestAlignTallItemStaysLegal(t *testing.T) {
	b := domain.DefaultBounds()
	it := domain.Item{Width: 300, Height: 300, X: 100, Y: 100}
	for _, e := range []Edge{AlignTop, AlignMiddle, AlignBottom} {
		if err := Align(&it, e, b); err != nil {
			t.Fatal(err)
		}
		legal(t, it, b)
	}
}

func TestPlacementScenario(t *testing.T) {
	b := domain.DefaultBounds()
	it := domain.Item{Width: 60, Height: 60}
	MoveTo(&it, b.Width/2-30, b.Height/2-30, b)
	if it.X < 5 || it.X > 735 || it.Y < 5 || it.Y > 475 {
		t.Fatalf("centre placement out of range: (%v,%v)", it.X, it.Y)
	}
}
