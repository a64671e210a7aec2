// Copyright (C) 2026 dof engine contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package narrowphase

import (
	"math"
	"testing"
)

func identityAt(x, y float64) Transform2 {
	return Transform2{AX: 1, BY: 1, TX: x, TY: y}
}

func square(halfSize float64) Mesh {
	return Mesh{Points: [][2]float64{
		{-halfSize, -halfSize}, {halfSize, -halfSize}, {halfSize, halfSize}, {-halfSize, halfSize},
	}}
}

func TestQuadQuadNonTouching(t *testing.T) {
	a := square(0.5)
	b := square(0.5)
	const eps = 0.01
	m := Collide(a, b, identityAt(0, 0), identityAt(1+eps, 0), DefaultEdgeEpsilon, 0)
	if len(m.Points) != 0 {
		t.Fatalf("expected no contacts for non-touching quads, got %+v", m.Points)
	}
}

func TestQuadQuadFaceContact(t *testing.T) {
	a := square(0.5)
	b := square(0.5)
	const eps = 0.01
	m := Collide(a, b, identityAt(0, 0), identityAt(1-eps, 0), DefaultEdgeEpsilon, 0)
	if len(m.Points) != 2 {
		t.Fatalf("expected 2 contacts for face-touching quads, got %d: %+v", len(m.Points), m.Points)
	}
	if m.Normal[0] >= 0 {
		t.Fatalf("expected normal to point toward A (negative X), got %+v", m.Normal)
	}
	for _, p := range m.Points {
		if math.Abs(math.Abs(p.Position[1])-0.5) > 1e-6 {
			t.Fatalf("expected contact Y near +/-0.5, got %+v", p)
		}
		if math.Abs(p.Position[0]-0.5) > 2*eps {
			t.Fatalf("expected contact X near 0.5, got %+v", p)
		}
	}
}

func TestEmptyMeshesProduceNoContacts(t *testing.T) {
	m := Collide(Mesh{}, square(0.5), identityAt(0, 0), identityAt(0, 0), DefaultEdgeEpsilon, 0)
	if len(m.Points) != 0 {
		t.Fatalf("expected empty manifold for an empty mesh, got %+v", m.Points)
	}
}

func TestCircleCircleNear(t *testing.T) {
	a := Classify(Shape{Kind: KindCircle, Radius: 1})
	b := Classify(Shape{Kind: KindCircle, Radius: 1})
	const eps = 0.01
	d := (2 - eps) / math.Sqrt(2)
	m := Collide(a, b, identityAt(0, 0), identityAt(d, d), DefaultEdgeEpsilon, 0)
	if len(m.Points) == 0 {
		t.Fatalf("expected near-touching circles to produce contacts")
	}
	for _, p := range m.Points {
		dist := math.Hypot(p.Position[0]-0.7, p.Position[1]-0.7)
		if dist > 0.2 {
			t.Fatalf("contact %+v too far from expected region near (0.7,0.7)", p)
		}
	}
}

func TestAABBClassifiesToFourPoints(t *testing.T) {
	// Classify expands an AABB shape into its four corner points.
	m := Classify(Shape{Kind: KindAABB, Min: [2]float64{-1, -1}, Max: [2]float64{1, 1}})
	if len(m.Points) != 4 {
		t.Fatalf("expected AABB to classify to 4 points, got %d", len(m.Points))
	}
}

func TestDegenerateEdgesSkipped(t *testing.T) {
	// A "polygon" with a zero-length edge (duplicate points) must not
	// panic.
	degenerate := Mesh{Points: [][2]float64{{0, 0}, {0, 0}, {1, 1}}}
	m := Collide(degenerate, square(0.5), identityAt(0, 0), identityAt(0, 0), DefaultEdgeEpsilon, 0)
	_ = m // must not panic
}
