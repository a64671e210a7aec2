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

package mass

import (
	"math"
	"testing"
)

func TestCircleMassPositive(t *testing.T) {
	p := Circle(1, 1)
	if p.InverseMass <= 0 || p.InverseInertia <= 0 {
		t.Fatalf("expected positive inverse mass/inertia, got %+v", p)
	}
	wantMass := math.Pi
	if got := 1 / p.InverseMass; math.Abs(got-wantMass) > 1e-6 {
		t.Fatalf("mass = %v, want %v", got, wantMass)
	}
}

func TestEmptyMeshIsInfiniteMass(t *testing.T) {
	p := Mesh(nil, 0, 1)
	if p.InverseMass != 0 || p.InverseInertia != 0 {
		t.Fatalf("expected zero inverse mass/inertia for empty mesh, got %+v", p)
	}
}

func TestSinglePointMeshIsCircle(t *testing.T) {
	p := Mesh([][2]float64{{0, 0}}, 2, 1)
	want := Circle(2, 1)
	if p != want {
		t.Fatalf("single-point mesh = %+v, want circle %+v", p, want)
	}
}

func TestTwoPointMeshIsCapsule(t *testing.T) {
	p := Mesh([][2]float64{{0, 0}, {0, 4}}, 1, 1)
	want := Capsule(0, 0, 0, 4, 1, 1)
	if p != want {
		t.Fatalf("two-point mesh = %+v, want capsule %+v", p, want)
	}
}

func TestSquarePolygonMass(t *testing.T) {
	// unit square area = 1, density = 2 -> mass = 2
	pts := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	p := Polygon(pts, 2)
	if got := 1 / p.InverseMass; math.Abs(got-2) > 1e-6 {
		t.Fatalf("mass = %v, want 2", got)
	}
	if math.Abs(p.CenterOfMass[0]-0.5) > 1e-6 || math.Abs(p.CenterOfMass[1]-0.5) > 1e-6 {
		t.Fatalf("center of mass = %+v, want (0.5,0.5)", p.CenterOfMass)
	}
}

func TestDegeneratePolygonIsInfiniteMass(t *testing.T) {
	p := Polygon([][2]float64{{0, 0}, {1, 0}}, 1)
	if p.InverseMass != 0 {
		t.Fatalf("expected zero inverse mass for a degenerate polygon, got %+v", p)
	}
}
