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

// Package narrowphase implements convex-mesh-vs-convex-mesh contact
// manifold generation: every shape the classifier sees is first
// reduced to its mesh equivalent (a point cloud plus an optional
// rounding radius), then a shared edge-clip algorithm produces the
// manifold regardless of the original shape kind. This replaces the
// original engine's virtual-dispatch shape visitor with a closed
// tagged-union match, per the Design Notes' "polymorphic shapes via
// visitor" redesign flag.
package narrowphase

// Kind tags the closed set of shapes the classifier recognises.
type Kind int

const (
	KindNone Kind = iota
	KindCircle
	KindCapsule
	KindRectangle
	KindAABB
	KindMesh
	KindRaycast
)

// Shape is a tagged union over Kind; only the fields relevant to Kind
// are meaningful.
type Shape struct {
	Kind Kind

	// Circle
	Radius float64

	// Capsule: Radius above plus these two endpoints.
	Top, Bottom [2]float64

	// Rectangle: half-extents about the local origin.
	HalfWidth, HalfHeight float64

	// AABB: explicit min/max, local-space axis aligned.
	Min, Max [2]float64

	// Mesh: an explicit convex, CCW-wound point cloud, optionally
	// rounded by Radius.
	Points [][2]float64
}

// Mesh is the shape-independent representation narrowphase's
// algorithm consumes: a convex point cloud (possibly degenerate: 0, 1
// or 2 points) plus a rounding radius.
type Mesh struct {
	Points [][2]float64
	Radius float64
}

// Classify reduces s to its Mesh equivalent. Rectangle and AABB become
// 4-point CCW meshes with zero radius; Circle becomes a single-point
// mesh with its radius; Capsule becomes a two-point mesh with its
// radius. KindRaycast and KindNone have no collidable geometry and
// classify to an empty mesh.
func Classify(s Shape) Mesh {
	switch s.Kind {
	case KindCircle:
		return Mesh{Points: [][2]float64{{0, 0}}, Radius: s.Radius}
	case KindCapsule:
		return Mesh{Points: [][2]float64{s.Top, s.Bottom}, Radius: s.Radius}
	case KindRectangle:
		hw, hh := s.HalfWidth, s.HalfHeight
		return Mesh{Points: [][2]float64{
			{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh},
		}}
	case KindAABB:
		return Mesh{Points: [][2]float64{
			{s.Min[0], s.Min[1]}, {s.Max[0], s.Min[1]}, {s.Max[0], s.Max[1]}, {s.Min[0], s.Max[1]},
		}}
	case KindMesh:
		return Mesh{Points: s.Points, Radius: s.Radius}
	default:
		return Mesh{}
	}
}
