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

import "math"

// ManifoldCap is the maximum number of contact points a Manifold ever
// carries.
const ManifoldCap = 4

// DefaultEdgeEpsilon is the minimum edge-normal length (and the
// reference-edge tie-break bias) below which an edge is treated as
// degenerate.
const DefaultEdgeEpsilon = 1e-6

// Point is one contact: its world-space position and signed overlap
// along the manifold normal (positive means penetrating).
type Point struct {
	Position [2]float64
	Overlap  float64
}

// Manifold is narrowphase's output: Normal points from B toward A, and
// Points holds 0..ManifoldCap contacts.
type Manifold struct {
	Normal [2]float64
	Points []Point
}

func sub(a, b [2]float64) [2]float64           { return [2]float64{a[0] - b[0], a[1] - b[1]} }
func add(a, b [2]float64) [2]float64           { return [2]float64{a[0] + b[0], a[1] + b[1]} }
func scale(a [2]float64, s float64) [2]float64 { return [2]float64{a[0] * s, a[1] * s} }
func dot(a, b [2]float64) float64              { return a[0]*b[0] + a[1]*b[1] }
func length(a [2]float64) float64              { return math.Sqrt(dot(a, a)) }

// Transform2 is the minimal affine map narrowphase needs: the two
// basis columns plus a translation. It intentionally mirrors
// transform.Packed's 2-D fields without importing package transform,
// so narrowphase has no dependency on how a caller tracks hierarchy.
type Transform2 struct {
	AX, AY float64
	BX, BY float64
	TX, TY float64
}

func (t Transform2) apply(p [2]float64) [2]float64 {
	return [2]float64{t.AX*p[0] + t.BX*p[1] + t.TX, t.AY*p[0] + t.BY*p[1] + t.TY}
}

func (t Transform2) applyAll(pts [][2]float64) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = t.apply(p)
	}
	return out
}

type edgeSeparation struct {
	index      int
	separation float64
	normal     [2]float64
	valid      bool
}

// outwardNormal returns the outward unit normal of the CCW edge
// v1->v2, or the zero vector (with ok=false) if the edge is degenerate
// (shorter than edgeEpsilon).
func outwardNormal(v1, v2 [2]float64, edgeEpsilon float64) ([2]float64, bool) {
	d := sub(v2, v1)
	n := [2]float64{d[1], -d[0]}
	l := length(n)
	if l < edgeEpsilon {
		return [2]float64{}, false
	}
	return scale(n, 1/l), true
}

// supportMin returns the point of pts minimising dot(dir, p) (the
// support point in direction -dir).
func supportMin(pts [][2]float64, dir [2]float64) [2]float64 {
	best := pts[0]
	bestDot := dot(dir, best)
	for _, p := range pts[1:] {
		if d := dot(dir, p); d < bestDot {
			bestDot = d
			best = p
		}
	}
	return best
}

// findMaxSeparation finds, among ref's edges, the one whose outward
// normal gives the greatest separation from other (the least
// penetrating, or most separated, edge) — the standard SAT "best
// axis" search restricted to a single polygon's normals.
func findMaxSeparation(ref, other [][2]float64, edgeEpsilon float64) edgeSeparation {
	best := edgeSeparation{separation: math.Inf(-1)}
	n := len(ref)
	for i := 0; i < n; i++ {
		v1 := ref[i]
		v2 := ref[(i+1)%n]
		normal, ok := outwardNormal(v1, v2, edgeEpsilon)
		if !ok {
			continue
		}
		support := supportMin(other, normal)
		sep := dot(normal, support) - dot(normal, v1)
		if sep > best.separation {
			best = edgeSeparation{index: i, separation: sep, normal: normal, valid: true}
		}
	}
	return best
}

// incidentEdge returns the two vertices of other's edge whose outward
// normal is most anti-parallel to refNormal.
func incidentEdge(other [][2]float64, refNormal [2]float64, edgeEpsilon float64) (a, b [2]float64, ok bool) {
	n := len(other)
	bestDot := math.Inf(1)
	bestIdx := -1
	for i := 0; i < n; i++ {
		v1 := other[i]
		v2 := other[(i+1)%n]
		normal, valid := outwardNormal(v1, v2, edgeEpsilon)
		if !valid {
			continue
		}
		d := dot(normal, refNormal)
		if d < bestDot {
			bestDot = d
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return [2]float64{}, [2]float64{}, false
	}
	return other[bestIdx], other[(bestIdx+1)%n], true
}

// clipSegmentToLine clips the segment (a,b) to the half-space
// dot(normal,p) <= offset, returning the (possibly shortened) segment
// and whether any of it survives.
func clipSegmentToLine(a, b, normal [2]float64, offset float64) (a2, b2 [2]float64, kept int) {
	da := dot(normal, a) - offset
	db := dot(normal, b) - offset

	var pts [2][2]float64
	n := 0
	if da <= 0 {
		pts[n] = a
		n++
	}
	if db <= 0 {
		pts[n] = b
		n++
	}
	if (da < 0 && db > 0) || (da > 0 && db < 0) {
		t := da / (da - db)
		pts[n] = add(a, scale(sub(b, a), t))
		n++
	}
	if n == 0 {
		return [2]float64{}, [2]float64{}, 0
	}
	if n == 1 {
		return pts[0], [2]float64{}, 1
	}
	return pts[0], pts[1], 2
}

// Collide runs the convex-mesh-vs-convex-mesh edge-clip algorithm.
// aToWorld/bToWorld place each mesh's local-space points into a shared
// frame (typically world space); the returned Manifold's points and
// normal are expressed in that same shared frame. noCollisionDistance
// is the minimum allowed overlap (points more separated than this are
// dropped); pass 0 for "only report actually-touching contacts".
func Collide(a, b Mesh, aToWorld, bToWorld Transform2, edgeEpsilon, noCollisionDistance float64) Manifold {
	if len(a.Points) == 0 || len(b.Points) == 0 {
		return Manifold{}
	}
	if edgeEpsilon <= 0 {
		edgeEpsilon = DefaultEdgeEpsilon
	}

	worldA := aToWorld.applyAll(a.Points)
	worldB := bToWorld.applyAll(b.Points)

	// Degenerate meshes (point/segment) have no well-defined outward
	// edge normal to search over; approximate them as a tiny
	// triangle so the edge-clip machinery still applies. This keeps
	// circle/capsule contacts going through the same code path as
	// polygon contacts, consistent with classification already
	// having reduced them to "mesh with a radius".
	worldA = ensurePolygon(worldA)
	worldB = ensurePolygon(worldB)

	sepA := findMaxSeparation(worldA, worldB, edgeEpsilon)
	sepB := findMaxSeparation(worldB, worldA, edgeEpsilon)

	if !sepA.valid && !sepB.valid {
		return Manifold{}
	}

	totalRadius := a.Radius + b.Radius
	referenceIsA := true
	switch {
	case !sepB.valid:
		referenceIsA = true
	case !sepA.valid:
		referenceIsA = false
	default:
		referenceIsA = sepA.separation >= sepB.separation-edgeEpsilon
	}

	var refPoly, incPoly [][2]float64
	var refSep edgeSeparation
	if referenceIsA {
		refPoly, incPoly, refSep = worldA, worldB, sepA
	} else {
		refPoly, incPoly, refSep = worldB, worldA, sepB
	}

	v1 := refPoly[refSep.index]
	v2 := refPoly[(refSep.index+1)%len(refPoly)]
	refNormal := refSep.normal

	ia, ib, ok := incidentEdge(incPoly, refNormal, edgeEpsilon)
	if !ok {
		return Manifold{}
	}

	tangent := sub(v2, v1)
	tl := length(tangent)
	if tl < edgeEpsilon {
		return Manifold{}
	}
	tangent = scale(tangent, 1/tl)

	// Clip against the side plane at v1 (normal -tangent, offset
	// -dot(tangent,v1)), then at v2 (normal tangent, offset
	// dot(tangent,v2)).
	ca, cb, kept := clipSegmentToLine(ia, ib, scale(tangent, -1), -dot(tangent, v1))
	if kept < 2 {
		return Manifold{}
	}
	ca, cb, kept = clipSegmentToLine(ca, cb, tangent, dot(tangent, v2))
	if kept < 2 {
		return Manifold{}
	}

	refOffset := dot(refNormal, v1)
	points := make([]Point, 0, 2)
	for _, p := range [2][2]float64{ca, cb} {
		overlap := refOffset - dot(refNormal, p) + totalRadius
		if overlap < -noCollisionDistance {
			continue
		}
		// Shift the clip point back toward the reference shape by the
		// incident shape's radius: the clip point lies on the incident
		// shape's core geometry, and refNormal points away from the
		// reference shape, so subtracting incidentRadius along
		// refNormal moves the point onto the incident shape's rounded
		// surface facing the reference shape.
		incidentRadius := b.Radius
		if !referenceIsA {
			incidentRadius = a.Radius
		}
		pos := sub(p, scale(refNormal, incidentRadius))
		points = append(points, Point{Position: pos, Overlap: overlap})
	}

	normal := refNormal
	if referenceIsA {
		normal = scale(refNormal, -1)
	}

	return Manifold{Normal: normal, Points: points}
}

// ensurePolygon pads a degenerate (0/1/2-vertex) point set into a
// minimal non-degenerate polygon so the edge-search code can treat
// every mesh uniformly; single points become a vanishingly small
// triangle, segments become a vanishingly thin quad.
func ensurePolygon(pts [][2]float64) [][2]float64 {
	const eps = 1e-5
	switch len(pts) {
	case 1:
		p := pts[0]
		return [][2]float64{
			{p[0], p[1]},
			{p[0] + eps, p[1]},
			{p[0], p[1] + eps},
		}
	case 2:
		p0, p1 := pts[0], pts[1]
		d := sub(p1, p0)
		perp := [2]float64{-d[1], d[0]}
		l := length(perp)
		if l < 1e-12 {
			perp = [2]float64{0, eps}
		} else {
			perp = scale(perp, eps/l)
		}
		return [][2]float64{
			p0,
			p1,
			add(p1, perp),
			add(p0, perp),
		}
	default:
		return pts
	}
}
