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

// Package mass computes inverse mass and inverse inertia from a
// shape's geometry and density, grounded on the original engine's
// physics/Mass.cpp integration formulas, reimplemented against this
// module's own shape types rather than ported line for line.
package mass

import "math"

const pi = math.Pi

// Props is the inverse-mass representation the solver consumes
// directly: a zero InverseMass/InverseInertia denotes an infinitely
// heavy, non-rotating body (the solver's INFINITE_MASS convention).
type Props struct {
	InverseMass    float64
	InverseInertia float64
	CenterOfMass   [2]float64
}

// invertOrZero turns an accumulated (mass, inertia) pair into their
// inverses, mapping non-positive mass to the "infinite mass" zero
// convention instead of dividing by zero.
func invertOrZero(m, i float64) (float64, float64) {
	var invMass, invInertia float64
	if m > 0 {
		invMass = 1 / m
	}
	if i > 0 {
		invInertia = 1 / i
	}
	return invMass, invInertia
}

// Circle computes mass properties for a disc of the given radius and
// density, centered at the origin of its local frame.
func Circle(radius, density float64) Props {
	area := pi * radius * radius
	m := area * density
	// inertia of a disc about its center: 1/2 * m * r^2
	i := 0.5 * m * radius * radius
	invM, invI := invertOrZero(m, i)
	return Props{InverseMass: invM, InverseInertia: invI}
}

// Capsule computes mass properties for a capsule: a rectangle of
// length |bottom-top| and width 2*radius, capped by two half-circles
// that together form one full circle of the given radius.
func Capsule(topX, topY, bottomX, bottomY, radius, density float64) Props {
	dx, dy := bottomX-topX, bottomY-topY
	length := math.Hypot(dx, dy)
	r2 := radius * radius
	l2 := length * length

	circleMass := pi * r2 * density
	boxMass := 2 * radius * length * density
	m := circleMass + boxMass

	halfCircleCentroid := (4 * radius) / (3 * pi)
	halfLength := length * 0.5
	circleInertia := circleMass * (0.5*r2 + halfLength*halfLength + 2*halfLength*halfCircleCentroid)
	boxInertia := boxMass * (4*r2 + l2) / 12
	i := circleInertia + boxInertia

	invM, invI := invertOrZero(m, i)
	return Props{
		InverseMass:    invM,
		InverseInertia: invI,
		CenterOfMass:   [2]float64{topX + dx*0.5, topY + dy*0.5},
	}
}

// cross2 is the 2-D cross product (the signed area of the
// parallelogram spanned by (ax,ay) and (bx,by)).
func cross2(ax, ay, bx, by float64) float64 { return ax*by - ay*bx }

// Polygon computes mass properties for a convex, CCW-wound polygon
// given as a slice of [x, y] vertices, by fan-triangulating from
// vertex 0 and accumulating each triangle's signed area, centroid and
// inertia contribution.
func Polygon(points [][2]float64, density float64) Props {
	n := len(points)
	if n < 3 {
		return Props{}
	}
	ref := points[0]
	var massAccum, inertiaAccum float64
	var center [2]float64
	const third = 1.0 / 3.0

	for i := 1; i < n-1; i++ {
		ax, ay := points[i][0]-ref[0], points[i][1]-ref[1]
		bx, by := points[i+1][0]-ref[0], points[i+1][1]-ref[1]
		det := cross2(ax, ay, bx, by)
		triArea := det * 0.5
		massAccum += triArea

		center[0] += (ax + bx) * (triArea * third)
		center[1] += (ay + by) * (triArea * third)

		integral := func(a, b float64) float64 { return a*a + a*b + b*b }
		integralX := integral(ax, bx)
		integralY := integral(ay, by)
		inertiaAccum += (0.25 * third * det) * (integralX + integralY)
	}

	var invArea float64
	if massAccum != 0 {
		invArea = 1 / massAccum
	}
	center[0] *= invArea
	center[1] *= invArea

	m := massAccum * density
	i := inertiaAccum*density - m*(center[0]*center[0]+center[1]*center[1])

	invM, invI := invertOrZero(m, i)
	return Props{
		InverseMass:    invM,
		InverseInertia: invI,
		CenterOfMass:   [2]float64{center[0] + ref[0], center[1] + ref[1]},
	}
}

// Mesh dispatches to the right integration by vertex count, matching
// the original's degenerate-mesh fallbacks: no points is treated as
// infinite mass, one point as a circle, two points as a capsule.
func Mesh(points [][2]float64, radius, density float64) Props {
	switch len(points) {
	case 0:
		return Props{}
	case 1:
		return Circle(radius, density)
	case 2:
		return Capsule(points[0][0], points[0][1], points[1][0], points[1][1], radius, density)
	default:
		return Polygon(points, density)
	}
}
