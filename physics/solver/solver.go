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

// Package solver implements a sparse projected-Gauss-Seidel constraint
// solver over a block-sparse Jacobian: constraints are resolved one at
// a time, applying the impulse that zeroes the constraint residual
// (bounded by [lambdaMin, lambdaMax]) and updating body velocities
// immediately so subsequent constraints see the change.
package solver

import "math"

// blockSize is the per-body velocity block width: 2 linear components
// plus 1 angular.
const blockSize = 3

// InfiniteMass is the body index sentinel marking an immovable body.
// By convention an infinite-mass body is always placed at mapping
// slot A.
const InfiniteMass = math.MaxUint32

// Mapping names the two bodies a constraint row couples.
type Mapping struct {
	A, B uint32
}

// Solver is the per-tick constraint system: resize() once, then
// populate via the setters, then premultiply/warmStart/advancePGS.
type Solver struct {
	bodyCount       int
	constraintCount int

	mass     [][blockSize]float64 // per body: invMassX, invMassY, invInertia
	velocity [][blockSize]float64 // per body: vx, vy, angular

	jacobian            [][2 * blockSize]float64 // per constraint: rowA (3) | rowB (3)
	jacobianMassPremult [][2 * blockSize]float64
	bias                []float64
	lambda              []float64
	lambdaMin, lambdaMax []float64
	diagonal            []float64
	mapping             []Mapping

	firstIteration bool
}

// Resize allocates storage for B bodies and N constraints, discarding
// any prior contents.
func (s *Solver) Resize(bodyCount, constraintCount int) {
	s.bodyCount = bodyCount
	s.constraintCount = constraintCount
	s.mass = make([][blockSize]float64, bodyCount)
	s.velocity = make([][blockSize]float64, bodyCount)
	s.jacobian = make([][2 * blockSize]float64, constraintCount)
	s.jacobianMassPremult = make([][2 * blockSize]float64, constraintCount)
	s.bias = make([]float64, constraintCount)
	s.lambda = make([]float64, constraintCount)
	s.lambdaMin = make([]float64, constraintCount)
	s.lambdaMax = make([]float64, constraintCount)
	s.diagonal = make([]float64, constraintCount)
	s.mapping = make([]Mapping, constraintCount)
	s.firstIteration = true
}

// SetMass sets body i's inverse mass (x, y — usually equal) and
// inverse inertia. A body with InfiniteMass never appears here: its
// mass entry is simply never read because every Jacobian row using it
// as slot A skips the velocity update.
func (s *Solver) SetMass(body int, invMassX, invMassY, invInertia float64) {
	s.mass[body] = [blockSize]float64{invMassX, invMassY, invInertia}
}

// SetVelocity sets body i's current linear/angular velocity.
func (s *Solver) SetVelocity(body int, vx, vy, angular float64) {
	s.velocity[body] = [blockSize]float64{vx, vy, angular}
}

// SetJacobian populates constraint i's Jacobian row and the bodies it
// couples.
func (s *Solver) SetJacobian(i int, bodyA, bodyB uint32, rowA, rowB [blockSize]float64) {
	s.mapping[i] = Mapping{A: bodyA, B: bodyB}
	var row [2 * blockSize]float64
	copy(row[0:blockSize], rowA[:])
	copy(row[blockSize:2*blockSize], rowB[:])
	s.jacobian[i] = row
}

// SetBias sets constraint i's bias term (e.g. Baumgarte stabilisation
// or restitution target).
func (s *Solver) SetBias(i int, bias float64) { s.bias[i] = bias }

// SetLambdaBounds sets the accumulated-impulse clamp range for
// constraint i.
func (s *Solver) SetLambdaBounds(i int, min, max float64) {
	s.lambdaMin[i], s.lambdaMax[i] = min, max
}

// SetWarmStart seeds constraint i's accumulated impulse from a prior
// tick's solve.
func (s *Solver) SetWarmStart(i int, lambda0 float64) { s.lambda[i] = lambda0 }

func (s *Solver) massOf(body uint32) [blockSize]float64 {
	if body == InfiniteMass {
		return [blockSize]float64{}
	}
	return s.mass[body]
}

// Premultiply computes jacobianMassPremult[i] = jacobian[i] *
// mass[bodyOfBlock], row by row, once per tick after SetMass/
// SetJacobian have both been called for every entry.
func (s *Solver) Premultiply() {
	for i := 0; i < s.constraintCount; i++ {
		m := s.mapping[i]
		massA := s.massOf(m.A)
		massB := s.massOf(m.B)
		row := s.jacobian[i]
		var out [2 * blockSize]float64
		for k := 0; k < blockSize; k++ {
			out[k] = row[k] * massA[k]
			out[blockSize+k] = row[blockSize+k] * massB[k]
		}
		s.jacobianMassPremult[i] = out
	}
}

func dot3(a, b [blockSize]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// WarmStart applies each constraint's seeded lambda to body
// velocities, using the premultiplied mass consistently with
// AdvancePGS (the Design Notes flag the original's raw-mass warm
// start as an inconsistency worth fixing; this implementation always
// uses jacobianMassPremult).
func (s *Solver) WarmStart() {
	for i := 0; i < s.constraintCount; i++ {
		lambda := s.lambda[i]
		if lambda == 0 {
			continue
		}
		s.applyImpulse(i, lambda)
	}
}

func (s *Solver) applyImpulse(i int, deltaLambda float64) {
	m := s.mapping[i]
	jtm := s.jacobianMassPremult[i]
	var jtmA, jtmB [blockSize]float64
	copy(jtmA[:], jtm[0:blockSize])
	copy(jtmB[:], jtm[blockSize:2*blockSize])

	if m.A != InfiniteMass {
		v := s.velocity[m.A]
		for k := 0; k < blockSize; k++ {
			v[k] += deltaLambda * jtmA[k]
		}
		s.velocity[m.A] = v
	}
	if m.B != InfiniteMass {
		v := s.velocity[m.B]
		for k := 0; k < blockSize; k++ {
			v[k] += deltaLambda * jtmB[k]
		}
		s.velocity[m.B] = v
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AdvancePGS runs one sweep over every constraint, applying the
// impulse that locally zeroes its residual, clamped to
// [lambdaMin,lambdaMax]. It returns the largest |deltaLambda| observed
// (remainingError) and whether that is already within maxLambda
// (isFinished).
func (s *Solver) AdvancePGS(maxLambda float64) (remainingError float64, isFinished bool) {
	if s.constraintCount == 0 {
		return 0, true
	}
	var maxDelta float64
	for i := 0; i < s.constraintCount; i++ {
		m := s.mapping[i]
		row := s.jacobian[i]
		var rowA, rowB [blockSize]float64
		copy(rowA[:], row[0:blockSize])
		copy(rowB[:], row[blockSize:2*blockSize])

		if s.firstIteration {
			jtm := s.jacobianMassPremult[i]
			var jtmA, jtmB [blockSize]float64
			copy(jtmA[:], jtm[0:blockSize])
			copy(jtmB[:], jtm[blockSize:2*blockSize])
			denom := dot3(rowA, jtmA) + dot3(rowB, jtmB)
			if denom != 0 {
				s.diagonal[i] = 1 / denom
			}
		}

		var va, vb [blockSize]float64
		if m.A != InfiniteMass {
			va = s.velocity[m.A]
		}
		if m.B != InfiniteMass {
			vb = s.velocity[m.B]
		}
		jv := dot3(rowA, va) + dot3(rowB, vb)

		lambdaHat := (s.bias[i] - jv) * s.diagonal[i]
		newLambda := clamp(s.lambda[i]+lambdaHat, s.lambdaMin[i], s.lambdaMax[i])
		delta := newLambda - s.lambda[i]
		s.lambda[i] = newLambda

		if delta != 0 {
			s.applyImpulse(i, delta)
		}

		if abs := math.Abs(delta); abs > maxDelta {
			maxDelta = abs
		}
	}
	s.firstIteration = false
	return maxDelta, maxDelta <= maxLambda
}

// Solve runs AdvancePGS until maxIterations is reached or the solve
// reports isFinished.
func (s *Solver) Solve(maxIterations int, maxLambda float64) (remainingError float64, isFinished bool) {
	if s.constraintCount == 0 {
		return 0, true
	}
	for iter := 0; iter < maxIterations; iter++ {
		remainingError, isFinished = s.AdvancePGS(maxLambda)
		if isFinished {
			return remainingError, true
		}
	}
	return remainingError, false
}

// Lambda returns constraint i's current accumulated impulse, useful
// for feeding next tick's warm start.
func (s *Solver) Lambda(i int) float64 { return s.lambda[i] }

// Velocity returns body i's current velocity.
func (s *Solver) Velocity(body int) (vx, vy, angular float64) {
	v := s.velocity[body]
	return v[0], v[1], v[2]
}
