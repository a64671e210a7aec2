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

// Package ratio implements an exact rational number, grounded on the
// original engine's math/Ratio.h fixed-point helper (spec.md's
// supplemented features). It exists only so tests can check the
// round-trip laws spec.md 8 asks for (a + (-a) = 0, a * a.Inverse() = 1)
// without floating-point slop.
package ratio

import "fmt"

// Ratio is an exact fraction kept in lowest terms with a positive
// denominator.
type Ratio struct {
	num, den int64
}

// New returns num/den reduced to lowest terms. It panics on den == 0,
// matching the original's assertion-on-construction contract.
func New(num, den int64) Ratio {
	if den == 0 {
		panic("ratio: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g == 0 {
		return Ratio{0, 1}
	}
	return Ratio{num / g, den / g}
}

// Int returns the ratio n/1.
func Int(n int64) Ratio { return Ratio{n, 1} }

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Add returns r + other.
func (r Ratio) Add(other Ratio) Ratio {
	return New(r.num*other.den+other.num*r.den, r.den*other.den)
}

// Neg returns -r.
func (r Ratio) Neg() Ratio { return Ratio{-r.num, r.den} }

// Sub returns r - other.
func (r Ratio) Sub(other Ratio) Ratio { return r.Add(other.Neg()) }

// Mul returns r * other.
func (r Ratio) Mul(other Ratio) Ratio {
	return New(r.num*other.num, r.den*other.den)
}

// IsZero reports whether r == 0.
func (r Ratio) IsZero() bool { return r.num == 0 }

// Inverse returns 1/r. It panics if r is zero.
func (r Ratio) Inverse() Ratio {
	if r.num == 0 {
		panic("ratio: inverse of zero")
	}
	return New(r.den, r.num)
}

// Equal reports whether r and other denote the same value. Both are
// assumed to be in lowest terms (the only way to construct a Ratio),
// so this is a plain field comparison.
func (r Ratio) Equal(other Ratio) bool {
	return r.num == other.num && r.den == other.den
}

// Float64 returns the nearest float64 approximation.
func (r Ratio) Float64() float64 {
	return float64(r.num) / float64(r.den)
}

// String implements fmt.Stringer.
func (r Ratio) String() string {
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}
