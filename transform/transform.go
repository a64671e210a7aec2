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

// Package transform implements 2-D affine transforms and a resolver
// that composes a parent chain of them (world = parent.world * local),
// grounded on the original engine's transform/Transform.h and
// transform/TransformResolver.h contracts, reimplemented rather than
// ported.
package transform

import "math"

// Parts is a decomposed transform: rotation (as a unit direction
// vector), non-uniform scale, and translation.
type Parts struct {
	RotX, RotY     float64
	ScaleX, ScaleY float64
	TX, TY, TZ     float64
}

// Packed is a 2-D affine transform stored as a 2x3 matrix plus a
// decoupled Z translation, mirroring the original's PackedTransform:
// no Z scale or rotation is representable, only a Z offset carried
// alongside the 2-D basis.
type Packed struct {
	AX, BX, TX float64
	AY, BY, TY float64
	TZ         float64
}

// Identity is the transform that leaves points unchanged.
var Identity = Packed{AX: 1, BY: 1}

// Mul returns p composed with v, i.e. applying v first then p
// (p.Mul(v) transforms a point by v's frame, then places the result
// into p's frame).
func (p Packed) Mul(v Packed) Packed {
	return Packed{
		AX: p.AX*v.AX + p.BX*v.AY, BX: p.AX*v.BX + p.BX*v.BY, TX: p.AX*v.TX + p.BX*v.TY + p.TX,
		AY: p.AY*v.AX + p.BY*v.AY, BY: p.AY*v.BX + p.BY*v.BY, TY: p.AY*v.TX + p.BY*v.TY + p.TY,
		TZ: v.TZ + p.TZ,
	}
}

// TransformPoint2 applies the full affine transform (rotation, scale,
// translation) to a 2-D point.
func (p Packed) TransformPoint2(x, y float64) (float64, float64) {
	return p.AX*x + p.BX*y + p.TX, p.AY*x + p.BY*y + p.TY
}

// TransformVector2 applies only the linear part (rotation, scale),
// dropping translation.
func (p Packed) TransformVector2(x, y float64) (float64, float64) {
	return p.AX*x + p.BX*y, p.AY*x + p.BY*y
}

// Pos2 returns the translation component.
func (p Packed) Pos2() (float64, float64) { return p.TX, p.TY }

// SetPos2 overwrites the X/Y translation, leaving rotation, scale and
// TZ untouched.
func (p *Packed) SetPos2(x, y float64) { p.TX, p.TY = x, y }

// Decompose extracts rotation/scale/translation from p. p's basis
// vectors must be non-degenerate (their lengths must be non-zero),
// matching the original's "must be non-null or it wouldn't be a valid
// transform" invariant.
func (p Packed) Decompose() Parts {
	aLen := math.Hypot(p.AX, p.AY)
	bLen := math.Hypot(p.BX, p.BY)
	return Parts{
		RotX: p.AX / aLen, RotY: p.AY / aLen,
		ScaleX: aLen, ScaleY: bLen,
		TX: p.TX, TY: p.TY, TZ: p.TZ,
	}
}

// Build reassembles a Packed transform from its decomposed Parts. The
// "b" basis vector is always the 90-degree rotation of "a" scaled by
// ScaleY, matching the original's rigid-rotation-plus-scale
// convention (no shear is representable).
func Build(p Parts) Packed {
	return Packed{
		AX: p.RotX * p.ScaleX, BX: -p.RotY * p.ScaleY, TX: p.TX,
		AY: p.RotY * p.ScaleX, BY: p.RotX * p.ScaleY, TY: p.TY,
		TZ: p.TZ,
	}
}

// InverseOfParts returns the inverse transform of the one that Build
// would construct from p, computed directly from the decomposed parts
// to avoid an extra decompose/recompose round trip.
func InverseOfParts(p Parts) Packed {
	return Packed{
		AX: p.RotX / p.ScaleX, BX: p.RotY / p.ScaleX, TX: (-p.RotX*p.TX - p.RotY*p.TY) / p.ScaleX,
		AY: -p.RotY / p.ScaleY, BY: p.RotX / p.ScaleY, TY: (p.RotY*p.TX - p.RotX*p.TY) / p.ScaleY,
		TZ: -p.TZ,
	}
}

// Inverse returns the inverse of p, satisfying p.Inverse().Mul(p) ==
// Identity (up to floating-point error).
func (p Packed) Inverse() Packed {
	return InverseOfParts(p.Decompose())
}
