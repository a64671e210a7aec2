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

// Package physics is the orchestration module (spec component C8): it
// declares the row schema a rigid body table needs and assembles the
// per-tick graph of scheduler nodes that carries a body from event
// intake through mass refresh, transform propagation, broadphase
// rebuild, narrowphase, constraint assembly, PGS solving and velocity
// integration.
package physics

import (
	"github.com/dofsim/engine/physics/grid"
	"github.com/dofsim/engine/physics/mass"
	"github.com/dofsim/engine/physics/narrowphase"
	"github.com/dofsim/engine/table"
	"github.com/dofsim/engine/transform"
)

// Shape is a body's local-space collider, classified to a Mesh at the
// point of use (mass refresh, broadphase, narrowphase) rather than
// cached, since classification is cheap and the Shape itself is the
// single source of truth.
type Shape struct {
	Local narrowphase.Shape
}

// Density is a body's mass density; combined with Shape by the mass
// refresh step whenever massDirtyFlag is set.
type Density struct {
	Value float64
}

// Mass caches the inverse-mass properties the solver consumes
// directly. Only the mass-refresh step writes it.
type Mass struct {
	Props mass.Props
}

// Velocity is a body's current linear/angular velocity, read and
// written by the solve-and-integrate step.
type Velocity struct {
	VX, VY, Angular float64
}

// worldInverse caches transform.World's inverse, refreshed alongside
// it by the transform-update step.
type worldInverse struct {
	Value transform.Packed
}

// massDirtyFlag marks a body whose Shape/Density changed (or was just
// created) since Mass was last refreshed.
type massDirtyFlag struct{}

// transformDirtyFlag marks a body whose Local/Parent changed (or was
// just created) since transform.World/worldInverse were last
// refreshed.
type transformDirtyFlag struct{}

// transformUpdatedFlag is set for every body whose World was
// refreshed this tick, and cleared at the end of the tick. Broadphase
// rebuild and narrowphase both read it to limit work to bodies that
// could plausibly have moved.
type transformUpdatedFlag struct{}

// hasBroadphaseKeyFlag distinguishes "this body already owns a grid
// handle, so rebuild should update it" from "this body needs its
// first insert".
type hasBroadphaseKeyFlag struct{}

// contactEpoch carries no data; its sole purpose is an access-set token
// ordering constraint assembly after narrowphase, since contact
// manifolds live in World.contacts (an external map) rather than a row
// the access-set machinery can otherwise see.
type contactEpoch struct{}

// BodySchema returns the row factories a table must declare to
// participate in the physics world: compose it with a table's own
// gameplay rows when calling table.NewSchema.
func BodySchema() []table.RowFactory {
	return []table.RowFactory{
		table.Dense[Shape](),
		table.Dense[Density](),
		table.Dense[Velocity](),
		table.Dense[Mass](),
		table.Dense[transform.Local](),
		table.Dense[transform.Parent](),
		table.Dense[transform.World](),
		table.Dense[worldInverse](),
		table.Dense[grid.AABB](),
		table.Dense[grid.Key](),
		table.Sparse[massDirtyFlag](),
		table.Sparse[transformDirtyFlag](),
		table.Sparse[transformUpdatedFlag](),
		table.Sparse[hasBroadphaseKeyFlag](),
	}
}

func getDense[T any](tbl *table.Table, key table.RowKey) (*table.DenseRow[T], bool) {
	r, ok := tbl.Row(key)
	if !ok {
		return nil, false
	}
	dr, ok := r.(*table.DenseRow[T])
	return dr, ok
}

func getSparse[T any](tbl *table.Table, key table.RowKey) (*table.SparseRow[T], bool) {
	r, ok := tbl.Row(key)
	if !ok {
		return nil, false
	}
	sr, ok := r.(*table.SparseRow[T])
	return sr, ok
}
