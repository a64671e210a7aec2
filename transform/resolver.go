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

package transform

import (
	"errors"
	"fmt"

	"github.com/dofsim/engine/refs"
	"github.com/dofsim/engine/table"
)

// ErrCycle is returned when a parent chain loops back on itself; a
// well-formed scene graph is always acyclic, so this indicates a bug
// in whatever assembled the Parent rows, never a runtime condition.
var ErrCycle = errors.New("transform: cyclic parent chain")

// Local is the per-element row holding an element's transform relative
// to its parent (or to the world, if Parent is absent/nil).
type Local struct {
	Value Packed
}

// Parent is the per-element row naming the element this one is
// positioned relative to. A nil/zero Ref means "no parent, Local is
// already world space".
type Parent struct {
	Ref refs.Ref
}

// World caches the last resolved world-space transform for an
// element, grounded on the original's WorldTransformRow.
type World struct {
	Value Packed
}

func localKey() table.RowKey  { return table.DenseKey[Local]() }
func parentKey() table.RowKey { return table.DenseKey[Parent]() }

func getDense[T any](tab *table.Table, key table.RowKey) (*table.DenseRow[T], bool) {
	r, ok := tab.Row(key)
	if !ok {
		return nil, false
	}
	dr, ok := r.(*table.DenseRow[T])
	return dr, ok
}

// Resolver composes the world-space transform of an element by
// walking its Parent chain, grounded on the original's
// TransformResolver contract: world = parent.world * local.
type Resolver struct {
	db *table.Database
}

// NewResolver returns a Resolver reading rows from db.
func NewResolver(db *table.Database) *Resolver { return &Resolver{db: db} }

// Resolve returns the world-space transform of ref, composing through
// every ancestor named by a Parent row. Elements with no Local row are
// treated as Identity; elements with no Parent row (or a nil Parent
// Ref) terminate the chain.
func (rv *Resolver) Resolve(ref refs.Ref) (Packed, error) {
	chain := make([]Packed, 0, 4)
	visited := make(map[refs.Ref]struct{}, 4)
	cur := ref
	for {
		if cur.IsNil() {
			break
		}
		if _, seen := visited[cur]; seen {
			return Identity, fmt.Errorf("transform: resolve %s: %w", ref, ErrCycle)
		}
		visited[cur] = struct{}{}

		loc, ok := rv.db.Resolver().TryUnpack(cur)
		if !ok {
			return Identity, fmt.Errorf("transform: resolve %s: stale parent reference", ref)
		}
		tab, ok := rv.db.Table(loc.Table)
		if !ok {
			break
		}
		local := Identity
		if ldr, ok := getDense[Local](tab, localKey()); ok && loc.Index < ldr.Len() {
			local = ldr.At(loc.Index).Value
		}
		chain = append(chain, local)

		var next refs.Ref
		if pdr, ok := getDense[Parent](tab, parentKey()); ok && loc.Index < pdr.Len() {
			next = pdr.At(loc.Index).Ref
		}
		cur = next
	}

	world := Identity
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Mul(chain[i])
	}
	return world, nil
}

// ResolvePair returns both the resolved world transform and its
// inverse, matching the original's TransformPair (modelToWorld,
// worldToModel).
func (rv *Resolver) ResolvePair(ref refs.Ref) (world, worldInverse Packed, err error) {
	world, err = rv.Resolve(ref)
	if err != nil {
		return Identity, Identity, err
	}
	return world, world.Inverse(), nil
}
