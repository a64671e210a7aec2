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

package physics

import (
	"fmt"
	"math"

	"github.com/dofsim/engine/config"
	"github.com/dofsim/engine/physics/grid"
	"github.com/dofsim/engine/physics/mass"
	"github.com/dofsim/engine/physics/narrowphase"
	"github.com/dofsim/engine/physics/solver"
	"github.com/dofsim/engine/query"
	"github.com/dofsim/engine/refs"
	"github.com/dofsim/engine/scheduler"
	"github.com/dofsim/engine/table"
	"github.com/dofsim/engine/transform"
)

// pairKey canonically orders two colliding elements so a pair's
// manifold/warm-start state survives regardless of which Key the grid
// reports first on a given tick.
type pairKey struct{ A, B refs.Ref }

func canonicalPair(a, b refs.Ref) pairKey {
	if a <= b {
		return pairKey{A: a, B: b}
	}
	return pairKey{A: b, B: a}
}

// contactPoint is one manifold point's warm-start state, carried across
// ticks for as long as the pair keeps producing a same-length manifold.
type contactPoint struct {
	normalLambda   float64
	frictionLambda float64
}

type pairState struct {
	manifold narrowphase.Manifold
	points   []contactPoint
}

// World is the physics orchestration module (component C8): it owns the
// broadphase grid and contact cache external to the table database, and
// assembles the per-tick scheduler graph that drives every registered
// body table from raw events through a solved, integrated state.
type World struct {
	db       *table.Database
	resolver *transform.Resolver
	grid     *grid.Grid
	cfg      config.Config

	keyToRef map[grid.Key]refs.Ref
	contacts map[pairKey]*pairState
}

// NewWorld returns a World operating over db, with a broadphase grid
// sized from cfg.Broadphase.
func NewWorld(db *table.Database, cfg config.Config) *World {
	return &World{
		db:       db,
		resolver: transform.NewResolver(db),
		grid: grid.New(grid.Config{
			OriginX:    cfg.Broadphase.OriginX,
			OriginY:    cfg.Broadphase.OriginY,
			CellSizeX:  cfg.Broadphase.CellSizeX,
			CellSizeY:  cfg.Broadphase.CellSizeY,
			CellCountX: cfg.Broadphase.CellCountX,
			CellCountY: cfg.Broadphase.CellCountY,
			Padding:    cfg.Broadphase.Padding,
		}),
		cfg:      cfg,
		keyToRef: make(map[grid.Key]refs.Ref),
		contacts: make(map[pairKey]*pairState),
	}
}

type bodyLoc struct {
	tbl   *table.Table
	index int
}

func (w *World) locate(ref refs.Ref) (bodyLoc, bool) {
	loc, ok := w.db.Resolver().TryUnpack(ref)
	if !ok {
		return bodyLoc{}, false
	}
	tbl, ok := w.db.Table(loc.Table)
	if !ok {
		return bodyLoc{}, false
	}
	return bodyLoc{tbl: tbl, index: loc.Index}, true
}

func bodyTables(db *table.Database) []refs.TableID {
	return query.Match(db, table.DenseKey[Shape](), table.DenseKey[Mass](), table.DenseKey[Velocity]())
}

// Nodes returns this tick's scheduler graph: event intake, then mass
// refresh running concurrently with transform propagation, then
// broadphase rebuild, narrowphase, constraint assembly/solve/integrate,
// and finally event/flag clearing. dt is the fixed timestep this tick
// integrates over.
func (w *World) Nodes(dt float64) []scheduler.Node {
	return []scheduler.Node{
		w.nodePreProcessEvents(),
		w.nodeRefreshMass(),
		w.nodeUpdateTransforms(),
		w.nodeRebuildBroadphase(),
		w.nodeRunNarrowphase(),
		w.nodeSolveAndIntegrate(dt),
		w.nodeClearEvents(),
	}
}

// nodePreProcessEvents marks every freshly created or moved-in body
// dirty for both mass refresh and transform propagation, mirroring the
// module lifecycle's preProcessEvents phase.
func (w *World) nodePreProcessEvents() scheduler.Node {
	return scheduler.Node{
		Name: "physics.preProcessEvents",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Access: query.AccessSet{
			Writes: []table.RowKey{
				table.SparseKey[massDirtyFlag](),
				table.SparseKey[transformDirtyFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			for _, id := range bodyTables(w.db) {
				tbl, _ := w.db.Table(id)
				massDirty, ok1 := getSparse[massDirtyFlag](tbl, table.SparseKey[massDirtyFlag]())
				transformDirty, ok2 := getSparse[transformDirtyFlag](tbl, table.SparseKey[transformDirtyFlag]())
				if !ok1 || !ok2 {
					continue
				}
				var created []int
				tbl.Events().Range(func(index int, ev table.ElementEvent) {
					if ev.Kind == table.EventCreate || ev.Kind == table.EventMove {
						created = append(created, index)
					}
				})
				for _, index := range created {
					massDirty.Set(index, massDirtyFlag{})
					transformDirty.Set(index, transformDirtyFlag{})
				}
			}
			return nil
		},
	}
}

// nodeRefreshMass recomputes Mass for every body whose Shape or Density
// changed since the last refresh.
func (w *World) nodeRefreshMass() scheduler.Node {
	return scheduler.Node{
		Name: "physics.refreshMass",
		Access: query.AccessSet{
			Reads: []table.RowKey{
				table.DenseKey[Shape](),
				table.DenseKey[Density](),
			},
			Writes: []table.RowKey{
				table.DenseKey[Mass](),
				table.SparseKey[massDirtyFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			for _, id := range bodyTables(w.db) {
				tbl, _ := w.db.Table(id)
				shapes, ok1 := getDense[Shape](tbl, table.DenseKey[Shape]())
				densities, ok2 := getDense[Density](tbl, table.DenseKey[Density]())
				masses, ok3 := getDense[Mass](tbl, table.DenseKey[Mass]())
				dirty, ok4 := getSparse[massDirtyFlag](tbl, table.SparseKey[massDirtyFlag]())
				if !ok1 || !ok2 || !ok3 || !ok4 {
					continue
				}
				var indices []int
				dirty.Range(func(index int, _ massDirtyFlag) { indices = append(indices, index) })
				for _, index := range indices {
					mesh := narrowphase.Classify(shapes.At(index).Local)
					*masses.At(index) = Mass{Props: mass.Mesh(mesh.Points, mesh.Radius, densities.At(index).Value)}
					dirty.Delete(index)
				}
			}
			return nil
		},
	}
}

// nodeUpdateTransforms resolves World (and its inverse) for every body
// whose Local or Parent changed, via the shared transform.Resolver.
func (w *World) nodeUpdateTransforms() scheduler.Node {
	return scheduler.Node{
		Name: "physics.updateTransforms",
		Access: query.AccessSet{
			Reads: []table.RowKey{
				table.DenseKey[transform.Local](),
				table.DenseKey[transform.Parent](),
			},
			Writes: []table.RowKey{
				table.DenseKey[transform.World](),
				table.DenseKey[worldInverse](),
				table.SparseKey[transformDirtyFlag](),
				table.SparseKey[transformUpdatedFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			for _, id := range bodyTables(w.db) {
				tbl, _ := w.db.Table(id)
				worlds, ok1 := getDense[transform.World](tbl, table.DenseKey[transform.World]())
				inverses, ok2 := getDense[worldInverse](tbl, table.DenseKey[worldInverse]())
				dirty, ok3 := getSparse[transformDirtyFlag](tbl, table.SparseKey[transformDirtyFlag]())
				updated, ok4 := getSparse[transformUpdatedFlag](tbl, table.SparseKey[transformUpdatedFlag]())
				if !ok1 || !ok2 || !ok3 || !ok4 {
					continue
				}
				stableID := tbl.StableID()

				var indices []int
				dirty.Range(func(index int, _ transformDirtyFlag) { indices = append(indices, index) })
				for _, index := range indices {
					ref := *stableID.At(index)
					wpacked, err := w.resolver.Resolve(ref)
					if err != nil {
						return fmt.Errorf("physics: update transforms: %w", err)
					}
					*worlds.At(index) = transform.World{Value: wpacked}
					*inverses.At(index) = worldInverse{Value: wpacked.Inverse()}
					updated.Set(index, transformUpdatedFlag{})
					dirty.Delete(index)
				}
			}
			return nil
		},
	}
}

func worldAABBOf(mesh narrowphase.Mesh, w transform.Packed) grid.AABB {
	if len(mesh.Points) == 0 {
		x, y := w.Pos2()
		return grid.AABB{MinX: x - mesh.Radius, MinY: y - mesh.Radius, MaxX: x + mesh.Radius, MaxY: y + mesh.Radius}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range mesh.Points {
		wx, wy := w.TransformPoint2(p[0], p[1])
		minX, minY = math.Min(minX, wx), math.Min(minY, wy)
		maxX, maxY = math.Max(maxX, wx), math.Max(maxY, wy)
	}
	return grid.AABB{
		MinX: minX - mesh.Radius, MinY: minY - mesh.Radius,
		MaxX: maxX + mesh.Radius, MaxY: maxY + mesh.Radius,
	}
}

// nodeRebuildBroadphase recomputes the world-space AABB of every body
// whose transform was updated this tick, and inserts/updates it in the
// shared Grid. Pinned to the main thread: the Grid and keyToRef are
// plain maps, not safe for concurrent mutation across partitions.
func (w *World) nodeRebuildBroadphase() scheduler.Node {
	return scheduler.Node{
		Name: "physics.rebuildBroadphase",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Access: query.AccessSet{
			Reads: []table.RowKey{
				table.DenseKey[Shape](),
				table.DenseKey[transform.World](),
				table.SparseKey[transformUpdatedFlag](),
			},
			Writes: []table.RowKey{
				table.DenseKey[grid.AABB](),
				table.DenseKey[grid.Key](),
				table.SparseKey[hasBroadphaseKeyFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			for _, id := range bodyTables(w.db) {
				tbl, _ := w.db.Table(id)
				shapes, ok1 := getDense[Shape](tbl, table.DenseKey[Shape]())
				worlds, ok2 := getDense[transform.World](tbl, table.DenseKey[transform.World]())
				aabbs, ok3 := getDense[grid.AABB](tbl, table.DenseKey[grid.AABB]())
				keys, ok4 := getDense[grid.Key](tbl, table.DenseKey[grid.Key]())
				updated, ok5 := getSparse[transformUpdatedFlag](tbl, table.SparseKey[transformUpdatedFlag]())
				hasKey, ok6 := getSparse[hasBroadphaseKeyFlag](tbl, table.SparseKey[hasBroadphaseKeyFlag]())
				if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
					continue
				}
				stableID := tbl.StableID()

				var indices []int
				updated.Range(func(index int, _ transformUpdatedFlag) { indices = append(indices, index) })
				for _, index := range indices {
					mesh := narrowphase.Classify(shapes.At(index).Local)
					aabb := worldAABBOf(mesh, worlds.At(index).Value)
					*aabbs.At(index) = aabb

					if _, ok := hasKey.Get(index); ok {
						w.grid.Update(*keys.At(index), aabb)
						continue
					}
					key := w.grid.Insert(aabb)
					*keys.At(index) = key
					hasKey.Set(index, hasBroadphaseKeyFlag{})
					w.keyToRef[key] = *stableID.At(index)
				}
			}
			return nil
		},
	}
}

func packedToTransform2(p transform.Packed) narrowphase.Transform2 {
	return narrowphase.Transform2{AX: p.AX, AY: p.AY, BX: p.BX, BY: p.BY, TX: p.TX, TY: p.TY}
}

// nodeRunNarrowphase recomputes the contact manifold for every
// candidate pair the grid currently reports, but skips a pair entirely
// when neither of its two elements moved this tick: its last manifold
// (and warm-start state) is simply carried over. Pinned to the main
// thread since it both reads the Grid and mutates World.contacts.
func (w *World) nodeRunNarrowphase() scheduler.Node {
	return scheduler.Node{
		Name: "physics.narrowphase",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Access: query.AccessSet{
			Reads: []table.RowKey{
				table.DenseKey[Shape](),
				table.DenseKey[transform.World](),
				table.SparseKey[transformUpdatedFlag](),
				table.DenseKey[grid.Key](),
			},
			Writes: []table.RowKey{
				table.DenseKey[contactEpoch](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			live := make(map[pairKey]bool)
			for _, p := range w.grid.EnumeratePairs() {
				refA, okA := w.keyToRef[p.A]
				refB, okB := w.keyToRef[p.B]
				if !okA || !okB {
					continue
				}
				key := canonicalPair(refA, refB)
				live[key] = true

				// Always classify/transform in key.A/key.B order (not
				// the grid pair's arbitrary p.A/p.B order), so the
				// manifold's "Normal points from B toward A" contract
				// is meaningful relative to the same key every tick —
				// required for warm-start continuity and for
				// solveContacts to interpret Normal correctly.
				locA, okA2 := w.locate(key.A)
				locB, okB2 := w.locate(key.B)
				if !okA2 || !okB2 {
					continue
				}

				shapesA, _ := getDense[Shape](locA.tbl, table.DenseKey[Shape]())
				shapesB, _ := getDense[Shape](locB.tbl, table.DenseKey[Shape]())
				worldsA, _ := getDense[transform.World](locA.tbl, table.DenseKey[transform.World]())
				worldsB, _ := getDense[transform.World](locB.tbl, table.DenseKey[transform.World]())
				updatedA, _ := getSparse[transformUpdatedFlag](locA.tbl, table.SparseKey[transformUpdatedFlag]())
				updatedB, _ := getSparse[transformUpdatedFlag](locB.tbl, table.SparseKey[transformUpdatedFlag]())

				_, aMoved := updatedA.Get(locA.index)
				_, bMoved := updatedB.Get(locB.index)
				if _, existed := w.contacts[key]; existed && !aMoved && !bMoved {
					continue
				}

				meshA := narrowphase.Classify(shapesA.At(locA.index).Local)
				meshB := narrowphase.Classify(shapesB.At(locB.index).Local)
				ta := packedToTransform2(worldsA.At(locA.index).Value)
				tb := packedToTransform2(worldsB.At(locB.index).Value)

				manifold := narrowphase.Collide(meshA, meshB, ta, tb, narrowphase.DefaultEdgeEpsilon, 0)
				w.storeManifold(key, manifold)
			}
			for key := range w.contacts {
				if !live[key] {
					delete(w.contacts, key)
				}
			}
			return nil
		},
	}
}

func (w *World) storeManifold(key pairKey, m narrowphase.Manifold) {
	st, ok := w.contacts[key]
	if !ok || len(st.points) != len(m.Points) {
		st = &pairState{points: make([]contactPoint, len(m.Points))}
	}
	st.manifold = m
	w.contacts[key] = st
}

// nodeSolveAndIntegrate assembles a PGS constraint for every current
// manifold point (a non-penetration row plus a friction row bounded by
// the previous tick's normal impulse), solves them, writes the result
// back to Velocity, then integrates every body's position/orientation
// and applies configured drag. Pinned to the main thread: constraint
// assembly walks World.contacts, external map state shared across all
// tables in this tick.
func (w *World) nodeSolveAndIntegrate(dt float64) scheduler.Node {
	return scheduler.Node{
		Name: "physics.solveAndIntegrate",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Access: query.AccessSet{
			Reads: []table.RowKey{
				table.DenseKey[Mass](),
				table.DenseKey[transform.World](),
				table.DenseKey[contactEpoch](),
			},
			Writes: []table.RowKey{
				table.DenseKey[Velocity](),
				table.DenseKey[transform.Local](),
				table.SparseKey[transformDirtyFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			if err := w.solveContacts(); err != nil {
				return err
			}
			w.integrate(dt)
			return nil
		},
	}
}

type constraintKind int

const (
	kindNormal constraintKind = iota
	kindFriction
)

type participant struct {
	loc   bodyLoc
	props mass.Props
	world transform.Packed
}

type jacobianRow struct {
	mapA, mapB uint32
	rowA, rowB [3]float64
	bias       float64
	min, max   float64
	warm       float64
	pairKey    pairKey
	pointIndex int
	kind       constraintKind
}

func isInfinite(p mass.Props) bool { return p.InverseMass == 0 && p.InverseInertia == 0 }

func (w *World) solveContacts() error {
	index := map[refs.Ref]uint32{}
	var participants []participant

	ensure := func(ref refs.Ref) (uint32, bool) {
		if idx, ok := index[ref]; ok {
			return idx, true
		}
		loc, ok := w.locate(ref)
		if !ok {
			return 0, false
		}
		massesRow, ok1 := getDense[Mass](loc.tbl, table.DenseKey[Mass]())
		worldsRow, ok2 := getDense[transform.World](loc.tbl, table.DenseKey[transform.World]())
		if !ok1 || !ok2 {
			return 0, false
		}
		idx := uint32(len(participants))
		participants = append(participants, participant{
			loc:   loc,
			props: massesRow.At(loc.index).Props,
			world: worldsRow.At(loc.index).Value,
		})
		index[ref] = idx
		return idx, true
	}

	var rows []jacobianRow
	for key, st := range w.contacts {
		if len(st.manifold.Points) == 0 {
			continue
		}
		for pi, cp := range st.manifold.Points {
			idxA, okA := ensure(key.A)
			idxB, okB := ensure(key.B)
			if !okA || !okB {
				continue
			}
			pa, pb := participants[idxA], participants[idxB]
			infA, infB := isInfinite(pa.props), isInfinite(pb.props)
			if infA && infB {
				continue
			}

			mapA, mapB := idxA, idxB
			// d points from mapA's body toward mapB's body along the
			// separating axis; manifold.Normal points the other way
			// (from B toward A), hence the negation.
			normal := [2]float64{-st.manifold.Normal[0], -st.manifold.Normal[1]}
			if infB && !infA {
				mapA, mapB = idxB, idxA
				pa, pb = pb, pa
				infA, infB = infB, infA
				normal = [2]float64{-normal[0], -normal[1]}
			}

			cxA, cyA := pa.world.Pos2()
			cxB, cyB := pb.world.Pos2()
			rA := [2]float64{cp.Position[0] - cxA, cp.Position[1] - cyA}
			rB := [2]float64{cp.Position[0] - cxB, cp.Position[1] - cyB}

			n := normal
			rowNA := [3]float64{-n[0], -n[1], -(rA[0]*n[1] - rA[1]*n[0])}
			rowNB := [3]float64{n[0], n[1], rB[0]*n[1] - rB[1]*n[0]}

			solvA, solvB := mapA, mapB
			if infA {
				solvA = solver.InfiniteMass
			}
			if infB {
				solvB = solver.InfiniteMass
			}

			rows = append(rows, jacobianRow{
				mapA: solvA, mapB: solvB, rowA: rowNA, rowB: rowNB,
				min: 0, max: math.Inf(1),
				warm: st.points[pi].normalLambda,
				pairKey: key, pointIndex: pi, kind: kindNormal,
			})

			t := [2]float64{-n[1], n[0]}
			rowFA := [3]float64{-t[0], -t[1], -(rA[0]*t[1] - rA[1]*t[0])}
			rowFB := [3]float64{t[0], t[1], rB[0]*t[1] - rB[1]*t[0]}
			maxFriction := w.cfg.Physics.FrictionCoeff * math.Max(0, st.points[pi].normalLambda)

			rows = append(rows, jacobianRow{
				mapA: solvA, mapB: solvB, rowA: rowFA, rowB: rowFB,
				min: -maxFriction, max: maxFriction,
				warm: st.points[pi].frictionLambda,
				pairKey: key, pointIndex: pi, kind: kindFriction,
			})
		}
	}

	if len(rows) == 0 {
		return nil
	}

	var sv solver.Solver
	sv.Resize(len(participants), len(rows))
	for i, p := range participants {
		sv.SetMass(i, p.props.InverseMass, p.props.InverseMass, p.props.InverseInertia)
		velRow, ok := getDense[Velocity](p.loc.tbl, table.DenseKey[Velocity]())
		if !ok {
			continue
		}
		v := velRow.At(p.loc.index)
		sv.SetVelocity(i, v.VX, v.VY, v.Angular)
	}
	for i, r := range rows {
		sv.SetJacobian(i, r.mapA, r.mapB, r.rowA, r.rowB)
		sv.SetBias(i, r.bias)
		sv.SetLambdaBounds(i, r.min, r.max)
		sv.SetWarmStart(i, r.warm)
	}
	sv.Premultiply()
	sv.WarmStart()
	sv.Solve(w.cfg.Solver.MaxIterations, w.cfg.Solver.MaxLambda)

	for i, p := range participants {
		velRow, ok := getDense[Velocity](p.loc.tbl, table.DenseKey[Velocity]())
		if !ok {
			continue
		}
		vx, vy, va := sv.Velocity(i)
		*velRow.At(p.loc.index) = Velocity{VX: vx, VY: vy, Angular: va}
	}
	for i, r := range rows {
		st, ok := w.contacts[r.pairKey]
		if !ok || r.pointIndex >= len(st.points) {
			continue
		}
		if r.kind == kindNormal {
			st.points[r.pointIndex].normalLambda = sv.Lambda(i)
		} else {
			st.points[r.pointIndex].frictionLambda = sv.Lambda(i)
		}
	}
	return nil
}

// integrate applies configured drag to every body's velocity, then
// advances Local by that velocity over dt. Bodies left untouched (zero
// velocity after drag) are skipped so transformDirtyFlag is only set
// where something actually moved.
func (w *World) integrate(dt float64) {
	for _, id := range bodyTables(w.db) {
		tbl, _ := w.db.Table(id)
		velRow, ok1 := getDense[Velocity](tbl, table.DenseKey[Velocity]())
		localRow, ok2 := getDense[transform.Local](tbl, table.DenseKey[transform.Local]())
		dirty, ok3 := getSparse[transformDirtyFlag](tbl, table.SparseKey[transformDirtyFlag]())
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		for i := 0; i < velRow.Len(); i++ {
			v := velRow.At(i)
			v.VX *= w.cfg.Physics.LinearDragMultiplier
			v.VY *= w.cfg.Physics.LinearDragMultiplier
			v.Angular *= w.cfg.Physics.AngularDragMultiplier
			if v.VX == 0 && v.VY == 0 && v.Angular == 0 {
				continue
			}

			local := localRow.At(i)
			parts := local.Value.Decompose()
			parts.TX += v.VX * dt
			parts.TY += v.VY * dt
			if v.Angular != 0 {
				da := v.Angular * dt
				cos, sin := math.Cos(da), math.Sin(da)
				rx, ry := parts.RotX, parts.RotY
				parts.RotX = rx*cos - ry*sin
				parts.RotY = rx*sin + ry*cos
			}
			local.Value = transform.Build(parts)
			dirty.Set(i, transformDirtyFlag{})
		}
	}
}

// nodeClearEvents empties every body table's event row and clears
// transformUpdatedFlag, completing the module lifecycle's
// postProcessEvents phase.
func (w *World) nodeClearEvents() scheduler.Node {
	return scheduler.Node{
		Name: "physics.clearEvents",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Access: query.AccessSet{
			Writes: []table.RowKey{
				table.SparseKey[transformUpdatedFlag](),
			},
		},
		Run: func(scheduler.TaskArgs) error {
			for _, id := range bodyTables(w.db) {
				tbl, _ := w.db.Table(id)
				tbl.Events().Clear()
				if updated, ok := getSparse[transformUpdatedFlag](tbl, table.SparseKey[transformUpdatedFlag]()); ok {
					updated.Clear()
				}
			}
			return nil
		},
	}
}
