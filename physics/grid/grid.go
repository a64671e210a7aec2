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

// Package grid implements the broadphase: a uniform 2-D grid that
// stamps AABBs into overlapping cells and enumerates candidate
// colliding pairs. Cell keys are hashed with github.com/dchest/siphash,
// giving a stable, non-adversarial-degenerate bucket distribution for
// the grid's internal cell map.
package grid

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"
)

// Fixed siphash key pair; the values themselves carry no meaning
// beyond seeding the hash, only their stability across runs matters.
const (
	hashKey0 = uint64(0x5d1ec810)
	hashKey1 = uint64(0xfebed702)
)

// Key identifies a collider previously inserted into a Grid. It is an
// opaque, monotonically assigned handle: removed keys are never
// reused within the lifetime of a Grid.
type Key uint32

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// Config describes the grid's fixed region and cell layout.
type Config struct {
	OriginX, OriginY       float64
	CellSizeX, CellSizeY   float64
	CellCountX, CellCountY int
	// Padding expands every AABB by this amount on each axis before
	// computing overlapped cells, so near-miss colliders are still
	// considered candidates the narrowphase can reject cheaply.
	Padding float64
}

type entry struct {
	aabb  AABB
	cells []uint64
}

type cellBucket struct {
	cx, cy int
	keys   []Key
}

// Grid is a uniform broadphase grid over Config's region.
type Grid struct {
	cfg     Config
	entries map[Key]*entry
	buckets map[uint64][]*cellBucket
	nextKey Key
}

// New returns an empty Grid configured by cfg.
func New(cfg Config) *Grid {
	return &Grid{
		cfg:     cfg,
		entries: make(map[Key]*entry),
		buckets: make(map[uint64][]*cellBucket),
	}
}

func cellHash(cx, cy int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(cx))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(cy))
	return siphash.Hash(hashKey0, hashKey1, buf[:])
}

func (g *Grid) ensureBucket(h uint64, cx, cy int) {
	for _, b := range g.buckets[h] {
		if b.cx == cx && b.cy == cy {
			return
		}
	}
	g.buckets[h] = append(g.buckets[h], &cellBucket{cx: cx, cy: cy})
}

func (g *Grid) bucketFor(h uint64, cx, cy int) *cellBucket {
	for _, b := range g.buckets[h] {
		if b.cx == cx && b.cy == cy {
			return b
		}
	}
	return nil
}

// Insert stamps aabb into every cell it overlaps and returns a Key
// identifying it for future Update/Remove calls. A fully out-of-region
// AABB is still assigned a Key but occupies no cells, so it never
// participates in any pair.
func (g *Grid) Insert(aabb AABB) Key {
	key := g.nextKey
	g.nextKey++

	cellsWithCoords := g.cellCoordsWithCoords(aabb)
	e := &entry{aabb: aabb}
	for _, cc := range cellsWithCoords {
		b := g.bucketFor(cc.hash, cc.cx, cc.cy)
		b.keys = append(b.keys, key)
		e.cells = append(e.cells, cc.hash)
	}
	g.entries[key] = e
	return key
}

type cellCoord struct {
	hash   uint64
	cx, cy int
}

func (g *Grid) cellCoordsWithCoords(a AABB) []cellCoord {
	minX, minY := a.MinX-g.cfg.Padding, a.MinY-g.cfg.Padding
	maxX, maxY := a.MaxX+g.cfg.Padding, a.MaxY+g.cfg.Padding

	cx0 := int(math.Floor((minX - g.cfg.OriginX) / g.cfg.CellSizeX))
	cx1 := int(math.Floor((maxX - g.cfg.OriginX) / g.cfg.CellSizeX))
	cy0 := int(math.Floor((minY - g.cfg.OriginY) / g.cfg.CellSizeY))
	cy1 := int(math.Floor((maxY - g.cfg.OriginY) / g.cfg.CellSizeY))

	if cx1 < 0 || cy1 < 0 || cx0 >= g.cfg.CellCountX || cy0 >= g.cfg.CellCountY {
		return nil
	}
	if cx0 < 0 {
		cx0 = 0
	}
	if cy0 < 0 {
		cy0 = 0
	}
	if cx1 >= g.cfg.CellCountX {
		cx1 = g.cfg.CellCountX - 1
	}
	if cy1 >= g.cfg.CellCountY {
		cy1 = g.cfg.CellCountY - 1
	}

	var out []cellCoord
	for cy := cy0; cy <= cy1; cy++ {
		for cx := cx0; cx <= cx1; cx++ {
			h := cellHash(cx, cy)
			g.ensureBucket(h, cx, cy)
			out = append(out, cellCoord{hash: h, cx: cx, cy: cy})
		}
	}
	return out
}

// Remove erases key from every cell it currently occupies.
func (g *Grid) Remove(key Key) {
	e, ok := g.entries[key]
	if !ok {
		return
	}
	for _, h := range e.cells {
		// cx/cy aren't stored on entry directly; buckets are looked up
		// by hash, and within a bucket list every entry sharing h is
		// checked, so a hash collision between two distinct cells
		// cannot misroute a removal.
		for _, b := range g.buckets[h] {
			for i, k := range b.keys {
				if k == key {
					b.keys = append(b.keys[:i], b.keys[i+1:]...)
					break
				}
			}
		}
	}
	delete(g.entries, key)
}

// Update moves key to newAABB: cells no longer overlapped are cleared,
// newly overlapped cells gain it, and unchanged cells are left alone.
func (g *Grid) Update(key Key, newAABB AABB) {
	e, ok := g.entries[key]
	if !ok {
		return
	}
	newCoords := g.cellCoordsWithCoords(newAABB)
	newSet := make(map[uint64]bool, len(newCoords))
	for _, cc := range newCoords {
		newSet[cc.hash] = true
	}
	oldSet := make(map[uint64]bool, len(e.cells))
	for _, h := range e.cells {
		oldSet[h] = true
	}

	for _, h := range e.cells {
		if !newSet[h] {
			for _, b := range g.buckets[h] {
				for i, k := range b.keys {
					if k == key {
						b.keys = append(b.keys[:i], b.keys[i+1:]...)
						break
					}
				}
			}
		}
	}
	for _, cc := range newCoords {
		if !oldSet[cc.hash] {
			b := g.bucketFor(cc.hash, cc.cx, cc.cy)
			b.keys = append(b.keys, key)
		}
	}

	e.aabb = newAABB
	e.cells = e.cells[:0]
	for _, cc := range newCoords {
		e.cells = append(e.cells, cc.hash)
	}
}

// Pair is one unordered candidate collider pair.
type Pair struct{ A, B Key }

func canonical(a, b Key) Pair {
	if a <= b {
		return Pair{a, b}
	}
	return Pair{b, a}
}

// EnumeratePairs returns every unordered key pair found together in at
// least one cell, each exactly once, regardless of how many cells they
// share.
func (g *Grid) EnumeratePairs() []Pair {
	visited := make(map[Pair]bool)
	var out []Pair
	for _, list := range g.buckets {
		for _, b := range list {
			n := len(b.keys)
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					p := canonical(b.keys[i], b.keys[j])
					if visited[p] {
						continue
					}
					visited[p] = true
					out = append(out, p)
				}
			}
		}
	}
	return out
}
