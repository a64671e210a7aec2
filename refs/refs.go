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

// Package refs implements the element reference and ID resolver: the
// stable, opaque identity that lets table rows move between tables and
// across swap-removes without callers holding onto raw indices.
package refs

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TableID identifies a registered table within a Resolver.
type TableID uint32

// Ref is a 64-bit logical handle composed of a generation counter and a
// slot index. Only a Resolver can unpack it into a concrete location;
// everyone else treats it as an opaque token that can be freely copied.
type Ref uint64

const (
	slotBits       = 32
	slotMask       = 1<<slotBits - 1
	generationBits = 64 - slotBits
)

func pack(slot uint32, generation uint32) Ref {
	return Ref(uint64(generation)<<slotBits | uint64(slot))
}

func (r Ref) slot() uint32 {
	return uint32(r & slotMask)
}

func (r Ref) generation() uint32 {
	return uint32(r >> slotBits)
}

// IsNil reports whether r is the zero value, which never refers to a
// live element.
func (r Ref) IsNil() bool {
	return r == 0
}

// String renders r as a UUID-like diagnostic token so logs and test
// failures have a stable, greppable representation distinct from the
// packed integer. It is purely cosmetic: two Refs with the same
// (generation, slot) always render identically, and the rendering is
// never parsed back into a Ref.
func (r Ref) String() string {
	var b [16]byte
	gen := r.generation()
	slot := r.slot()
	b[0], b[1], b[2], b[3] = byte(gen>>24), byte(gen>>16), byte(gen>>8), byte(gen)
	b[4], b[5], b[6], b[7] = byte(slot>>24), byte(slot>>16), byte(slot>>8), byte(slot)
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		// FromBytes only fails on a length mismatch, which cannot
		// happen here.
		return fmt.Sprintf("ref(gen=%d,slot=%d)", gen, slot)
	}
	return id.String()
}

// Location is the concrete, resolved position of an element: the table
// that owns it and its index within that table's rows.
type Location struct {
	Table TableID
	Index int
}

type slotEntry struct {
	generation uint32
	loc        Location
	live       bool
}

// Resolver owns the global mapping from Ref to Location. It is the only
// component that may unpack a Ref; all mutation happens through
// Create/Relocate/Release so the generation counter and slot reuse stay
// consistent.
//
// Resolver is safe for concurrent use. Per the scheduler's access-set
// discipline (see package scheduler), the resolver is treated as
// read-only during a tick, so the write lock below is rarely contended
// in practice.
type Resolver struct {
	mu      sync.RWMutex
	slots   []slotEntry
	freelist []uint32
}

// New returns an empty Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Create allocates a fresh Ref pointing at loc. It reuses a freed slot
// when one is available, with the generation that Release already
// bumped, so any stale Ref referring to the slot's previous occupant
// does not resolve.
func (r *Resolver) Create(loc Location) Ref {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.freelist); n > 0 {
		slot := r.freelist[n-1]
		r.freelist = r.freelist[:n-1]
		e := &r.slots[slot]
		e.loc = loc
		e.live = true
		return pack(slot, e.generation)
	}
	slot := uint32(len(r.slots))
	r.slots = append(r.slots, slotEntry{generation: 1, loc: loc, live: true})
	return pack(slot, 1)
}

// Release invalidates ref: its generation is bumped so no copy of ref
// (including ref itself) resolves afterwards, and the slot is returned to
// the freelist for reuse by a future Create.
func (r *Resolver) Release(ref Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := ref.slot()
	if int(slot) >= len(r.slots) {
		return
	}
	e := &r.slots[slot]
	if !e.live || e.generation != ref.generation() {
		return
	}
	e.live = false
	e.generation++
	e.loc = Location{}
	r.freelist = append(r.freelist, slot)
}

// Relocate updates the live location backing ref in place, used when a
// table does a swap-remove and an element's index changes without its
// identity changing (the swapped-in element keeps its Ref, only its
// Location.Index moves).
func (r *Resolver) Relocate(ref Ref, loc Location) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := ref.slot()
	if int(slot) >= len(r.slots) {
		return
	}
	e := &r.slots[slot]
	if !e.live || e.generation != ref.generation() {
		return
	}
	e.loc = loc
}

// TryUnpack returns the Location backing ref and true iff ref's
// generation still matches the slot's current generation. It never
// panics or errors: a stale or garbage ref simply yields (Location{},
// false).
func (r *Resolver) TryUnpack(ref Ref) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot := ref.slot()
	if int(slot) >= len(r.slots) {
		return Location{}, false
	}
	e := &r.slots[slot]
	if !e.live || e.generation != ref.generation() {
		return Location{}, false
	}
	return e.loc, true
}

// Unpack is a contract the caller must uphold: it panics if ref does not
// resolve. Use it only where the caller can prove ref is still live
// (e.g. immediately after Create, or while iterating a table's own
// stable-ID row).
func (r *Resolver) Unpack(ref Ref) Location {
	loc, ok := r.TryUnpack(ref)
	if !ok {
		panic(fmt.Sprintf("refs: unpack of stale or unknown reference %s", ref))
	}
	return loc
}
