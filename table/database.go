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

// Package table implements the columnar table database: rows of
// same-typed components grouped into tables, addressed through the
// stable ElementRefs minted by package refs.
package table

import (
	"errors"
	"fmt"

	"github.com/dofsim/engine/refs"
)

// Sentinel errors returned by Database operations. They are returned
// wrapped (fmt.Errorf("...: %w", ...)) so callers can match with
// errors.Is.
var (
	// ErrOutOfCapacity is returned by AddElement/AddElements when a
	// table's configured capacity would be exceeded.
	ErrOutOfCapacity = errors.New("table: out of capacity")
	// ErrSchemaMismatch names a move between tables whose schemas do
	// not fit. MoveTo does not return it: every table carries the
	// built-in stable-ID and event rows, rows only the destination
	// declares are default-valued, and rows only the source declares
	// are discarded.
	ErrSchemaMismatch = errors.New("table: schema mismatch")
	// ErrUnknownTable is returned when a TableID does not name a
	// registered table.
	ErrUnknownTable = errors.New("table: unknown table")
	// ErrStaleReference is returned when an operation is given a Ref
	// that no longer resolves.
	ErrStaleReference = errors.New("table: stale reference")
)

// Database owns a set of registered tables and the Resolver that maps
// ElementRefs to their current table/index.
type Database struct {
	resolver *refs.Resolver
	tables   map[refs.TableID]*Table
	nextID   refs.TableID
}

// NewDatabase returns an empty Database backed by resolver.
func NewDatabase(resolver *refs.Resolver) *Database {
	return &Database{resolver: resolver, tables: make(map[refs.TableID]*Table)}
}

// Resolver returns the Database's backing Resolver.
func (db *Database) Resolver() *refs.Resolver { return db.resolver }

// Register creates a new, empty table from schema and returns its ID.
// The table's row set is fixed from this point on.
func (db *Database) Register(schema Schema) refs.TableID {
	id := db.nextID
	db.nextID++
	db.tables[id] = newTable(id, schema)
	return id
}

// Table returns the table registered under id.
func (db *Database) Table(id refs.TableID) (*Table, bool) {
	t, ok := db.tables[id]
	return t, ok
}

// TableIDs returns every registered table's ID, in no particular order.
func (db *Database) TableIDs() []refs.TableID {
	out := make([]refs.TableID, 0, len(db.tables))
	for id := range db.tables {
		out = append(out, id)
	}
	return out
}

// AddElement appends one new element to table t, assigns it a fresh
// ElementRef, and emits an EventCreate on its index.
func (db *Database) AddElement(t refs.TableID) (refs.Ref, error) {
	refsOut, err := db.AddElements(t, 1)
	if err != nil {
		return 0, err
	}
	return refsOut[0], nil
}

// AddElements appends n new elements to table t in one batch, returning
// their freshly assigned ElementRefs in index order.
func (db *Database) AddElements(t refs.TableID, n int) ([]refs.Ref, error) {
	tbl, ok := db.tables[t]
	if !ok {
		return nil, fmt.Errorf("table: add %d elements to %d: %w", n, t, ErrUnknownTable)
	}
	if tbl.capacity > 0 && tbl.length+n > tbl.capacity {
		return nil, fmt.Errorf("table: add %d elements to %d (len=%d, cap=%d): %w", n, t, tbl.length, tbl.capacity, ErrOutOfCapacity)
	}
	out := make([]refs.Ref, n)
	for _, row := range tbl.rows {
		row.grow(n)
	}
	tbl.stableID.grow(n)
	for i := 0; i < n; i++ {
		index := tbl.length
		ref := db.resolver.Create(refs.Location{Table: t, Index: index})
		*tbl.stableID.At(index) = ref
		tbl.events.Set(index, ElementEvent{Kind: EventCreate})
		out[i] = ref
		tbl.length++
	}
	return out, nil
}

// removeAt performs the swap-remove at table-local index and emits
// EventDestroy on the old tail index and, when another element was
// swapped into index, EventMove on index.
func (db *Database) removeAt(t refs.TableID, index int) error {
	tbl, ok := db.tables[t]
	if !ok {
		return fmt.Errorf("table: remove from %d: %w", t, ErrUnknownTable)
	}
	if index < 0 || index >= tbl.length {
		return fmt.Errorf("table: remove index %d out of range [0,%d)", index, tbl.length)
	}
	tail := tbl.length - 1
	removedRef := *tbl.stableID.At(index)

	for _, row := range tbl.rows {
		row.swapRemove(index, tail)
	}
	tbl.stableID.swapRemove(index, tail)
	tbl.events.swapRemove(index, tail)

	// After MoveTo the removed element's Ref already resolves into the
	// destination table; it is released only if it still points here.
	if cur, ok := db.resolver.TryUnpack(removedRef); ok && cur.Table == t {
		db.resolver.Release(removedRef)
	}
	tbl.length = tail

	tbl.events.Set(tail, ElementEvent{Kind: EventDestroy})
	if index != tail {
		movedRef := *tbl.stableID.At(index)
		db.resolver.Relocate(movedRef, refs.Location{Table: t, Index: index})
		tbl.events.Set(index, ElementEvent{Kind: EventMove})
	}
	return nil
}

// Remove swap-removes the element that ref currently identifies.
func (db *Database) Remove(ref refs.Ref) error {
	loc, ok := db.resolver.TryUnpack(ref)
	if !ok {
		return fmt.Errorf("table: remove %s: %w", ref, ErrStaleReference)
	}
	return db.removeAt(refs.TableID(loc.Table), loc.Index)
}

// MoveTo appends a new entry for ref's element in dst (default-valued
// for rows dst declares that src lacks), copies every row present in
// both tables, emits EventMove in the destination with the element's
// prior location recorded, then swap-removes the element from its
// source table.
func (db *Database) MoveTo(ref refs.Ref, dst refs.TableID) error {
	loc, ok := db.resolver.TryUnpack(ref)
	if !ok {
		return fmt.Errorf("table: moveTo %s: %w", ref, ErrStaleReference)
	}
	srcID := loc.Table
	src, ok := db.tables[srcID]
	if !ok {
		return fmt.Errorf("table: moveTo: source %d: %w", srcID, ErrUnknownTable)
	}
	dstTbl, ok := db.tables[dst]
	if !ok {
		return fmt.Errorf("table: moveTo: destination %d: %w", dst, ErrUnknownTable)
	}

	dstIndex := dstTbl.length
	for _, row := range dstTbl.rows {
		row.grow(1)
	}
	dstTbl.stableID.grow(1)
	dstTbl.length++

	for key, dstRow := range dstTbl.rows {
		if srcRow, ok := src.rows[key]; ok {
			dstRow.copyFrom(srcRow, loc.Index, dstIndex)
		}
		// rows present only in the destination keep the default
		// value grow() already assigned; rows present only in the
		// source are simply not copied (discarded).
	}

	*dstTbl.stableID.At(dstIndex) = ref
	dstTbl.events.Set(dstIndex, ElementEvent{Kind: EventMove, FromTable: srcID, FromIndex: loc.Index})
	db.resolver.Relocate(ref, refs.Location{Table: dst, Index: dstIndex})

	return db.removeAt(srcID, loc.Index)
}

// TrySingleton returns a pointer to the shared row of type T iff exactly
// one registered table contains one. It must be a free function, not a
// Database method, because Go methods cannot carry their own type
// parameters.
func TrySingleton[T any](db *Database) (*T, bool) {
	key := SharedKey[T]()
	var found *SharedRow[T]
	count := 0
	for _, t := range db.tables {
		if r, ok := t.rows[key]; ok {
			found = r.(*SharedRow[T])
			count++
			if count > 1 {
				return nil, false
			}
		}
	}
	if count != 1 {
		return nil, false
	}
	return found.Get(), true
}
