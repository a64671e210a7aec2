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

package table

import "github.com/dofsim/engine/refs"

// Table is an ordered set of same-length rows plus the built-in
// stable-ID and event rows every table carries. Its schema is immutable
// after registration (see Database.Register); elements are appended to
// the tail and removed by swap-remove.
type Table struct {
	id       refs.TableID
	length   int
	capacity int // 0 means unbounded
	rows     map[RowKey]Row
	stableID *DenseRow[refs.Ref]
	events   *SparseRow[ElementEvent]
	schema   Schema
}

func newTable(id refs.TableID, schema Schema) *Table {
	t := &Table{
		id:       id,
		capacity: schema.cap,
		rows:     make(map[RowKey]Row, len(schema.factories)),
		stableID: newDenseRow[refs.Ref](),
		events:   newSparseRow[ElementEvent](),
		schema:   schema,
	}
	for _, f := range schema.factories {
		key, row := f()
		t.rows[key] = row
	}
	return t
}

// ID returns the table's identity within its owning Database.
func (t *Table) ID() refs.TableID { return t.id }

// Len returns the current element count.
func (t *Table) Len() int { return t.length }

// Row returns the row stored under key, if the schema declared one.
func (t *Table) Row(key RowKey) (Row, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// Has reports whether the table's schema includes key.
func (t *Table) Has(key RowKey) bool {
	_, ok := t.rows[key]
	return ok
}

// StableID is the built-in dense row storing the ElementRef assigned to
// each row index; every table has exactly one.
func (t *Table) StableID() *DenseRow[refs.Ref] { return t.stableID }

// Events is the built-in sparse event row. Consumers range over it
// during preProcessEvents/postProcessEvents; the clearEvents module
// empties it once every consumer has run.
func (t *Table) Events() *SparseRow[ElementEvent] { return t.events }

// RowKeys returns the table's declared row keys in schema order,
// excluding the built-in stable-ID and event rows. Used by Export and
// by diagnostics.
func (t *Table) RowKeys() []RowKey {
	out := make([]RowKey, 0, len(t.schema.factories))
	for _, f := range t.schema.factories {
		key, _ := f()
		out = append(out, key)
	}
	return out
}
