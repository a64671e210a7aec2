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

// Package query implements the query and task builder: declarative row
// access that produces typed cursors plus the access set the scheduler
// uses to infer dependency edges between tasks.
package query

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dofsim/engine/refs"
	"github.com/dofsim/engine/table"
)

// AccessMode is the declared intent behind a row alias.
type AccessMode int

const (
	// Read declares the row may be read but not mutated.
	Read AccessMode = iota
	// Write declares the row may be read and mutated.
	Write
	// SharedReadMode declares a read of a shared (singleton) row.
	SharedReadMode
)

// AccessSet is the union of rows a task declares, used by the scheduler
// to infer dependency edges. The three lists are kept deduplicated and
// sorted by RowKey.String so two builds of the same declaration produce
// byte-identical access sets (and therefore reproducible edge
// inference) regardless of call order.
type AccessSet struct {
	Reads       []table.RowKey
	Writes      []table.RowKey
	SharedReads []table.RowKey
}

func insertSorted(list []table.RowKey, key table.RowKey) []table.RowKey {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	list = append(list, key)
	slices.SortFunc(list, func(a, b table.RowKey) bool { return a.String() < b.String() })
	return list
}

func (a *AccessSet) addRead(key table.RowKey)  { a.Reads = insertSorted(a.Reads, key) }
func (a *AccessSet) addWrite(key table.RowKey) { a.Writes = insertSorted(a.Writes, key) }
func (a *AccessSet) addSharedRead(key table.RowKey) {
	a.SharedReads = insertSorted(a.SharedReads, key)
}

// All returns every row key touched by the access set, deduplicated.
func (a AccessSet) All() []table.RowKey {
	set := make(map[table.RowKey]struct{}, len(a.Reads)+len(a.Writes)+len(a.SharedReads))
	for _, k := range a.Reads {
		set[k] = struct{}{}
	}
	for _, k := range a.Writes {
		set[k] = struct{}{}
	}
	for _, k := range a.SharedReads {
		set[k] = struct{}{}
	}
	out := maps.Keys(set)
	slices.SortFunc(out, func(a, b table.RowKey) bool { return a.String() < b.String() })
	return out
}

// synchronous rows force an edge between any two tasks that touch them,
// even if both only read: the registry-sync hint from spec.md 4.4.
var synchronousRows = map[table.RowKey]bool{}

// MarkSynchronous flags rows whose registry requires synchronous access
// between any tasks that touch them (e.g. the resolver's own table
// registry, which tasks must not observe mid-mutation). Intended to be
// called during module setup, before any tick runs.
func MarkSynchronous(keys ...table.RowKey) {
	for _, k := range keys {
		synchronousRows[k] = true
	}
}

// IsSynchronous reports whether key was marked via MarkSynchronous.
func IsSynchronous(key table.RowKey) bool {
	return synchronousRows[key]
}

// Match returns every table in db whose schema contains every key in
// keys. This is the "materialised QueryResult" of spec.md 4.3: a flat
// list of tables satisfying a set of aliased rows.
func Match(db *table.Database, keys ...table.RowKey) []refs.TableID {
	ids := db.TableIDs()
	out := ids[:0:0]
	for _, id := range ids {
		tbl, ok := db.Table(id)
		if !ok {
			continue
		}
		matches := true
		for _, k := range keys {
			if !tbl.Has(k) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, id)
		}
	}
	return out
}
