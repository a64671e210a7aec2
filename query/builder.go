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

package query

import (
	"github.com/dofsim/engine/refs"
	"github.com/dofsim/engine/table"
)

// Builder is handed to a task's Init method. Declaring row access
// through it both returns a typed Cursor for use in Execute and records
// the access into the AccessSet the scheduler reads to infer edges.
type Builder struct {
	db     *table.Database
	access AccessSet
}

// NewBuilder returns a Builder bound to db.
func NewBuilder(db *table.Database) *Builder {
	return &Builder{db: db}
}

// Access returns the AccessSet accumulated so far.
func (b *Builder) Access() AccessSet { return b.access }

// Database exposes the bound database, for tasks that need to resolve
// QueryResults (query.Match) or singletons (table.TrySingleton) rather
// than go row-by-row through a Cursor.
func (b *Builder) Database() *table.Database { return b.db }

// ReadDense declares read access to the dense row of T and returns a
// cursor over it.
func ReadDense[T any](b *Builder) *DenseCursor[T] {
	key := table.DenseKey[T]()
	b.access.addRead(key)
	return &DenseCursor[T]{db: b.db, key: key}
}

// WriteDense declares write access to the dense row of T and returns a
// cursor over it.
func WriteDense[T any](b *Builder) *DenseCursor[T] {
	key := table.DenseKey[T]()
	b.access.addWrite(key)
	return &DenseCursor[T]{db: b.db, key: key}
}

// ReadSparse declares read access to the sparse row of T.
func ReadSparse[T any](b *Builder) *SparseCursor[T] {
	key := table.SparseKey[T]()
	b.access.addRead(key)
	return &SparseCursor[T]{db: b.db, key: key}
}

// WriteSparse declares write access to the sparse row of T.
func WriteSparse[T any](b *Builder) *SparseCursor[T] {
	key := table.SparseKey[T]()
	b.access.addWrite(key)
	return &SparseCursor[T]{db: b.db, key: key}
}

// ReadShared declares a shared (singleton) read of T.
func ReadShared[T any](b *Builder) *SharedCursor[T] {
	key := table.SharedKey[T]()
	b.access.addSharedRead(key)
	return &SharedCursor[T]{db: b.db, key: key}
}

// WriteShared declares write access to the shared row of T.
func WriteShared[T any](b *Builder) *SharedCursor[T] {
	key := table.SharedKey[T]()
	b.access.addWrite(key)
	return &SharedCursor[T]{db: b.db, key: key}
}

// --- cursors: the hot path of physics inner loops ---------------------
//
// Each cursor keeps a one-slot (tableID, row) cache. tableFor is the
// tryGetOrSwapRow primitive from spec.md 4.3: check the cache, and on a
// miss resolve through the database and swap the cache entry out.

// DenseCursor resolves a table's dense row of T.
type DenseCursor[T any] struct {
	db          *table.Database
	key         table.RowKey
	cachedTable refs.TableID
	cachedRow   *table.DenseRow[T]
	cacheValid  bool
}

// For returns the dense row of T belonging to table id, or (nil, false)
// if that table's schema does not declare the row.
func (c *DenseCursor[T]) For(id refs.TableID) (*table.DenseRow[T], bool) {
	if c.cacheValid && c.cachedTable == id {
		return c.cachedRow, true
	}
	tbl, ok := c.db.Table(id)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	row, ok := tbl.Row(c.key)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	dr := row.(*table.DenseRow[T])
	c.cachedTable, c.cachedRow, c.cacheValid = id, dr, true
	return dr, true
}

// SparseCursor resolves a table's sparse row of T.
type SparseCursor[T any] struct {
	db          *table.Database
	key         table.RowKey
	cachedTable refs.TableID
	cachedRow   *table.SparseRow[T]
	cacheValid  bool
}

// For returns the sparse row of T belonging to table id.
func (c *SparseCursor[T]) For(id refs.TableID) (*table.SparseRow[T], bool) {
	if c.cacheValid && c.cachedTable == id {
		return c.cachedRow, true
	}
	tbl, ok := c.db.Table(id)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	row, ok := tbl.Row(c.key)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	sr := row.(*table.SparseRow[T])
	c.cachedTable, c.cachedRow, c.cacheValid = id, sr, true
	return sr, true
}

// SharedCursor resolves a table's shared row of T.
type SharedCursor[T any] struct {
	db          *table.Database
	key         table.RowKey
	cachedTable refs.TableID
	cachedRow   *table.SharedRow[T]
	cacheValid  bool
}

// For returns the shared row of T belonging to table id.
func (c *SharedCursor[T]) For(id refs.TableID) (*table.SharedRow[T], bool) {
	if c.cacheValid && c.cachedTable == id {
		return c.cachedRow, true
	}
	tbl, ok := c.db.Table(id)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	row, ok := tbl.Row(c.key)
	if !ok {
		c.cacheValid = false
		return nil, false
	}
	sr := row.(*table.SharedRow[T])
	c.cachedTable, c.cachedRow, c.cacheValid = id, sr, true
	return sr, true
}
