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

import "encoding/gob"

// Row is the type-erased interface every concrete row storage
// implements so a Table can hold heterogeneous rows in one map keyed by
// RowKey. Only the table package implements Row; callers interact with
// the generic Dense/Sparse/Shared wrappers obtained through a query
// Cursor.
type Row interface {
	kind() RowKind
	// grow appends n default-valued slots (dense rows only; sparse and
	// shared rows ignore the table's length and no-op here).
	grow(n int)
	// swapRemove drops the element at tail by swapping it into removed
	// (removed < tail) or simply truncating (removed == tail).
	swapRemove(removed, tail int)
	// copyFrom copies the value at srcIndex of src into dstIndex of the
	// receiver. src is guaranteed to have the same concrete type.
	copyFrom(src Row, srcIndex, dstIndex int)
	// newEmpty returns a new, empty row of the same concrete type.
	// Database.MoveTo does not use it: rows the destination declares
	// but the source lacks keep the default value grow assigned.
	newEmpty() Row
}

// snapshotCodec is implemented by every concrete row kind so Table.Export
// and Table.Import can serialize any row without a type switch over every
// Dense/Sparse/Shared instantiation in the schema. A Row whose T contains
// something gob cannot encode (a func or chan field) simply surfaces that
// as an error from Export/Import, the same way a schema mismatch does.
type snapshotCodec interface {
	encodeValue(enc *gob.Encoder) error
	decodeValue(dec *gob.Decoder) error
}

// --- Dense row -------------------------------------------------------

// DenseRow is an indexable sequence of T, one slot per table element.
type DenseRow[T any] struct {
	values []T
}

func newDenseRow[T any]() *DenseRow[T] { return &DenseRow[T]{} }

func (d *DenseRow[T]) kind() RowKind { return KindDense }

func (d *DenseRow[T]) grow(n int) {
	var zero T
	for i := 0; i < n; i++ {
		d.values = append(d.values, zero)
	}
}

func (d *DenseRow[T]) swapRemove(removed, tail int) {
	if removed != tail {
		d.values[removed] = d.values[tail]
	}
	d.values = d.values[:tail]
}

func (d *DenseRow[T]) copyFrom(src Row, srcIndex, dstIndex int) {
	s := src.(*DenseRow[T])
	d.values[dstIndex] = s.values[srcIndex]
}

func (d *DenseRow[T]) newEmpty() Row { return &DenseRow[T]{} }

// Len returns the number of elements stored.
func (d *DenseRow[T]) Len() int { return len(d.values) }

// At returns a pointer to the value at i, valid for read or write until
// the next structural change (append/swapRemove) to this row.
func (d *DenseRow[T]) At(i int) *T { return &d.values[i] }

// Slice exposes the backing storage directly, for bulk iteration in
// physics inner loops.
func (d *DenseRow[T]) Slice() []T { return d.values }

func (d *DenseRow[T]) encodeValue(enc *gob.Encoder) error { return enc.Encode(d.values) }

func (d *DenseRow[T]) decodeValue(dec *gob.Decoder) error { return dec.Decode(&d.values) }

// --- Sparse row -------------------------------------------------------

// SparseRow maps table-local index to T; absent indices have no entry.
// Used for flags and the event rows.
type SparseRow[T any] struct {
	values map[int]T
}

func newSparseRow[T any]() *SparseRow[T] { return &SparseRow[T]{values: map[int]T{}} }

func (s *SparseRow[T]) kind() RowKind { return KindSparse }

func (s *SparseRow[T]) grow(int) {}

func (s *SparseRow[T]) swapRemove(removed, tail int) {
	v, ok := s.values[tail]
	delete(s.values, tail)
	if removed == tail {
		return
	}
	if ok {
		s.values[removed] = v
	} else {
		delete(s.values, removed)
	}
}

func (s *SparseRow[T]) copyFrom(src Row, srcIndex, dstIndex int) {
	srow := src.(*SparseRow[T])
	if v, ok := srow.values[srcIndex]; ok {
		s.values[dstIndex] = v
	} else {
		delete(s.values, dstIndex)
	}
}

func (s *SparseRow[T]) newEmpty() Row { return newSparseRow[T]() }

// Get returns the value at i and whether it is present.
func (s *SparseRow[T]) Get(i int) (T, bool) {
	v, ok := s.values[i]
	return v, ok
}

// Set stores v at index i.
func (s *SparseRow[T]) Set(i int, v T) { s.values[i] = v }

// Delete removes any value at index i.
func (s *SparseRow[T]) Delete(i int) { delete(s.values, i) }

// Len returns the number of present entries.
func (s *SparseRow[T]) Len() int { return len(s.values) }

// Clear empties the row; used by the clearEvents module between ticks.
func (s *SparseRow[T]) Clear() {
	for k := range s.values {
		delete(s.values, k)
	}
}

// Range calls fn for every present (index, value) pair. fn must not
// mutate the row.
func (s *SparseRow[T]) Range(fn func(index int, value T)) {
	for k, v := range s.values {
		fn(k, v)
	}
}

func (s *SparseRow[T]) encodeValue(enc *gob.Encoder) error { return enc.Encode(s.values) }

func (s *SparseRow[T]) decodeValue(dec *gob.Decoder) error {
	var m map[int]T
	if err := dec.Decode(&m); err != nil {
		return err
	}
	s.values = m
	return nil
}

// --- Shared row -------------------------------------------------------

// SharedRow is a single value shared by every element of the table it
// belongs to (per-table configuration).
type SharedRow[T any] struct {
	value T
}

func newSharedRow[T any](init T) *SharedRow[T] { return &SharedRow[T]{value: init} }

func (s *SharedRow[T]) kind() RowKind { return KindShared }

func (s *SharedRow[T]) grow(int) {}

func (s *SharedRow[T]) swapRemove(int, int) {}

func (s *SharedRow[T]) copyFrom(src Row, _ int, _ int) {
	s.value = src.(*SharedRow[T]).value
}

func (s *SharedRow[T]) newEmpty() Row {
	var zero T
	return newSharedRow[T](zero)
}

// Get returns a pointer to the shared value.
func (s *SharedRow[T]) Get() *T { return &s.value }

func (s *SharedRow[T]) encodeValue(enc *gob.Encoder) error { return enc.Encode(s.value) }

func (s *SharedRow[T]) decodeValue(dec *gob.Decoder) error { return dec.Decode(&s.value) }
