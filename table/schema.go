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

import (
	"fmt"
	"reflect"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"
)

// RowKind distinguishes the three row storage semantics a table can hold.
type RowKind int

const (
	// KindDense is an indexable sequence of T, one per element.
	KindDense RowKind = iota
	// KindSparse is a table-local-index -> T map, used for flags/events.
	KindSparse
	// KindShared is a single value per table (per-table configuration).
	KindShared
)

func (k RowKind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSparse:
		return "sparse"
	case KindShared:
		return "shared"
	default:
		return "unknown"
	}
}

// RowKey identifies a row type within a table: its storage kind plus the
// Go type of the value it carries. Two rows with the same RowKey are the
// same row for the purposes of Database.MoveTo's copy-by-type-identity
// rule and for the query package's access-set edge inference.
type RowKey struct {
	Kind RowKind
	Type reflect.Type
}

func (k RowKey) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}
	return fmt.Sprintf("%s(%s)", k.Kind, name)
}

func keyOf[T any](kind RowKind) RowKey {
	var zero T
	return RowKey{Kind: kind, Type: reflect.TypeOf(zero)}
}

// DenseKey returns the RowKey for a dense row of T.
func DenseKey[T any]() RowKey { return keyOf[T](KindDense) }

// SparseKey returns the RowKey for a sparse row of T.
func SparseKey[T any]() RowKey { return keyOf[T](KindSparse) }

// SharedKey returns the RowKey for a shared (singleton-per-table) row of T.
func SharedKey[T any]() RowKey { return keyOf[T](KindShared) }

// RowFactory constructs an empty row of a concrete type and reports the
// RowKey it will be stored under. Schema builds a table from a list of
// factories.
type RowFactory func() (RowKey, Row)

// Dense returns a RowFactory for a dense row of T.
func Dense[T any]() RowFactory {
	return func() (RowKey, Row) { return DenseKey[T](), newDenseRow[T]() }
}

// Sparse returns a RowFactory for a sparse row of T.
func Sparse[T any]() RowFactory {
	return func() (RowKey, Row) { return SparseKey[T](), newSparseRow[T]() }
}

// Shared returns a RowFactory for a shared row of T, initialized to init.
func Shared[T any](init T) RowFactory {
	return func() (RowKey, Row) { return SharedKey[T](), newSharedRow[T](init) }
}

// Schema is the ordered, immutable-after-registration set of rows a
// table is built from.
type Schema struct {
	factories []RowFactory
	cap       int
}

// NewSchema builds a Schema from the given row factories. cap is the
// maximum element count the resulting table will accept (0 means
// unbounded); see Database.AddElement's OutOfCapacity behaviour.
func NewSchema(cap int, factories ...RowFactory) Schema {
	return Schema{factories: factories, cap: cap}
}

// Fingerprint is a stable content hash of the schema's row kinds and
// types, independent of declaration order. Two schemas with the same row
// set hash identically; this is used only for diagnostics (e.g. to spot
// two supposedly-equivalent tables that drifted apart) and is never part
// of the wire representation of an element reference.
func (s Schema) Fingerprint() [32]byte {
	names := make([]string, 0, len(s.factories))
	for _, f := range s.factories {
		key, _ := f()
		names = append(names, key.String())
	}
	slices.Sort(names)
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 with a nil key only fails for an
		// over-long key, which cannot happen here.
		panic(err)
	}
	for _, n := range names {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
