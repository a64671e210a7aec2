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
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/slices"

	"github.com/dofsim/engine/refs"
)

// ErrSnapshotMismatch is returned by Import when the reader's row set
// does not match the destination table's schema.
var ErrSnapshotMismatch = errors.New("table: snapshot row set mismatch")

// Export writes a zstd-compressed, gob-encoded snapshot of every row's
// current values (plus the stable-ID row) to w, in a row order sorted by
// RowKey.String(). Sparse rows are gob-encoded maps, written in Go's
// map iteration order, so two exports of a table whose sparse rows hold
// more than one entry are not byte-comparable.
// The element-local event row is not included: it is tick-scoped
// bookkeeping, not durable state.
//
// Export is for diagnostics and cross-tick debugging dumps, not
// resolver-level persistence: it does not touch the owning Database's
// Resolver, so a Ref resolved from an imported stable-ID row is only
// meaningful if the same Resolver already maps that Ref to this table.
func (t *Table) Export(w io.Writer) error {
	keys := t.RowKeys()
	slices.SortFunc(keys, func(a, b RowKey) bool { return a.String() < b.String() })

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("table: export: %w", err)
	}
	enc := gob.NewEncoder(zw)

	if err := enc.Encode(t.length); err != nil {
		return fmt.Errorf("table: export length: %w", err)
	}
	if err := enc.Encode(len(keys)); err != nil {
		return fmt.Errorf("table: export row count: %w", err)
	}
	for _, key := range keys {
		if err := enc.Encode(key.String()); err != nil {
			return fmt.Errorf("table: export row name %s: %w", key, err)
		}
		codec, ok := t.rows[key].(snapshotCodec)
		if !ok {
			return fmt.Errorf("table: export row %s: does not support snapshotting", key)
		}
		if err := codec.encodeValue(enc); err != nil {
			return fmt.Errorf("table: export row %s: %w", key, err)
		}
	}
	if err := enc.Encode(t.stableID.values); err != nil {
		return fmt.Errorf("table: export stable IDs: %w", err)
	}
	return zw.Close()
}

// Import replaces t's row contents with a snapshot previously written by
// Export. Every row name the snapshot carries must exist in t's schema
// (by RowKey.String()); any mismatch is ErrSnapshotMismatch. t's length
// and stable-ID row are overwritten wholesale; rows the schema declares
// that the snapshot does not mention are left untouched.
func (t *Table) Import(r io.Reader) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("table: import: %w", err)
	}
	defer zr.Close()
	dec := gob.NewDecoder(zr)

	var length, count int
	if err := dec.Decode(&length); err != nil {
		return fmt.Errorf("table: import length: %w", err)
	}
	if err := dec.Decode(&count); err != nil {
		return fmt.Errorf("table: import row count: %w", err)
	}

	byName := make(map[string]Row, len(t.rows))
	for key, row := range t.rows {
		byName[key.String()] = row
	}

	for i := 0; i < count; i++ {
		var name string
		if err := dec.Decode(&name); err != nil {
			return fmt.Errorf("table: import row name: %w", err)
		}
		row, ok := byName[name]
		if !ok {
			return fmt.Errorf("table: import row %q: %w", name, ErrSnapshotMismatch)
		}
		codec := row.(snapshotCodec)
		if err := codec.decodeValue(dec); err != nil {
			return fmt.Errorf("table: import row %q: %w", name, err)
		}
	}

	var stableID []refs.Ref
	if err := dec.Decode(&stableID); err != nil {
		return fmt.Errorf("table: import stable IDs: %w", err)
	}
	t.stableID.values = stableID
	t.length = length
	return nil
}
