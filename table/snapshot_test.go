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
	"bytes"
	"errors"
	"testing"

	"github.com/dofsim/engine/refs"
)

type tag struct{ Label int }

func TestExportImportRoundTrip(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	id := db.Register(NewSchema(0, Dense[position](), Sparse[tag](), Shared[tag](tag{Label: -1})))

	ref0, _ := db.AddElement(id)
	ref1, _ := db.AddElement(id)
	tbl, _ := db.Table(id)

	posRow, _ := tbl.Row(DenseKey[position]())
	posRow.(*DenseRow[position]).At(0).X = 1
	posRow.(*DenseRow[position]).At(1).X = 2

	tagRow, _ := tbl.Row(SparseKey[tag]())
	tagRow.(*SparseRow[tag]).Set(1, tag{Label: 7})

	sharedRow, _ := tbl.Row(SharedKey[tag]())
	sharedRow.(*SharedRow[tag]).Get().Label = 42

	var buf bytes.Buffer
	if err := tbl.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dstID := db.Register(NewSchema(0, Dense[position](), Sparse[tag](), Shared[tag](tag{})))
	dstTbl, _ := db.Table(dstID)
	if err := dstTbl.Import(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Import: %v", err)
	}

	if dstTbl.Len() != 2 {
		t.Fatalf("expected length 2 after import, got %d", dstTbl.Len())
	}
	dstPos, _ := dstTbl.Row(DenseKey[position]())
	if got := dstPos.(*DenseRow[position]).At(0).X; got != 1 {
		t.Fatalf("dense row 0.X = %v, want 1", got)
	}
	if got := dstPos.(*DenseRow[position]).At(1).X; got != 2 {
		t.Fatalf("dense row 1.X = %v, want 2", got)
	}

	dstTag, _ := dstTbl.Row(SparseKey[tag]())
	if v, ok := dstTag.(*SparseRow[tag]).Get(1); !ok || v.Label != 7 {
		t.Fatalf("sparse row at 1 = (%+v,%v), want (7,true)", v, ok)
	}
	if _, ok := dstTag.(*SparseRow[tag]).Get(0); ok {
		t.Fatalf("sparse row at 0 should be absent")
	}

	dstShared, _ := dstTbl.Row(SharedKey[tag]())
	if got := dstShared.(*SharedRow[tag]).Get().Label; got != 42 {
		t.Fatalf("shared row = %v, want 42", got)
	}

	if got := *dstTbl.StableID().At(0); got != ref0 {
		t.Fatalf("stable ID 0 = %v, want %v", got, ref0)
	}
	if got := *dstTbl.StableID().At(1); got != ref1 {
		t.Fatalf("stable ID 1 = %v, want %v", got, ref1)
	}
}

func TestImportRejectsUnknownRow(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	id := db.Register(NewSchema(0, Dense[position](), Sparse[tag]()))
	db.AddElement(id)
	tbl, _ := db.Table(id)

	var buf bytes.Buffer
	if err := tbl.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dstID := db.Register(NewSchema(0, Dense[position]()))
	dstTbl, _ := db.Table(dstID)
	err := dstTbl.Import(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrSnapshotMismatch) {
		t.Fatalf("expected ErrSnapshotMismatch, got %v", err)
	}
}
