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
	"errors"
	"testing"

	"github.com/dofsim/engine/refs"
)

type position struct{ X, Y float32 }

func newTestDB() (*Database, refs.TableID) {
	r := refs.New()
	db := NewDatabase(r)
	id := db.Register(NewSchema(0, Dense[position]()))
	return db, id
}

func TestAddElementEmitsCreate(t *testing.T) {
	db, id := newTestDB()
	ref, err := db.AddElement(id)
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	tbl, _ := db.Table(id)
	ev, ok := tbl.Events().Get(0)
	if !ok || ev.Kind != EventCreate {
		t.Fatalf("expected EventCreate at index 0, got %+v ok=%v", ev, ok)
	}
	if loc, ok := db.Resolver().TryUnpack(ref); !ok || loc.Index != 0 {
		t.Fatalf("unexpected location %+v ok=%v", loc, ok)
	}
}

// TestSwapRemoveSequence implements spec end-to-end scenario 5.
func TestSwapRemoveSequence(t *testing.T) {
	db, id := newTestDB()
	r0, _ := db.AddElement(id)
	r1, _ := db.AddElement(id)
	r2, _ := db.AddElement(id)

	if err := db.Remove(r1); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	tbl, _ := db.Table(id)
	if tbl.Len() != 2 {
		t.Fatalf("expected length 2 after remove, got %d", tbl.Len())
	}
	if loc, ok := db.Resolver().TryUnpack(r0); !ok || loc.Index != 0 {
		t.Fatalf("r0 should resolve to index 0, got %+v ok=%v", loc, ok)
	}
	if _, ok := db.Resolver().TryUnpack(r1); ok {
		t.Fatalf("r1 should no longer resolve")
	}
	if loc, ok := db.Resolver().TryUnpack(r2); !ok || loc.Index != 1 {
		t.Fatalf("r2 should now resolve to index 1, got %+v ok=%v", loc, ok)
	}
	if sid := *tbl.StableID().At(1); sid != r2 {
		t.Fatalf("stable-ID row at 1 should equal r2")
	}
	if ev, ok := tbl.Events().Get(2); !ok || ev.Kind != EventDestroy {
		t.Fatalf("expected EventDestroy at index 2, got %+v ok=%v", ev, ok)
	}
	if ev, ok := tbl.Events().Get(1); !ok || ev.Kind != EventMove {
		t.Fatalf("expected EventMove at index 1, got %+v ok=%v", ev, ok)
	}
}

func TestMoveToRoundTrip(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	src := db.Register(NewSchema(0, Dense[position]()))
	dst := db.Register(NewSchema(0, Dense[position]()))

	ref, _ := db.AddElement(src)
	srcTbl, _ := db.Table(src)
	key := DenseKey[position]()
	row, _ := srcTbl.Row(key)
	row.(*DenseRow[position]).At(0).X = 42

	if err := db.MoveTo(ref, dst); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	loc, ok := db.Resolver().TryUnpack(ref)
	if !ok || loc.Table != dst {
		t.Fatalf("expected ref to resolve into dst, got %+v ok=%v", loc, ok)
	}
	dstTbl, _ := db.Table(dst)
	dstRow, _ := dstTbl.Row(key)
	if got := dstRow.(*DenseRow[position]).At(loc.Index).X; got != 42 {
		t.Fatalf("expected copied value 42, got %v", got)
	}

	if err := db.MoveTo(ref, src); err != nil {
		t.Fatalf("MoveTo back: %v", err)
	}
	loc, ok = db.Resolver().TryUnpack(ref)
	if !ok || loc.Table != src {
		t.Fatalf("expected ref to resolve back into src, got %+v ok=%v", loc, ok)
	}
	backRow, _ := srcTbl.Row(key)
	if got := backRow.(*DenseRow[position]).At(loc.Index).X; got != 42 {
		t.Fatalf("round-trip should preserve shared-row values, got %v", got)
	}
}

func TestMoveToDiscardsUnsharedRows(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	type extra struct{ Tag int }
	src := db.Register(NewSchema(0, Dense[position](), Dense[extra]()))
	dst := db.Register(NewSchema(0, Dense[position]()))

	ref, _ := db.AddElement(src)
	srcTbl, _ := db.Table(src)
	extraRow, _ := srcTbl.Row(DenseKey[extra]())
	extraRow.(*DenseRow[extra]).At(0).Tag = 99

	if err := db.MoveTo(ref, dst); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	dstTbl, _ := db.Table(dst)
	if dstTbl.Has(DenseKey[extra]()) {
		t.Fatalf("destination schema should not have gained the extra row")
	}
}

func TestAddElementsOutOfCapacity(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	id := db.Register(NewSchema(2, Dense[position]()))

	if _, err := db.AddElements(id, 2); err != nil {
		t.Fatalf("expected room for 2 elements: %v", err)
	}
	if _, err := db.AddElement(id); !errors.Is(err, ErrOutOfCapacity) {
		t.Fatalf("expected ErrOutOfCapacity, got %v", err)
	}
}

func TestTrySingleton(t *testing.T) {
	r := refs.New()
	db := NewDatabase(r)
	type globalConfig struct{ Gravity float32 }

	if _, ok := TrySingleton[globalConfig](db); ok {
		t.Fatalf("expected no singleton before any table declares the row")
	}

	db.Register(NewSchema(0, Shared[globalConfig](globalConfig{Gravity: -9.8})))
	cfg, ok := TrySingleton[globalConfig](db)
	if !ok {
		t.Fatalf("expected singleton to be found")
	}
	if cfg.Gravity != -9.8 {
		t.Fatalf("unexpected value %+v", cfg)
	}

	db.Register(NewSchema(0, Shared[globalConfig](globalConfig{Gravity: -1})))
	if _, ok := TrySingleton[globalConfig](db); ok {
		t.Fatalf("expected ambiguous singleton (two tables) to fail")
	}
}

func TestSchemaFingerprintOrderIndependent(t *testing.T) {
	a := NewSchema(0, Dense[position](), Sparse[int]())
	b := NewSchema(0, Sparse[int](), Dense[position]())
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("fingerprints should not depend on declaration order")
	}
}
