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

package refs

import "testing"

func TestCreateAndUnpack(t *testing.T) {
	r := New()
	ref := r.Create(Location{Table: 1, Index: 0})
	loc, ok := r.TryUnpack(ref)
	if !ok {
		t.Fatalf("expected live reference")
	}
	if loc.Table != 1 || loc.Index != 0 {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestReleaseInvalidatesReference(t *testing.T) {
	r := New()
	ref := r.Create(Location{Table: 1, Index: 0})
	r.Release(ref)
	if _, ok := r.TryUnpack(ref); ok {
		t.Fatalf("expected released reference to no longer resolve")
	}
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	r := New()
	a := r.Create(Location{Table: 1, Index: 0})
	r.Release(a)
	b := r.Create(Location{Table: 1, Index: 0})

	if a == b {
		t.Fatalf("expected reused slot to carry a new generation")
	}
	if _, ok := r.TryUnpack(a); ok {
		t.Fatalf("stale reference a must not resolve after slot reuse")
	}
	if loc, ok := r.TryUnpack(b); !ok || loc.Index != 0 {
		t.Fatalf("fresh reference b must resolve to its own location")
	}
}

// TestSwapRemoveSequence mirrors spec end-to-end scenario 5: add three
// elements, remove the middle one, and check every reference's fate.
func TestSwapRemoveSequence(t *testing.T) {
	r := New()
	r0 := r.Create(Location{Table: 1, Index: 0})
	r1 := r.Create(Location{Table: 1, Index: 1})
	r2 := r.Create(Location{Table: 1, Index: 2})

	// remove(table, 1): tail element (index 2, ref r2) is swapped into
	// the hole, then the tail is dropped.
	r.Relocate(r2, Location{Table: 1, Index: 1})
	r.Release(r1)

	if loc, ok := r.TryUnpack(r0); !ok || loc.Index != 0 {
		t.Fatalf("r0 should still resolve to index 0, got %+v ok=%v", loc, ok)
	}
	if _, ok := r.TryUnpack(r1); ok {
		t.Fatalf("r1 should no longer resolve")
	}
	if loc, ok := r.TryUnpack(r2); !ok || loc.Index != 1 {
		t.Fatalf("r2 should now resolve to index 1, got %+v ok=%v", loc, ok)
	}
}

func TestUnpackPanicsOnStaleReference(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Unpack to panic on a stale reference")
		}
	}()
	r := New()
	ref := r.Create(Location{Table: 1, Index: 0})
	r.Release(ref)
	r.Unpack(ref)
}

func TestStringIsStableAndDistinctPerSlot(t *testing.T) {
	r := New()
	a := r.Create(Location{Table: 0, Index: 0})
	b := r.Create(Location{Table: 0, Index: 1})
	if a.String() == b.String() {
		t.Fatalf("distinct references should render distinct strings")
	}
	if a.String() != a.String() {
		t.Fatalf("String should be deterministic")
	}
}

func TestNilRef(t *testing.T) {
	var z Ref
	if !z.IsNil() {
		t.Fatalf("zero value Ref should be nil")
	}
}
