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

package ratio

import "testing"

func TestAddNegIsZero(t *testing.T) {
	a := New(3, 7)
	got := a.Add(a.Neg())
	if !got.Equal(Int(0)) {
		t.Fatalf("a + (-a) = %v, want 0", got)
	}
}

func TestMulInverseIsOne(t *testing.T) {
	a := New(5, 9)
	got := a.Mul(a.Inverse())
	if !got.Equal(Int(1)) {
		t.Fatalf("a * a.Inverse() = %v, want 1", got)
	}
}

func TestReducesToLowestTerms(t *testing.T) {
	got := New(6, 8)
	want := New(3, 4)
	if !got.Equal(want) {
		t.Fatalf("New(6,8) = %v, want %v", got, want)
	}
}

func TestNegativeDenominatorNormalized(t *testing.T) {
	got := New(3, -4)
	want := New(-3, 4)
	if !got.Equal(want) {
		t.Fatalf("New(3,-4) = %v, want %v", got, want)
	}
}

func TestInverseOfZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Int(0).Inverse()
}

func TestZeroDenominatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	New(1, 0)
}

func TestSubAndFloat64(t *testing.T) {
	a := New(1, 2)
	b := New(1, 4)
	got := a.Sub(b)
	if f := got.Float64(); f < 0.249 || f > 0.251 {
		t.Fatalf("a - b = %v (%f), want ~0.25", got, f)
	}
}
