/*
Copyright (C) 2025  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package collections

import (
	"testing"

	"github.com/launix-de/reactor/reactive"
)

func TestSubsetMembership(t *testing.T) {
	ctrl := reactive.NewController()
	s := NewSubset()

	ctrl.Atomically(func() error {
		s.Add(ctrl, "a")
		s.Add(ctrl, "b")
		return nil
	})

	var has bool
	var n int
	ctrl.Atomically(func() error {
		has = s.Contains(ctrl, "a")
		n = s.Count(ctrl)
		return nil
	})
	if !has || n != 2 {
		t.Fatalf("expected a to be a member and count 2, got has=%v n=%d", has, n)
	}

	ctrl.Atomically(func() error {
		s.Remove(ctrl, "a")
		return nil
	})
	ctrl.Atomically(func() error {
		has = s.Contains(ctrl, "a")
		return nil
	})
	if has {
		t.Fatal("expected a to have been removed")
	}
}

func TestSubsetRollback(t *testing.T) {
	ctrl := reactive.NewController()
	s := NewSubset()
	ctrl.Atomically(func() error {
		s.Add(ctrl, "x")
		return nil
	})

	err := ctrl.Atomically(func() error {
		s.Remove(ctrl, "x")
		s.Add(ctrl, "y")
		return errTest
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var has bool
	var n int
	ctrl.Atomically(func() error {
		has = s.Contains(ctrl, "x")
		n = s.Count(ctrl)
		return nil
	})
	if !has || n != 1 {
		t.Fatalf("expected rollback to restore x-only membership, has=%v n=%d", has, n)
	}
}

func TestSubsetOfBaseDropsNonMembers(t *testing.T) {
	ctrl := reactive.NewController()
	base := NewSubset()
	derived := NewSubsetOf(base)

	ctrl.Atomically(func() error {
		base.Add(ctrl, "a")
		derived.Add(ctrl, "a")
		derived.Add(ctrl, "not-in-base")
		return nil
	})

	var hasA, hasOther bool
	ctrl.Atomically(func() error {
		hasA = derived.Contains(ctrl, "a")
		hasOther = derived.Contains(ctrl, "not-in-base")
		return nil
	})
	if !hasA {
		t.Fatal("expected a to be admitted: it is a base member")
	}
	if hasOther {
		t.Fatal("expected not-in-base to be silently dropped: it is not a base member")
	}
}

func TestSubsetOfCascadesBaseRemoval(t *testing.T) {
	ctrl := reactive.NewController()
	base := NewSubset()
	derived := NewSubsetOf(base)

	ctrl.Atomically(func() error {
		base.Add(ctrl, "a")
		derived.Add(ctrl, "a")
		return nil
	})

	ctrl.Atomically(func() error {
		base.Remove(ctrl, "a")
		return nil
	})

	var has bool
	ctrl.Atomically(func() error {
		has = derived.Contains(ctrl, "a")
		return nil
	})
	if has {
		t.Fatal("expected a's removal from base to cascade into derived")
	}
}
