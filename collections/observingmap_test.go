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

func TestObservingMapGetReflectsLookup(t *testing.T) {
	ctrl := reactive.NewController()
	keys := NewSubset()
	cells := map[any]*reactive.Value{}
	lookup := func(ctrl *reactive.Controller, key any) any {
		return cells[key].Get(ctrl)
	}

	var m *ObservingMap
	ctrl.Atomically(func() error {
		cells["a"] = reactive.NewValue(1)
		cells["b"] = reactive.NewValue(2)
		keys.Add(ctrl, "a")
		keys.Add(ctrl, "b")
		m = NewObservingMap(ctrl, keys, lookup, "")
		return nil
	})

	var v any
	var ok bool
	ctrl.Atomically(func() error {
		v, ok = m.Get(ctrl, "a")
		return nil
	})
	if !ok || v != 1 {
		t.Fatalf("got v=%v ok=%v, want 1/true", v, ok)
	}
}

func TestObservingMapAdditionsReportNewEqualOld(t *testing.T) {
	ctrl := reactive.NewController()
	keys := NewSubset()
	cells := map[any]*reactive.Value{}
	lookup := func(ctrl *reactive.Controller, key any) any {
		return cells[key].Get(ctrl)
	}
	var m *ObservingMap
	// Changes is discrete: an observer captures it in the pass that writes it.
	var changes []MapChange
	ctrl.Atomically(func() error {
		m = NewObservingMap(ctrl, keys, lookup, "")
		reactive.NewObserver(ctrl, func(ctrl *reactive.Controller) {
			changes = m.Changes(ctrl)
		})
		return nil
	})

	ctrl.Atomically(func() error {
		cells["a"] = reactive.NewValue(5)
		keys.Add(ctrl, "a")
		return nil
	})

	if len(changes) != 1 || changes[0].NewValue != changes[0].OldValue || changes[0].NewValue != 5 {
		t.Fatalf("expected one addition with new==old==5, got %v", changes)
	}
}

func TestObservingMapValueChangeReported(t *testing.T) {
	ctrl := reactive.NewController()
	keys := NewSubset()
	cells := map[any]*reactive.Value{}
	lookup := func(ctrl *reactive.Controller, key any) any {
		return cells[key].Get(ctrl)
	}
	var m *ObservingMap
	// Changes is discrete: an observer captures it in the pass that writes it.
	var changes []MapChange
	ctrl.Atomically(func() error {
		cells["a"] = reactive.NewValue(1)
		keys.Add(ctrl, "a")
		m = NewObservingMap(ctrl, keys, lookup, "")
		reactive.NewObserver(ctrl, func(ctrl *reactive.Controller) {
			changes = m.Changes(ctrl)
		})
		return nil
	})

	ctrl.Atomically(func() error {
		cells["a"].Set(ctrl, 2)
		return nil
	})

	var v any
	ctrl.Atomically(func() error {
		v, _ = m.Get(ctrl, "a")
		return nil
	})
	if v != 2 {
		t.Fatalf("expected Get to reflect the new value, got %v", v)
	}
	if len(changes) != 1 || changes[0].OldValue != 1 || changes[0].NewValue != 2 {
		t.Fatalf("expected one edit 1->2, got %v", changes)
	}
}

func TestObservingMapPureRemovalNotReported(t *testing.T) {
	ctrl := reactive.NewController()
	keys := NewSubset()
	cells := map[any]*reactive.Value{}
	lookup := func(ctrl *reactive.Controller, key any) any {
		return cells[key].Get(ctrl)
	}
	var m *ObservingMap
	// Changes is discrete: an observer captures it in any pass that writes
	// it, so it stays nil below unless the removal pass reports something.
	var changes []MapChange
	ctrl.Atomically(func() error {
		cells["a"] = reactive.NewValue(1)
		keys.Add(ctrl, "a")
		m = NewObservingMap(ctrl, keys, lookup, "")
		reactive.NewObserver(ctrl, func(ctrl *reactive.Controller) {
			changes = m.Changes(ctrl)
		})
		return nil
	})

	changes = nil
	ctrl.Atomically(func() error {
		keys.Remove(ctrl, "a")
		return nil
	})

	var ok bool
	ctrl.Atomically(func() error {
		_, ok = m.Get(ctrl, "a")
		return nil
	})
	if ok {
		t.Fatal("expected a to be gone after its key left the key set")
	}
	if changes != nil {
		t.Fatalf("expected a pure key removal to not be reported, got %v", changes)
	}
}

func TestObservingMapChangesResetAfterCommit(t *testing.T) {
	ctrl := reactive.NewController()
	keys := NewSubset()
	cells := map[any]*reactive.Value{}
	lookup := func(ctrl *reactive.Controller, key any) any {
		return cells[key].Get(ctrl)
	}
	var m *ObservingMap
	ctrl.Atomically(func() error {
		m = NewObservingMap(ctrl, keys, lookup, "")
		return nil
	})

	ctrl.Atomically(func() error {
		cells["a"] = reactive.NewValue(1)
		keys.Add(ctrl, "a")
		return nil
	})

	var changes []MapChange
	ctrl.Atomically(func() error {
		changes = m.Changes(ctrl)
		return nil
	})
	if changes != nil {
		t.Fatalf("expected the discrete change log to reset after commit, got %v", changes)
	}
}
