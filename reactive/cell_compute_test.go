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
package reactive

import "testing"

// TestComputeNestedInitializeKeepsLaterDependency reads a fresh (never-yet-
// valid) Compute cell from inside a Maintain's rule, then reads a second,
// unrelated Value afterward in the same rule invocation. The Compute read
// triggers a nested ctrl.Initialize call; if that nesting clobbered the
// outer Maintain's currentListener instead of restoring it, the second read
// would silently fail to record a dependency and the Maintain would never
// react to the Value changing.
func TestComputeNestedInitializeKeepsLaterDependency(t *testing.T) {
	ctrl := NewController()
	var c *Compute
	var x *Value
	var m *Maintain

	err := ctrl.Atomically(func() error {
		x = NewValue(1)
		c = NewCompute(ctrl, func(ctrl *Controller) any { return 100 })
		m = NewMaintain(ctrl, func(ctrl *Controller, self *Maintain) any {
			a := c.Get(ctrl).(int) // first read of a fresh Compute: nested Initialize
			b := x.Get(ctrl).(int) // must still be recorded as a dependency
			return a + b
		})
		return nil
	})
	if err != nil {
		t.Fatalf("setup atomically failed: %v", err)
	}
	assertEqual(t, m.value, 101)

	err = ctrl.Atomically(func() error {
		x.Set(ctrl, 2)
		return nil
	})
	if err != nil {
		t.Fatalf("update atomically failed: %v", err)
	}
	assertEqual(t, m.value, 102)
}

// TestComputeChangedWakesDownstreamMaintain chains Maintain -> Compute ->
// Value and checks that a write to the Value propagates all the way through:
// Compute.recompute must announce its own subject as changed whenever its
// value actually changes, or a listener that already holds a link to the
// Compute (established on an earlier read) is never rescheduled.
func TestComputeChangedWakesDownstreamMaintain(t *testing.T) {
	ctrl := NewController()
	var v *Value
	var c *Compute
	var m *Maintain

	err := ctrl.Atomically(func() error {
		v = NewValue(1)
		c = NewCompute(ctrl, func(ctrl *Controller) any { return v.Get(ctrl).(int) * 10 })
		m = NewMaintain(ctrl, func(ctrl *Controller, self *Maintain) any {
			return c.Get(ctrl).(int) + 1
		})
		return nil
	})
	if err != nil {
		t.Fatalf("setup atomically failed: %v", err)
	}
	assertEqual(t, m.value, 11)

	err = ctrl.Atomically(func() error {
		v.Set(ctrl, 2)
		return nil
	})
	if err != nil {
		t.Fatalf("update atomically failed: %v", err)
	}
	assertEqual(t, m.value, 21)
}
