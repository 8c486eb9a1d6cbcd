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

// Compute is a cell whose rule first runs when something reads it. After
// that, a change to any dependency marks it dirty and schedules it like any
// other listener, so it is recomputed in the recalc loop whether or not
// anything reads it; a read while it is still dirty recomputes it at once.
// A Compute cell that turns out to read nothing on some run is permanently
// constant from then on (Open Question iii): its rule never runs again, and
// later reads still record the read with the controller but return the
// cached value.
type Compute struct {
	subj     *Subject
	listener *Listener
	ctrl     *Controller
	fn       func(ctrl *Controller) any
	value    any
	dirty    bool
	valid    bool
	constant bool
}

func NewCompute(ctrl *Controller, fn func(ctrl *Controller) any) *Compute {
	c := &Compute{subj: NewSubject(), ctrl: ctrl, fn: fn, dirty: true}
	c.listener = NewListener("compute")
	c.listener.Dirty = func() bool {
		if c.constant {
			return false
		}
		c.dirty = true
		return true
	}
	c.listener.Run = c.recompute
	return c
}

func (c *Compute) recompute() {
	old := c.value
	c.value = c.fn(c.ctrl)
	c.dirty = false
	c.valid = true
	if !c.listener.hasAnySubject() {
		c.constant = true
	}
	if !valuesEqual(old, c.value) {
		c.ctrl.Changed(c.subj)
	}
}

func (c *Compute) Get(ctrl *Controller) any {
	ctrl.Used(c.subj)
	if c.constant {
		return c.value
	}
	if !c.valid {
		ctrl.Initialize(c.listener)
	} else if c.dirty {
		prev := ctrl.currentListener
		ctrl.currentListener = c.listener
		c.listener.ClearSubjects()
		c.recompute()
		ctrl.currentListener = prev
	}
	return c.value
}
