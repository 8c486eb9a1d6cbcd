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

// Maintain is an eager, writable cell: the Controller reschedules it
// whenever any dependency changes (Dirty always reports true), and its rule
// may read the cell's own previous value via Previous and may write other
// cells.
type Maintain struct {
	subj     *Subject
	listener *Listener
	ctrl     *Controller
	rule     func(ctrl *Controller, self *Maintain) any
	value    any
	reset    any
	hasReset bool
}

type MaintainOption func(*Maintain)

// Initially seeds the cell's value before its rule ever runs.
func Initially(v any) MaintainOption {
	return func(m *Maintain) { m.value = v }
}

// Make seeds the value by calling maker exactly once, with the controller's
// scope marked inactive for the duration of the call — so any cell read
// inside maker panics with InactiveUse (Open Question ii: initializers may
// not depend on other cells).
func Make(maker func() any) MaintainOption {
	return func(m *Maintain) {
		wasActive := m.ctrl.active
		m.ctrl.active = false
		defer func() { m.ctrl.active = wasActive }()
		m.value = maker()
	}
}

// ResettingTo makes the cell discrete: whenever its rule runs, the value is
// reset to sentinel once the enclosing scope commits.
func ResettingTo(sentinel any) MaintainOption {
	return func(m *Maintain) { m.reset, m.hasReset = sentinel, true }
}

// NewMaintain builds a Maintain cell and, if ctrl already has an active
// scope, runs its rule immediately to discover its first value and its
// initial dependency set. Outside an active scope the rule does not run and
// no dependency is recorded, so the seeded value (from Initially/Make, or
// the zero value) stands and later writes do not schedule the cell.
func NewMaintain(ctrl *Controller, rule func(ctrl *Controller, self *Maintain) any, opts ...MaintainOption) *Maintain {
	m := &Maintain{subj: NewSubject(), ctrl: ctrl, rule: rule}
	for _, opt := range opts {
		opt(m)
	}
	m.listener = NewListener("maintain")
	m.listener.Dirty = func() bool { return true }
	m.listener.Run = m.run
	if ctrl.Active() {
		ctrl.Initialize(m.listener)
	}
	return m
}

func (m *Maintain) run() {
	newValue := m.rule(m.ctrl, m)
	if !valuesEqual(newValue, m.value) {
		old := m.value
		m.ctrl.OnUndo(func() { m.value = old })
		m.value = newValue
		m.ctrl.Changed(m.subj)
	}
	if m.hasReset {
		m.ctrl.OnCommit(func() {
			if !valuesEqual(m.value, m.reset) {
				m.value = m.reset
			}
		})
	}
}

func (m *Maintain) Get(ctrl *Controller) any {
	ctrl.Used(m.subj)
	return m.value
}

// Set assigns the cell directly, as if some other rule had produced
// newValue; like Value.Set this pushes an undo entry and calls Changed.
func (m *Maintain) Set(ctrl *Controller, newValue any) {
	if valuesEqual(m.value, newValue) {
		ctrl.Lock(m.subj)
		return
	}
	old := m.value
	ctrl.OnUndo(func() { m.value = old })
	m.value = newValue
	ctrl.Changed(m.subj)
}

// Previous returns the cell's value as of before the current rule
// invocation began overwriting it; meaningful only from inside the rule.
func (m *Maintain) Previous() any { return m.value }
