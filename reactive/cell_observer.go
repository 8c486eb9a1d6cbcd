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

// Observer is a read-only listener pinned to ObserverLayer: apart from the
// initial run in NewObserver, the Controller only ever runs it in the
// read-only phase, after every ordinary cell has settled. Its dependencies
// are the ones recorded by that initial run; reads made in the read-only
// phase are not recorded. Calling Changed from a read-only-phase run panics
// with ReadOnlyViolation.
type Observer struct {
	listener *Listener
	ctrl     *Controller
}

// NewObserver builds an Observer and, if ctrl already has an active scope,
// runs it once immediately to discover its initial dependency set and
// produce its first output. Later runs only ever happen in the read-only
// phase of a later pass.
func NewObserver(ctrl *Controller, fn func(ctrl *Controller)) *Observer {
	o := &Observer{ctrl: ctrl}
	o.listener = NewListener("observer")
	o.listener.layer = ObserverLayer
	o.listener.Dirty = func() bool { return true }
	o.listener.Run = func() { fn(ctrl) }
	if ctrl.Active() {
		ctrl.Initialize(o.listener)
	}
	return o
}

// Cancel drops the observer's pending run from the current pass, if one is
// scheduled. It stays linked to the subjects it read, so a later change to
// one of them schedules it again.
func (o *Observer) Cancel() {
	o.ctrl.Cancel(o.listener)
}
