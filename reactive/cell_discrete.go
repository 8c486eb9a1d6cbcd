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

// Discrete holds a transient value: visible to every listener scheduled
// within the pass that wrote it, then reset to a sentinel once the scope
// commits, so a later pass never sees a stale event. Reactive collections
// (OrderedIndex.Changes, ObservingMap.Changes) use Discrete for their
// per-pass change logs.
type Discrete struct {
	subj     *Subject
	value    any
	sentinel any
}

func NewDiscrete(sentinel any) *Discrete {
	return &Discrete{subj: NewSubject(), value: sentinel, sentinel: sentinel}
}

func (d *Discrete) Get(ctrl *Controller) any {
	ctrl.Used(d.subj)
	return d.value
}

func (d *Discrete) Set(ctrl *Controller, v any) {
	old := d.value
	ctrl.OnUndo(func() { d.value = old })
	d.value = v
	ctrl.Changed(d.subj)
	ctrl.OnCommit(func() { d.value = d.sentinel })
}
