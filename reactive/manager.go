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

// FuncManager adapts two closures to the Manager interface, since a Subject
// backed by a scoped resource otherwise needs a bespoke type per use.
type FuncManager struct {
	EnterFn func()
	ExitFn  func(err error)
}

func (f *FuncManager) Enter() {
	if f.EnterFn != nil {
		f.EnterFn()
	}
}

func (f *FuncManager) Exit(err error) {
	if f.ExitFn != nil {
		f.ExitFn(err)
	}
}
