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

// Constant is a fixed value wrapped in a Subject purely so it can be read
// uniformly alongside other cell kinds. It is never written, so it never
// calls Changed and never appears in a promotion or inversion.
type Constant struct {
	subj  *Subject
	value any
}

func NewConstant(value any) *Constant {
	return &Constant{subj: NewSubject(), value: value}
}

func (c *Constant) Get(ctrl *Controller) any {
	ctrl.Used(c.subj)
	return c.value
}
