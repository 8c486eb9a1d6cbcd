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

import "reflect"

// valuesEqual compares two cell values for the "did this actually change"
// check Maintain/Value/Compute use before calling Changed. Most cell values
// are comparable (numbers, strings, small structs); the deep-compare
// fallback only kicks in for slices/maps/funcs, which == can't compare.
func valuesEqual(a, b any) (eq bool) {
	defer func() {
		if r := recover(); r != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	eq = a == b
	return
}
