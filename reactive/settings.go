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

import "fmt"

// SettingsT mirrors storage.SettingsT's shape: a single package-level struct
// holding every process-wide tunable, instead of scattered package vars.
type SettingsT struct {
	// Trace prints recalc-loop events (each listener run and each
	// order-inversion rewind) to stdout.
	Trace bool
	// MaxPromotionChain bounds how many listeners may appear in a single
	// promotion chain before Circularity is raised defensively, as a
	// backstop in case a degenerate graph defeats the cycle check.
	MaxPromotionChain int
}

var Settings = SettingsT{
	Trace:             false,
	MaxPromotionChain: 10000,
}

func trace(format string, args ...any) {
	if Settings.Trace {
		fmt.Printf("[reactive] "+format+"\n", args...)
	}
}
