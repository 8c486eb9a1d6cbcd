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

import "github.com/jtolds/gls"

// ctxMgr carries the current goroutine's Controller, the same way
// storage/compute.go's gls.Go carries a worker's shard index across the
// goroutine boundary — generalized here to carry a *Controller instead.
var ctxMgr = gls.NewContextManager()

const controllerKey = "reactive.controller"

// WithController runs fn with ctrl bound as the calling goroutine's current
// Controller, including in any goroutine fn itself spawns with gls.Go.
func WithController(ctrl *Controller, fn func()) {
	ctxMgr.SetValues(gls.Values{controllerKey: ctrl}, fn)
}

// Current returns the Controller bound to the calling goroutine, or the
// process-wide default if WithController was never called on this goroutine
// chain.
func Current() *Controller {
	if v, ok := ctxMgr.GetValue(controllerKey); ok {
		return v.(*Controller)
	}
	return defaultController()
}

var defaultCtrl *Controller

func defaultController() *Controller {
	if defaultCtrl == nil {
		defaultCtrl = NewController()
	}
	return defaultCtrl
}

// SetDefaultController replaces the process-wide default Controller. Safe
// only before any client has cached a reference to the previous one (§9
// design note on thread-local global state).
func SetDefaultController(ctrl *Controller) {
	defaultCtrl = ctrl
}
