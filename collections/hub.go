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
package collections

import (
	"fmt"
	"reflect"

	"github.com/launix-de/reactor/reactive"
)

// Message is one tuple of values put into a Hub during the pass that
// produced it.
type Message struct {
	Values []any
}

type watcher struct {
	pattern []any // a nil element matches any value in that position
	subj    *reactive.Subject
}

// rightmostKey names a pattern's rightmost non-wildcard value by its
// distance from the end of the pattern, so it can be compared against the
// value at the same distance from the end of a published tuple regardless
// of how many positions precede it.
type rightmostKey struct {
	distFromEnd int
	value       any
}

// Hub is a tuple-space pub/sub board: Put adds a tuple of values, Get
// returns every tuple put so far during the current pass that matches a
// pattern (a nil element in the pattern matches any value), the way
// scm/network.go's HTTPServe dispatches one request to the handler that
// matches its route — generalized here to matching arbitrary value
// tuples instead of URL paths. Repeated Get calls with an identical
// pattern share one underlying watcher, so a caller that holds the
// Subject across passes sees the read-dependency machinery invalidate it
// only when a matching tuple actually arrives. Watchers are indexed by
// their rightmost non-wildcard position and value, so Put only probes one
// bucket per tuple position instead of scanning every watcher.
type Hub struct {
	subj       *reactive.Subject
	inbox      *reactive.Discrete
	watchers   []*watcher
	byKey      map[rightmostKey][]*watcher
	noConcr    []*watcher
	diag       *reactive.FuncManager
	scopeDepth int
}

func NewHub() *Hub {
	h := &Hub{
		subj:  reactive.NewSubject(),
		inbox: reactive.NewDiscrete(nil),
		byKey: map[rightmostKey][]*watcher{},
	}
	// subj.Manager turns every Put-bearing transaction into an Enter/Exit
	// pair, so the hub can log one trace line per scope boundary (mirroring
	// hubcast's per-connection scoping) instead of per Put call.
	h.diag = &reactive.FuncManager{EnterFn: h.traceEnter, ExitFn: h.traceExit}
	h.subj.Manager = h.diag
	return h
}

func (h *Hub) traceEnter() {
	h.scopeDepth++
	if reactive.Settings.Trace {
		fmt.Printf("[hub] scope entered on controller %p (depth %d)\n", reactive.Current(), h.scopeDepth)
	}
}

func (h *Hub) traceExit(err error) {
	h.scopeDepth--
	if !reactive.Settings.Trace {
		return
	}
	status := "committed"
	if err != nil {
		status = "aborted: " + err.Error()
	}
	fmt.Printf("[hub] scope %s on controller %p (depth %d)\n", status, reactive.Current(), h.scopeDepth)
}

func ensureHashable(v any) error {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	if !t.Comparable() {
		return &reactive.NonHashable{Value: v}
	}
	return nil
}

func rightmostConcrete(pattern []any) (rightmostKey, bool) {
	for i := len(pattern) - 1; i >= 0; i-- {
		if pattern[i] != nil {
			return rightmostKey{distFromEnd: len(pattern) - 1 - i, value: pattern[i]}, true
		}
	}
	return rightmostKey{}, false
}

func matchesPattern(pattern []any, values []any) bool {
	if len(pattern) != len(values) {
		return false
	}
	for i, p := range pattern {
		if p != nil && p != values[i] {
			return false
		}
	}
	return true
}

func samePattern(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (h *Hub) indexWatcher(w *watcher) {
	if key, ok := rightmostConcrete(w.pattern); ok {
		h.byKey[key] = append(h.byKey[key], w)
	} else {
		h.noConcr = append(h.noConcr, w)
	}
}

func (h *Hub) watcherFor(pattern []any) *watcher {
	for _, w := range h.watchers {
		if samePattern(w.pattern, pattern) {
			return w
		}
	}
	w := &watcher{pattern: pattern, subj: reactive.NewSubject()}
	h.watchers = append(h.watchers, w)
	h.indexWatcher(w)
	return w
}

// Put delivers a tuple of values to every watcher whose pattern matches it.
// Every value must be hashable (usable as a Go map key); the first that
// isn't aborts the call with NonHashable and nothing is delivered.
func (h *Hub) Put(ctrl *reactive.Controller, values ...any) error {
	for _, v := range values {
		if err := ensureHashable(v); err != nil {
			return err
		}
	}
	ctrl.Lock(h.subj)

	matched := map[*watcher]bool{}
	for dist := 0; dist < len(values); dist++ {
		key := rightmostKey{distFromEnd: dist, value: values[len(values)-1-dist]}
		for _, w := range h.byKey[key] {
			matched[w] = true
		}
	}
	for _, w := range h.noConcr {
		matched[w] = true
	}

	msg := Message{Values: append([]any(nil), values...)}
	old := h.currentInbox(ctrl)
	h.inbox.Set(ctrl, append(old, msg))
	ctrl.Changed(h.subj)

	for w := range matched {
		if matchesPattern(w.pattern, values) {
			ctrl.Changed(w.subj)
		}
	}
	return nil
}

func (h *Hub) currentInbox(ctrl *reactive.Controller) []Message {
	if v := h.inbox.Get(ctrl); v != nil {
		return v.([]Message)
	}
	return nil
}

// Get returns every tuple put during the pass currently being evaluated
// that matches pattern (a nil element matches any value in that
// position). Every non-nil pattern element must be hashable. The call
// establishes (or reuses) a standing watcher for pattern, so a listener
// that calls Get is only rescheduled on a pass where a matching tuple is
// actually put.
func (h *Hub) Get(ctrl *reactive.Controller, pattern ...any) ([]Message, error) {
	for _, p := range pattern {
		if err := ensureHashable(p); err != nil {
			return nil, err
		}
	}
	w := h.watcherFor(pattern)
	ctrl.Used(w.subj)

	var out []Message
	for _, msg := range h.currentInbox(ctrl) {
		if matchesPattern(pattern, msg.Values) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// WatcherCount returns the number of distinct patterns currently being
// watched, for diagnostics.
func (h *Hub) WatcherCount(ctrl *reactive.Controller) int {
	ctrl.Used(h.subj)
	return len(h.watchers)
}
