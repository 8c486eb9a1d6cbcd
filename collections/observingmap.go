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

	units "github.com/docker/go-units"
	"github.com/launix-de/reactor/reactive"
)

// MapChange is one key edit recorded in an ObservingMap's Changes log for
// the pass that produced it. A key that was newly added reports
// NewValue == OldValue (the looked-up value at the moment it joined the
// key set); a pure removal from the key set is never reported at all.
type MapChange struct {
	Key      any
	OldValue any
	NewValue any
}

type mapCacheState struct {
	values map[any]any
	order  []any
}

// ObservingMap is derived from a key set (a Subset) and a lookup function:
// it has no writer API of its own. Each pass it recomputes which keys the
// key set added or dropped and, for keys that survive, whether lookup now
// returns a different value — the way storage/cachemap.go's CacheMap lets
// a reader depend on one cached entry without invalidating on unrelated
// writes, generalized here from an LRU value cache keyed by table row id to
// a reactive map keyed by whatever the key set holds. An optional
// MemoBudget caps how many looked-up values are retained between passes;
// entries beyond the budget are recomputed live on Get rather than served
// from cache, the same "64MB"-style string docker/go-units parses for
// container memory limits, read here as an entry count.
type ObservingMap struct {
	subj       *reactive.Subject
	changes    *reactive.Discrete
	keys       *Subset
	lookup     func(ctrl *reactive.Controller, key any) any
	maintain   *reactive.Maintain
	memoBudget int
}

// NewObservingMap builds an ObservingMap over keys, recomputing each
// member's value with lookup. budget, if non-empty, is parsed with
// docker/go-units' RAMInBytes and used as a maximum number of memoized
// entries; an empty or unparsable budget means unbounded.
func NewObservingMap(ctrl *reactive.Controller, keys *Subset, lookup func(ctrl *reactive.Controller, key any) any, budget string) *ObservingMap {
	m := &ObservingMap{
		subj:    reactive.NewSubject(),
		changes: reactive.NewDiscrete(nil),
		keys:    keys,
		lookup:  lookup,
	}
	if budget != "" {
		if n, err := units.RAMInBytes(budget); err == nil && n > 0 {
			m.memoBudget = int(n)
		}
	}
	m.maintain = reactive.NewMaintain(ctrl, m.recompute, reactive.Make(func() any {
		return mapCacheState{values: map[any]any{}}
	}))
	return m
}

func (m *ObservingMap) recompute(ctrl *reactive.Controller, self *reactive.Maintain) any {
	prev, _ := self.Previous().(mapCacheState)
	cache := mapCacheState{values: make(map[any]any, len(prev.values)), order: append([]any(nil), prev.order...)}
	for k, v := range prev.values {
		cache.values[k] = v
	}

	var edits []MapChange
	handled := map[any]bool{}
	for _, mc := range m.keys.Changes(ctrl) {
		handled[mc.Item] = true
		if mc.Added {
			v := m.lookup(ctrl, mc.Item)
			cache.values[mc.Item] = v
			cache.order = append(cache.order, mc.Item)
			edits = append(edits, MapChange{Key: mc.Item, OldValue: v, NewValue: v})
		} else {
			delete(cache.values, mc.Item)
			cache.order = removeFromOrder(cache.order, mc.Item)
		}
	}

	for _, item := range m.keys.Items(ctrl) {
		if handled[item] {
			continue
		}
		old, existed := cache.values[item]
		if !existed {
			cache.values[item] = m.lookup(ctrl, item)
			cache.order = append(cache.order, item)
			continue
		}
		nv := m.lookup(ctrl, item)
		if !reflect.DeepEqual(old, nv) {
			cache.values[item] = nv
			edits = append(edits, MapChange{Key: item, OldValue: old, NewValue: nv})
		}
	}

	if m.memoBudget > 0 {
		for len(cache.order) > m.memoBudget {
			oldest := cache.order[0]
			cache.order = cache.order[1:]
			delete(cache.values, oldest)
		}
	}

	if len(edits) > 0 {
		m.changes.Set(ctrl, edits)
		ctrl.Changed(m.subj)
	}
	return cache
}

func removeFromOrder(order []any, key any) []any {
	for i, k := range order {
		if k == key {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Get reads the value cached for key, the way it would stand after the
// last recompute of the key set; if key was evicted from the memoization
// budget but is still a live member, it is looked up live instead.
func (m *ObservingMap) Get(ctrl *reactive.Controller, key any) (any, bool) {
	cache := m.maintain.Get(ctrl).(mapCacheState)
	if v, ok := cache.values[key]; ok {
		return v, true
	}
	if !m.keys.Contains(ctrl, key) {
		return nil, false
	}
	return m.lookup(ctrl, key), true
}

// Keys returns every key currently present, in the order they joined the
// map. Depends on the whole map: any key-set change invalidates it. With a
// MemoBudget, keys evicted from the memo are not included.
func (m *ObservingMap) Keys(ctrl *reactive.Controller) []any {
	cache := m.maintain.Get(ctrl).(mapCacheState)
	out := make([]any, len(cache.order))
	copy(out, cache.order)
	return out
}

// Len returns the current entry count; with a MemoBudget, evicted keys are
// not counted.
func (m *ObservingMap) Len(ctrl *reactive.Controller) int {
	cache := m.maintain.Get(ctrl).(mapCacheState)
	return len(cache.order)
}

// Changes returns the key edits made during the pass currently being
// evaluated, or nil outside of one / if nothing changed. Pure removals
// from the key set never appear here; additions do, with NewValue ==
// OldValue.
func (m *ObservingMap) Changes(ctrl *reactive.Controller) []MapChange {
	if v := m.changes.Get(ctrl); v != nil {
		return v.([]MapChange)
	}
	return nil
}

func (c MapChange) String() string {
	if c.OldValue == c.NewValue {
		return fmt.Sprintf("+%v=%v", c.Key, c.NewValue)
	}
	return fmt.Sprintf("%v: %v->%v", c.Key, c.OldValue, c.NewValue)
}
