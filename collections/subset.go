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
	nlrm "github.com/launix-de/NonLockingReadMap"
	"github.com/launix-de/reactor/reactive"
)

// MembershipChange is one entry entering or leaving a Subset during the
// pass that produced it.
type MembershipChange struct {
	Added bool
	Item  any
}

// Subset tracks which members of an implicit base population currently
// belong to it, using a dense bitmap the way
// storage/transaction.go's shardOverlay uses NonBlockingBitMap to track
// which row ids are visible to a transaction — generalized here from row
// visibility to arbitrary-item membership, via a per-item dense id.
//
// A Subset may itself be constrained to a base Subset (NewSubsetOf): an
// Add of an item the base doesn't contain is silently dropped, and a
// Remove from the base cascades into every Subset derived from it,
// transitively.
type Subset struct {
	subj    *reactive.Subject
	changes *reactive.Discrete
	member  nlrm.NonBlockingBitMap
	ids     map[any]uint32
	items   map[uint32]any
	nextID  uint32

	base    *Subset
	derived []*Subset
}

// NewSubset builds an unconstrained Subset: any item may be added to it.
func NewSubset() *Subset {
	return &Subset{
		subj:    reactive.NewSubject(),
		changes: reactive.NewDiscrete(nil),
		ids:     map[any]uint32{},
		items:   map[uint32]any{},
	}
}

// NewSubsetOf builds a Subset constrained to membership in base: Add
// silently drops items base doesn't contain, and a later Remove of an item
// from base removes it from this Subset too (and from every Subset
// derived from this one, transitively).
func NewSubsetOf(base *Subset) *Subset {
	s := NewSubset()
	s.base = base
	if base != nil {
		base.derived = append(base.derived, s)
	}
	return s
}

func (s *Subset) idFor(item any) uint32 {
	if id, ok := s.ids[item]; ok {
		return id
	}
	s.nextID++
	id := s.nextID
	s.ids[item] = id
	s.items[id] = item
	return id
}

func (s *Subset) currentChanges(ctrl *reactive.Controller) []MembershipChange {
	if v := s.changes.Get(ctrl); v != nil {
		return v.([]MembershipChange)
	}
	return nil
}

// Contains reports whether item is currently a member.
func (s *Subset) Contains(ctrl *reactive.Controller, item any) bool {
	ctrl.Used(s.subj)
	id, ok := s.ids[item]
	if !ok {
		return false
	}
	return s.member.Get(id)
}

// Add makes item a member. A no-op if it already is one, and silently
// dropped if this Subset has a base and item is not one of its members.
func (s *Subset) Add(ctrl *reactive.Controller, item any) {
	ctrl.Lock(s.subj)
	if s.base != nil && !s.base.Contains(ctrl, item) {
		return
	}
	id := s.idFor(item)
	if s.member.Get(id) {
		return
	}
	s.member.Set(id, true)
	ctrl.OnUndo(func() { s.member.Set(id, false) })
	s.changes.Set(ctrl, append(s.currentChanges(ctrl), MembershipChange{Added: true, Item: item}))
	ctrl.Changed(s.subj)
}

// Remove evicts item from membership, cascading the removal into every
// Subset derived from this one. A no-op (for this Subset) if it is not a
// member; derived subsets are still visited, since one of them may hold
// item as a member even when this one doesn't.
func (s *Subset) Remove(ctrl *reactive.Controller, item any) {
	ctrl.Lock(s.subj)
	s.removeLocal(ctrl, item)
	for _, d := range s.derived {
		d.removeCascaded(ctrl, item)
	}
}

func (s *Subset) removeLocal(ctrl *reactive.Controller, item any) bool {
	id, ok := s.ids[item]
	if !ok || !s.member.Get(id) {
		return false
	}
	s.member.Set(id, false)
	ctrl.OnUndo(func() { s.member.Set(id, true) })
	s.changes.Set(ctrl, append(s.currentChanges(ctrl), MembershipChange{Added: false, Item: item}))
	ctrl.Changed(s.subj)
	return true
}

// removeCascaded removes item because it just left the base this Subset is
// constrained to, and propagates the same cascade to this Subset's own
// derived subsets.
func (s *Subset) removeCascaded(ctrl *reactive.Controller, item any) {
	ctrl.Lock(s.subj)
	if s.removeLocal(ctrl, item) {
		for _, d := range s.derived {
			d.removeCascaded(ctrl, item)
		}
	}
}

// Items returns every current member, in no particular order.
func (s *Subset) Items(ctrl *reactive.Controller) []any {
	ctrl.Used(s.subj)
	items := make([]any, 0, s.member.Count())
	s.member.Iterate(func(id uint32) {
		items = append(items, s.items[id])
	})
	return items
}

// Count returns the current member count.
func (s *Subset) Count(ctrl *reactive.Controller) int {
	ctrl.Used(s.subj)
	return int(s.member.Count())
}

// Changes returns the membership edits made during the pass currently being
// evaluated, or nil outside of one / if nothing changed.
func (s *Subset) Changes(ctrl *reactive.Controller) []MembershipChange {
	return s.currentChanges(ctrl)
}
