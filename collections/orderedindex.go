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

	"github.com/google/btree"
	"github.com/launix-de/reactor/reactive"
)

// IndexChange is one slice edit recorded in an OrderedIndex's Changes log
// for the pass that produced it: applying every edit in order to the
// previous view — replacing the [Start,End) window with whatever Items
// now holds in its place — yields the new view. Adjacent edits generated
// within the same pass are coalesced into one.
type IndexChange struct {
	Start, End, NewLength int
}

type indexEditLog struct {
	edits []IndexChange
	bases []int // bases[i] = view length just before edits[i] was applied
}

type indexEntry struct {
	key  any
	item any
}

// OrderedIndex keeps a set of items in sorted order by a caller-supplied
// key, using a B-tree the way storage/index.go's StorageIndex uses
// btree.BTreeG for its delta index, generalized from a fixed column
// ordering to a single key/less pair. Each pass's edits are published
// through a discrete Changes log as (start, end, new_length) slice edits
// rather than forcing readers to diff two full snapshots.
type OrderedIndex struct {
	subj    *reactive.Subject
	changes *reactive.Discrete
	keyFn   func(item any) any
	keyLess func(a, b any) bool
	reverse bool
	tree    *btree.BTreeG[indexEntry]
	byItem  map[any]indexEntry
}

func (idx *OrderedIndex) less(a, b indexEntry) bool {
	al, bl := a.key, b.key
	if idx.reverse {
		al, bl = bl, al
	}
	if idx.keyLess(al, bl) {
		return true
	}
	if idx.keyLess(bl, al) {
		return false
	}
	return fmt.Sprintf("%v", a.item) < fmt.Sprintf("%v", b.item)
}

// NewOrderedIndex builds an OrderedIndex ordered by keyFn, using keyLess to
// compare keys. Items are compared for tie-breaking by their %v string form
// when their keys are equal — the B-tree itself only needs *a* total order,
// not one meaningful beyond this index.
func NewOrderedIndex(keyFn func(item any) any, keyLess func(a, b any) bool) *OrderedIndex {
	idx := &OrderedIndex{
		subj:    reactive.NewSubject(),
		changes: reactive.NewDiscrete(nil),
		keyFn:   keyFn,
		keyLess: keyLess,
		byItem:  map[any]indexEntry{},
	}
	idx.tree = btree.NewG(32, idx.less)
	return idx
}

func (idx *OrderedIndex) currentLog(ctrl *reactive.Controller) indexEditLog {
	if v := idx.changes.Get(ctrl); v != nil {
		return v.(indexEditLog)
	}
	return indexEditLog{}
}

// recordEdit appends a (start, end, newLength) slice edit to this pass's
// log, merging it into the previous edit when it touches the region the
// previous edit affected in the view it produced.
func recordEdit(log indexEditLog, start, end, newLength, oldLength int) indexEditLog {
	if n := len(log.edits); n > 0 {
		p := log.edits[n-1]
		base := log.bases[n-1]
		pNewEnd := p.Start + (p.NewLength - (base - (p.End - p.Start)))
		if start == pNewEnd {
			log.edits[n-1] = IndexChange{Start: p.Start, End: p.End + (end - start), NewLength: newLength}
			return log
		}
	}
	log.edits = append(log.edits, IndexChange{Start: start, End: end, NewLength: newLength})
	log.bases = append(log.bases, oldLength)
	return log
}

func (idx *OrderedIndex) indexOf(e indexEntry) int {
	at := 0
	idx.tree.Ascend(func(cur indexEntry) bool {
		if cur == e {
			return false
		}
		at++
		return true
	})
	return at
}

// Add inserts item, ordered by keyFn(item). A no-op if item is already a
// member.
func (idx *OrderedIndex) Add(ctrl *reactive.Controller, item any) {
	ctrl.Lock(idx.subj)
	if _, exists := idx.byItem[item]; exists {
		return
	}
	oldLen := idx.tree.Len()
	e := indexEntry{key: idx.keyFn(item), item: item}
	idx.tree.ReplaceOrInsert(e)
	idx.byItem[item] = e
	at := idx.indexOf(e)

	ctrl.OnUndo(func() {
		idx.tree.Delete(e)
		delete(idx.byItem, item)
	})
	idx.changes.Set(ctrl, recordEdit(idx.currentLog(ctrl), at, at, oldLen+1, oldLen))
	ctrl.Changed(idx.subj)
}

// Remove deletes item. A no-op if item is not a member.
func (idx *OrderedIndex) Remove(ctrl *reactive.Controller, item any) {
	ctrl.Lock(idx.subj)
	e, ok := idx.byItem[item]
	if !ok {
		return
	}
	oldLen := idx.tree.Len()
	at := idx.indexOf(e)
	idx.tree.Delete(e)
	delete(idx.byItem, item)

	ctrl.OnUndo(func() {
		idx.tree.ReplaceOrInsert(e)
		idx.byItem[item] = e
	})
	idx.changes.Set(ctrl, recordEdit(idx.currentLog(ctrl), at, at+1, oldLen-1, oldLen))
	ctrl.Changed(idx.subj)
}

// Reindex replaces the key function and/or reverse flag and rebuilds the
// sorted view, producing a single full-view edit in place of whatever
// partial edits this pass had already logged.
func (idx *OrderedIndex) Reindex(ctrl *reactive.Controller, keyFn func(item any) any, reverse bool) {
	ctrl.Lock(idx.subj)
	oldLen := idx.tree.Len()
	// the full-view edit replaces the view as it stood before this pass's
	// earlier edits, whose own base length is recorded in the log
	passLen := oldLen
	if prior := idx.currentLog(ctrl); len(prior.bases) > 0 {
		passLen = prior.bases[0]
	}
	items := make([]any, 0, oldLen)
	idx.tree.Ascend(func(e indexEntry) bool {
		items = append(items, e.item)
		return true
	})

	oldKeyFn, oldReverse := idx.keyFn, idx.reverse
	oldTree, oldByItem := idx.tree, idx.byItem

	idx.keyFn = keyFn
	idx.reverse = reverse
	idx.tree = btree.NewG(32, idx.less)
	idx.byItem = map[any]indexEntry{}
	for _, item := range items {
		e := indexEntry{key: idx.keyFn(item), item: item}
		idx.tree.ReplaceOrInsert(e)
		idx.byItem[item] = e
	}
	newLen := idx.tree.Len()

	ctrl.OnUndo(func() {
		idx.keyFn, idx.reverse = oldKeyFn, oldReverse
		idx.tree, idx.byItem = oldTree, oldByItem
	})
	idx.changes.Set(ctrl, indexEditLog{
		edits: []IndexChange{{Start: 0, End: passLen, NewLength: newLen}},
		bases: []int{passLen},
	})
	ctrl.Changed(idx.subj)
}

// Items returns every member in sorted order.
func (idx *OrderedIndex) Items(ctrl *reactive.Controller) []any {
	ctrl.Used(idx.subj)
	items := make([]any, 0, idx.tree.Len())
	idx.tree.Ascend(func(e indexEntry) bool {
		items = append(items, e.item)
		return true
	})
	return items
}

// Len returns the current member count.
func (idx *OrderedIndex) Len(ctrl *reactive.Controller) int {
	ctrl.Used(idx.subj)
	return idx.tree.Len()
}

// Changes returns the slice edits made to this index during the pass
// currently being evaluated, or nil outside of one / if nothing changed.
func (idx *OrderedIndex) Changes(ctrl *reactive.Controller) []IndexChange {
	return idx.currentLog(ctrl).edits
}
