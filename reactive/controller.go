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

import (
	"container/heap"

	nlrm "github.com/launix-de/NonLockingReadMap"
)

// queueEntry is one listener waiting in the layered recalc queue. Grounded
// on scm/scheduler.go's taskHeap: layer plays the role runAt played there,
// and seq is the same FIFO tie-break id assigned in registration order.
type queueEntry struct {
	listener *Listener
	layer    Layer
	seq      uint64
	index    int
}

type listenerQueue []*queueEntry

func (q listenerQueue) Len() int { return len(q) }
func (q listenerQueue) Less(i, j int) bool {
	if q[i].layer != q[j].layer {
		return q[i].layer < q[j].layer
	}
	return q[i].seq < q[j].seq
}
func (q listenerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *listenerQueue) Push(x any) {
	e := x.(*queueEntry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *listenerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Controller owns one single-threaded scheduling world: the atomic scope
// (via embedded History), the layered recalc queue, and the per-pass
// bookkeeping that detects order inversions and circular dependencies.
type Controller struct {
	History

	queue      listenerQueue
	queued     map[*Listener]*queueEntry
	observerQ  []*Listener
	observerSet map[*Listener]bool
	seqCounter uint64

	currentListener *Listener
	readonly        bool

	// per-pass bookkeeping, reset at the start of every Atomically call
	thisPass       []*Listener
	passIndex      map[*Listener]int
	passSavepoint  map[*Listener]Savepoint
	promotionGraph map[*Listener]*Listener
	writerLayer    map[*Subject]Layer
	writesOf       map[*Listener][]*Subject
	changedBitmap  nlrm.NonBlockingBitMap
}

// NewController allocates an idle Controller with no active scope.
func NewController() *Controller {
	return &Controller{
		queued:      map[*Listener]*queueEntry{},
		observerSet: map[*Listener]bool{},
	}
}

// Atomically runs fn within an atomic scope, then drains the layered recalc
// queue to quiescence, runs the read-only observer phase, and finally drains
// the commit queue and exits managers (via the embedded History). A call
// made while already inside a scope is flattened into the enclosing one.
func (c *Controller) Atomically(fn func() error) error {
	if c.Active() {
		return fn()
	}
	return c.History.Atomically(func() error {
		c.beginPass()
		if err := fn(); err != nil {
			return err
		}
		return c.runRecalcLoop()
	})
}

func (c *Controller) beginPass() {
	c.thisPass = nil
	c.passIndex = map[*Listener]int{}
	c.passSavepoint = map[*Listener]Savepoint{}
	c.promotionGraph = map[*Listener]*Listener{}
	c.writerLayer = map[*Subject]Layer{}
	c.writesOf = map[*Listener][]*Subject{}
	c.changedBitmap = nlrm.NonBlockingBitMap{}
	c.currentListener = nil
	c.readonly = false
}

func (c *Controller) runRecalcLoop() error {
	for len(c.queue) > 0 {
		e := heap.Pop(&c.queue).(*queueEntry)
		lis := e.listener
		delete(c.queued, lis)
		c.runListener(lis)
	}

	c.currentListener = nil
	c.readonly = true
	for len(c.observerQ) > 0 {
		lis := c.observerQ[0]
		c.observerQ = c.observerQ[1:]
		delete(c.observerSet, lis)
		c.currentListener = lis
		lis.Run()
	}
	c.currentListener = nil
	c.readonly = false
	return nil
}

func (c *Controller) runListener(lis *Listener) {
	lis.ClearSubjects()
	prev := c.currentListener
	c.currentListener = lis
	c.passIndex[lis] = len(c.thisPass)
	c.passSavepoint[lis] = c.SavepointNow()
	c.thisPass = append(c.thisPass, lis)
	trace("run %s(%s) layer=%d", lis.Label, lis.ID, lis.layer)
	lis.Run()
	c.currentListener = prev
}

// Lock registers the subject's backing Manager (if any) with the current
// scope. Any read or write implies a Lock.
func (c *Controller) Lock(s *Subject) {
	c.requireActive("lock")
	if s.Manager != nil {
		c.manageLocked(s.Manager)
	}
}

// Used records that the current listener (if any) read s, creating a Link
// if one doesn't already exist, and promotes the listener's layer above s
// and above whichever listener most recently wrote s this pass. During the
// read-only phase, reads are not recorded as dependencies.
func (c *Controller) Used(s *Subject) {
	c.requireActive("used")
	c.Lock(s)
	if c.readonly {
		return
	}
	lis := c.currentListener
	if lis == nil {
		return
	}
	if !lis.hasSubject(s) {
		newLink(s, lis)
	}
	c.bumpLayer(lis, s.Layer)
	if wl, ok := c.writerLayer[s]; ok {
		c.bumpLayer(lis, wl)
	}
}

func (c *Controller) bumpLayer(lis *Listener, floor Layer) {
	if lis.layer <= floor {
		lis.layer = floor + 1
	}
}

// Changed records that the current listener (if any) wrote s, and schedules
// every listener currently reading s. A listener found to have already run
// earlier in this pass triggers order-inversion recovery instead of a plain
// reschedule. Changed panics with ReadOnlyViolation during the observer
// phase.
func (c *Controller) Changed(s *Subject) {
	c.requireActive("changed")
	c.Lock(s)
	if c.readonly {
		panic(&ReadOnlyViolation{Subject: s})
	}

	wasChanged := c.changedBitmap.Get(s.seq)
	c.changedBitmap.Set(s.seq, true)
	subj := s
	c.OnUndo(func() { c.changedBitmap.Set(subj.seq, wasChanged) })

	w := c.currentListener
	if w != nil {
		c.writerLayer[s] = w.layer
		c.writesOf[w] = append(c.writesOf[w], s)
	}

	var readers []*Listener
	s.IterListeners(func(l *Listener) { readers = append(readers, l) })

	for _, r := range readers {
		if r == w {
			continue // a listener's own write does not invalidate its own run
		}
		if idx, ok := c.passIndex[r]; ok {
			c.handleInversion(r, idx, s, w)
			continue
		}
		dirty := true
		if r.Dirty != nil {
			dirty = r.Dirty()
		}
		if !dirty {
			continue
		}
		srcLayer := s.Layer
		if w != nil {
			srcLayer = w.layer
		}
		c.Schedule(r, &srcLayer)
	}
}

// handleInversion implements §4.C's order-inversion recovery: r has already
// run earlier in this pass and read s, but s has just changed (because of a
// write by w, or an external write if w is nil). r's prior run is stale, so
// r — and everything that ran after it in this pass — is partially rolled
// back to the savepoint captured just before r began, removed from
// this_pass, and rescheduled.
func (c *Controller) handleInversion(r *Listener, idx int, s *Subject, w *Listener) {
	writerLayer := s.Layer
	if w != nil {
		writerLayer = w.layer
	}
	if r.layer <= writerLayer {
		r.layer = writerLayer + 1
	}

	if w != nil {
		c.promotionGraph[r] = w
		if cycle := c.findCycle(r); cycle != nil {
			panic(&Circularity{Listeners: cycle})
		}
	}

	trace("inversion: rewinding %s(%s) (and %d later listener(s)) because %s wrote a subject it already read",
		r.Label, r.ID, len(c.thisPass)-idx-1, labelOrExternal(w))

	sp := c.passSavepoint[r]
	c.rollbackTo(sp)

	rewind := append([]*Listener(nil), c.thisPass[idx:]...)
	c.thisPass = c.thisPass[:idx]
	for _, l := range rewind {
		delete(c.passIndex, l)
		delete(c.passSavepoint, l)
		c.Schedule(l, nil)
	}
}

func labelOrExternal(w *Listener) string {
	if w == nil {
		return "an external write"
	}
	return w.Label
}

// findCycle walks the per-pass promotion graph starting at start using
// Floyd's cycle detection and returns the cycle's members if one exists. As
// a backstop against a degenerate graph that grows without ever closing a
// cycle, it gives up after Settings.MaxPromotionChain hops and raises
// Circularity on whatever chain it has found so far, rather than looping
// the full pass to a crawl.
func (c *Controller) findCycle(start *Listener) []*Listener {
	slow, fast := start, start
	for hops := 0; ; hops++ {
		fast = c.promotionGraph[fast]
		if fast == nil {
			return nil
		}
		fast = c.promotionGraph[fast]
		if fast == nil {
			return nil
		}
		slow = c.promotionGraph[slow]
		if slow == fast {
			return c.collectCycle(slow)
		}
		if Settings.MaxPromotionChain > 0 && hops >= Settings.MaxPromotionChain {
			return c.collectCycle(start)
		}
	}
}

func (c *Controller) collectCycle(node *Listener) []*Listener {
	seen := map[*Listener]bool{}
	var members []*Listener
	cur := node
	for cur != nil && !seen[cur] {
		seen[cur] = true
		members = append(members, cur)
		cur = c.promotionGraph[cur]
	}
	return members
}

// Schedule places lis into the layered recalc queue (or the FIFO observer
// queue, if its layer is ObserverLayer). If sourceLayer is non-nil and at or
// above lis's current layer, lis is promoted to sourceLayer+1 first, and the
// promotion is propagated to any reader of a subject lis has written this
// pass whose layer is no longer a strict upper bound.
func (c *Controller) Schedule(lis *Listener, sourceLayer *Layer) {
	c.requireActive("schedule")
	if sourceLayer != nil && *sourceLayer >= lis.layer {
		lis.layer = *sourceLayer + 1
		c.propagatePromotion(lis, map[*Listener]bool{})
	}
	c.enqueue(lis)
}

func (c *Controller) enqueue(lis *Listener) {
	if lis.layer == ObserverLayer {
		if !c.observerSet[lis] {
			c.observerSet[lis] = true
			c.observerQ = append(c.observerQ, lis)
		}
		return
	}
	if e, ok := c.queued[lis]; ok {
		e.layer = lis.layer
		heap.Fix(&c.queue, e.index)
		return
	}
	c.seqCounter++
	e := &queueEntry{listener: lis, layer: lis.layer, seq: c.seqCounter}
	heap.Push(&c.queue, e)
	c.queued[lis] = e
}

func (c *Controller) propagatePromotion(writer *Listener, seen map[*Listener]bool) {
	if seen[writer] {
		return
	}
	seen[writer] = true
	for _, s := range c.writesOf[writer] {
		s.IterListeners(func(reader *Listener) {
			if reader == writer || reader.layer > writer.layer {
				return
			}
			reader.layer = writer.layer + 1
			c.enqueue(reader)
			c.propagatePromotion(reader, seen)
		})
	}
}

// Cancel removes lis from whichever queue holds it, if any. A no-op if lis
// is not currently scheduled.
func (c *Controller) Cancel(lis *Listener) {
	c.requireActive("cancel")
	if e, ok := c.queued[lis]; ok {
		heap.Remove(&c.queue, e.index)
		delete(c.queued, lis)
	}
	if c.observerSet[lis] {
		delete(c.observerSet, lis)
		for i, l := range c.observerQ {
			if l == lis {
				c.observerQ = append(c.observerQ[:i], c.observerQ[i+1:]...)
				break
			}
		}
	}
}

// Initialize runs lis.Run() once, immediately, and records it as having
// already run in the current pass (with a savepoint, so a later write that
// invalidates its read is recognized as an inversion rather than just a
// fresh schedule). Used by lazy cells on first read and by eager cells that
// construct themselves inside an active scope.
func (c *Controller) Initialize(lis *Listener) {
	c.requireActive("initialize")
	if _, already := c.passIndex[lis]; already {
		return
	}
	c.runListener(lis)
}
