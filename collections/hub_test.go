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
	"errors"
	"testing"

	"github.com/launix-de/reactor/reactive"
)

func TestHubExactAndWildcardMatch(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	ctrl.Atomically(func() error {
		// Register the watchers (exact and wildcard) before anything is put.
		if _, err := h.Get(ctrl, "orders", "created", 42); err != nil {
			return err
		}
		if _, err := h.Get(ctrl, "orders", nil, nil); err != nil {
			return err
		}
		if _, err := h.Get(ctrl, "invoices", "paid", nil); err != nil {
			return err
		}
		return nil
	})

	// Get only sees tuples put during the current pass, so put and read in
	// the same scope.
	var msgs []Message
	ctrl.Atomically(func() error {
		if err := h.Put(ctrl, "orders", "created", 42); err != nil {
			return err
		}
		var err error
		msgs, err = h.Get(ctrl, "orders", "created", 42)
		return err
	})
	if len(msgs) != 1 || msgs[0].Values[2] != 42 {
		t.Fatalf("unexpected match: %v", msgs)
	}
}

func TestHubWildcardInLastPosition(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	// Only a trailing-wildcard watcher exists; the published tuple's own
	// last value ("created") never appears as a watched key, so matching
	// must come from the pattern's rightmost concrete value ("orders") at
	// its own distance from the end, not the tuple's.
	ctrl.Atomically(func() error {
		_, err := h.Get(ctrl, "orders", nil)
		return err
	})

	var msgs []Message
	ctrl.Atomically(func() error {
		if err := h.Put(ctrl, "orders", "created"); err != nil {
			return err
		}
		var err error
		msgs, err = h.Get(ctrl, "orders", nil)
		return err
	})
	if len(msgs) != 1 {
		t.Fatalf("expected (orders, *) to match (orders, created), got %v", msgs)
	}
}

func TestHubNoSubscribersStillVisibleThisPass(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	// No watcher exists when the tuple is put; a Get later in the same pass
	// still finds it.
	var msgs []Message
	ctrl.Atomically(func() error {
		if err := h.Put(ctrl, "nobody", "listens"); err != nil {
			return err
		}
		var err error
		msgs, err = h.Get(ctrl, "nobody", "listens")
		return err
	})
	if len(msgs) != 1 {
		t.Fatalf("expected a late Get to still see the tuple from this pass, got %v", msgs)
	}
}

func TestHubRejectsNonHashableValues(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	err := ctrl.Atomically(func() error {
		return h.Put(ctrl, "orders", []string{"not", "hashable"})
	})
	var nh *reactive.NonHashable
	if !errors.As(err, &nh) {
		t.Fatalf("expected NonHashable, got %v", err)
	}
}

// TestHubManagerTracksScopeBoundaries checks that Hub's diagnostic Manager
// (attached to subj.Manager) enters exactly once per atomic scope no matter
// how many Put calls that scope makes, and that scopeDepth returns to zero
// whether the scope commits or aborts.
func TestHubManagerTracksScopeBoundaries(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	ctrl.Atomically(func() error {
		if err := h.Put(ctrl, "orders", "created", 1); err != nil {
			return err
		}
		if err := h.Put(ctrl, "orders", "created", 2); err != nil {
			return err
		}
		if h.scopeDepth != 1 {
			t.Fatalf("expected scopeDepth 1 mid-scope after repeated Puts, got %d", h.scopeDepth)
		}
		return nil
	})
	if h.scopeDepth != 0 {
		t.Fatalf("expected scopeDepth 0 after a committed scope, got %d", h.scopeDepth)
	}

	boom := errors.New("boom")
	ctrl.Atomically(func() error {
		if err := h.Put(ctrl, "orders", "cancelled", 3); err != nil {
			return err
		}
		return boom
	})
	if h.scopeDepth != 0 {
		t.Fatalf("expected scopeDepth 0 after an aborted scope, got %d", h.scopeDepth)
	}
}

func TestHubWatcherCountDeduplicatesIdenticalPatterns(t *testing.T) {
	ctrl := reactive.NewController()
	h := NewHub()

	ctrl.Atomically(func() error {
		if _, err := h.Get(ctrl, "orders", nil); err != nil {
			return err
		}
		if _, err := h.Get(ctrl, "orders", nil); err != nil {
			return err
		}
		return nil
	})

	var n int
	ctrl.Atomically(func() error {
		n = h.WatcherCount(ctrl)
		return nil
	})
	if n != 1 {
		t.Fatalf("expected one deduplicated watcher, got %d", n)
	}
}
