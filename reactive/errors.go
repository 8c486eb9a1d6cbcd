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

// TransactionAborted wraps whatever error or panic value aborted an atomic
// scope; by the time it surfaces from Atomically, rollback has already run.
type TransactionAborted struct {
	Cause error
}

func (e *TransactionAborted) Error() string { return fmt.Sprintf("transaction aborted: %v", e.Cause) }
func (e *TransactionAborted) Unwrap() error { return e.Cause }

// ManagerExitFailure replaces the propagating error when a Manager's Exit
// hook itself panics during cleanup. Original is whatever error was
// propagating when Exit was invoked (nil on a clean commit).
type ManagerExitFailure struct {
	Original error
	Cause    error
}

func (e *ManagerExitFailure) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("manager exit failed (%v) while handling: %v", e.Cause, e.Original)
	}
	return fmt.Sprintf("manager exit failed: %v", e.Cause)
}
func (e *ManagerExitFailure) Unwrap() error { return e.Cause }

// Circularity names the chain of listeners that mutually invalidated each
// other's reads within a single recalc pass.
type Circularity struct {
	Listeners []*Listener
}

func (e *Circularity) Error() string {
	names := make([]string, len(e.Listeners))
	for i, l := range e.Listeners {
		names[i] = fmt.Sprintf("%s(%s)", l.Label, l.ID)
	}
	return fmt.Sprintf("circular dependency between listeners: %v", names)
}

// ReadOnlyViolation is raised when a mutation is attempted during the
// read-only (observer) phase of a recalc.
type ReadOnlyViolation struct {
	Subject *Subject
}

func (e *ReadOnlyViolation) Error() string {
	return fmt.Sprintf("reactive: mutation of subject %s attempted during read-only phase", e.Subject.ID)
}

// InactiveUse is raised when a History/Controller operation that requires an
// active atomic scope is called outside of one.
type InactiveUse struct {
	Op string
}

func (e *InactiveUse) Error() string {
	return fmt.Sprintf("reactive: %s called outside an atomic scope", e.Op)
}

// NonHashable is raised when a collection that requires its values to be
// usable as map keys (collections.Hub's put/get) is given one that isn't:
// Go map keys must be comparable, and this error names the offending value
// instead of letting a runtime panic surface from inside the map itself.
type NonHashable struct {
	Value any
}

func (e *NonHashable) Error() string {
	return fmt.Sprintf("reactive: value %#v is not hashable", e.Value)
}
