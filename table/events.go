// Copyright (C) 2026 dof engine contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package table

import "github.com/dofsim/engine/refs"

// EventKind tags the semantics of an ElementEvent.
type EventKind int

const (
	// EventCreate marks an index that received a brand new element.
	EventCreate EventKind = iota
	// EventDestroy marks the tail index that was dropped by a
	// swap-remove.
	EventDestroy
	// EventMove marks an index that received an element swapped in
	// from elsewhere (same-table swap-remove) or moved in from
	// another table (Database.MoveTo).
	EventMove
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventDestroy:
		return "destroy"
	case EventMove:
		return "move"
	default:
		return "unknown"
	}
}

// ElementEvent is the sum-type value stored in a table's built-in event
// row. FromTable/FromIndex are only meaningful when Kind == EventMove and
// the move originated in another table (Database.MoveTo); a same-table
// swap-remove move leaves them zero.
type ElementEvent struct {
	Kind      EventKind
	FromTable refs.TableID
	FromIndex int
}
