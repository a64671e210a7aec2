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

package query

// Pinning constrains which worker may dequeue a task's node.
type Pinning int

const (
	// PinNone lets any worker run the task.
	PinNone Pinning = iota
	// PinMainThread restricts the task to worker 0.
	PinMainThread
	// PinThreadID restricts the task to a specific worker ID (see
	// PinSpec.ThreadID).
	PinThreadID
	// PinSynchronous forces the task to run inline, on the thread that
	// would otherwise schedule the next node, between the previous and
	// next graph nodes.
	PinSynchronous
)

// PinSpec carries a Pinning and, for PinThreadID, which worker.
type PinSpec struct {
	Mode     Pinning
	ThreadID int
}

// Config exposes a mutable work-item count and batch size that the
// scheduler reads at dispatch time, letting a predecessor task determine
// how many sub-partitions a parallel task is split into.
type Config struct {
	// WorkItemCount is the total number of work items (N in spec.md
	// 4.4's ceil(N/B) partitioning).
	WorkItemCount int
	// BatchSize is B. A value of 0 means the task runs as a single
	// partition (no inner parallelism).
	BatchSize int
}

// Partitions returns the (begin, end) ranges the scheduler will dispatch
// for this Config, in order. Exposed so tests and the scheduler share
// exactly one implementation of the ceil(N/B) rule.
func (c Config) Partitions() [][2]int {
	n, b := c.WorkItemCount, c.BatchSize
	if n <= 0 {
		return nil
	}
	if b <= 0 {
		return [][2]int{{0, n}}
	}
	out := make([][2]int, 0, (n+b-1)/b)
	for begin := 0; begin < n; begin += b {
		end := begin + b
		if end > n {
			end = n
		}
		out = append(out, [2]int{begin, end})
	}
	return out
}
