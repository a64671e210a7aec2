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

// Package scheduler implements the task graph scheduler: it turns a
// declared list of tasks into a DAG with inferred dependency edges and
// drives it to completion on a bounded worker pool.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/dofsim/engine/query"
	"github.com/dofsim/engine/table"
)

// ErrSchedulerOverflow is the fatal error returned when edge inference
// discovers a cycle. Edges are only ever inferred from an earlier
// declaration to a later one, so no node list, in any order, makes Build
// return it; the check guards Build's own graph assembly and never
// reports a runtime condition.
var ErrSchedulerOverflow = errors.New("scheduler: cycle detected in task graph")

// TaskArgs is passed to a Node's Run function for each sub-partition
// dispatched.
type TaskArgs struct {
	// ThreadID is the worker (or 0 for the main thread) executing this
	// partition.
	ThreadID int
	// Begin, End is this partition's half-open range in work-item
	// space.
	Begin, End int
	// Local is the calling worker's thread-local scratch space.
	Local *ThreadLocal
}

// Node is one declared task: its access set (for edge inference), its
// pinning requirement, an optional Config for partitioned dispatch, and
// the function to run.
type Node struct {
	Name   string
	Access query.AccessSet
	Pin    query.PinSpec
	// Config, when non-nil, is read at dispatch time (after all of this
	// node's predecessors have completed) to determine how many
	// sub-partitions to split the work into. A nil Config means the
	// task runs once, as a single partition covering [0,0).
	Config *query.Config
	Run    func(TaskArgs) error
}

type graphNode struct {
	Node
	index        int
	successors   []int
	predecessors int
}

// Graph is the built DAG: a list of nodes in declaration order plus the
// edges inferred from their access sets.
type Graph struct {
	nodes []*graphNode
}

// touches reports whether any key in a appears in b.
func touches(a, b []table.RowKey) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[table.RowKey]struct{}, len(b))
	for _, k := range b {
		set[k] = struct{}{}
	}
	for _, k := range a {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

func needsEdge(a, b query.AccessSet) bool {
	if touches(a.Writes, b.Reads) || touches(a.Writes, b.Writes) {
		return true
	}
	if touches(a.Reads, b.Writes) {
		return true
	}
	// both touch a row marked synchronous
	for _, k := range a.All() {
		if !query.IsSynchronous(k) {
			continue
		}
		for _, k2 := range b.All() {
			if k == k2 {
				return true
			}
		}
	}
	return false
}

// Build infers edges between nodes (declaration order: node i may only
// gain an edge to node j when i<j), reduces the edge set to its
// transitive reduction, and checks that the result is acyclic by
// draining nodes through a predecessor counter per node.
func Build(nodes []Node) (*Graph, error) {
	gnodes := make([]*graphNode, len(nodes))
	for i, n := range nodes {
		gnodes[i] = &graphNode{Node: n, index: i}
	}

	// raw adjacency, i -> j for i<j
	raw := make([][]bool, len(nodes))
	for i := range raw {
		raw[i] = make([]bool, len(nodes))
	}
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if needsEdge(nodes[i].Access, nodes[j].Access) {
				raw[i][j] = true
			}
		}
	}

	reduced := transitiveReduction(raw)

	for i := range reduced {
		for j := range reduced[i] {
			if reduced[i][j] {
				gnodes[i].successors = append(gnodes[i].successors, j)
				gnodes[j].predecessors++
			}
		}
	}

	if err := checkAcyclic(gnodes); err != nil {
		return nil, err
	}

	return &Graph{nodes: gnodes}, nil
}

// transitiveReduction drops any edge i->j for which a longer i->k->...->j
// path already exists, since raw is already a DAG restricted to i<j (no
// cycles are representable), reachability can be computed with a simple
// forward closure per node.
func transitiveReduction(raw [][]bool) [][]bool {
	n := len(raw)
	// reach[i][j] true if j is reachable from i via >=1 edge.
	reach := make([][]bool, n)
	for i := range reach {
		reach[i] = make([]bool, n)
		copy(reach[i], raw[i])
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j < n; j++ {
			if !reach[i][j] {
				continue
			}
			for k := j + 1; k < n; k++ {
				if reach[j][k] {
					reach[i][k] = true
				}
			}
		}
	}

	reduced := make([][]bool, n)
	for i := range reduced {
		reduced[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !raw[i][j] {
				continue
			}
			redundant := false
			for k := i + 1; k < j; k++ {
				if reach[i][k] && reach[k][j] {
					redundant = true
					break
				}
			}
			if !redundant {
				reduced[i][j] = true
			}
		}
	}
	return reduced
}

func checkAcyclic(nodes []*graphNode) error {
	remaining := make([]int, len(nodes))
	for i, n := range nodes {
		remaining[i] = n.predecessors
	}
	queue := make([]int, 0, len(nodes))
	for i, r := range remaining {
		if r == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		visited++
		for _, j := range nodes[i].successors {
			remaining[j]--
			if remaining[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if visited != len(nodes) {
		return fmt.Errorf("scheduler: build graph: %w", ErrSchedulerOverflow)
	}
	return nil
}
