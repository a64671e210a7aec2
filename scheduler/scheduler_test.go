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

package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dofsim/engine/query"
	"github.com/dofsim/engine/table"
)

type rowR struct{ V int }
type rowS struct{ V int }

// TestSchedulerEdges implements spec end-to-end scenario 6: T1 writes R,
// T2 reads R, T3 writes S (independent). T2 must observe T1's writes;
// T3 may run concurrently with T1 and T2.
func TestSchedulerEdges(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	rKey := table.DenseKey[rowR]()
	sKey := table.DenseKey[rowS]()

	t1 := Node{
		Name:   "T1",
		Access: query.AccessSet{Writes: []table.RowKey{rKey}},
		Run:    func(a TaskArgs) error { record("T1"); return nil },
	}
	t2 := Node{
		Name:   "T2",
		Access: query.AccessSet{Reads: []table.RowKey{rKey}},
		Run:    func(a TaskArgs) error { record("T2"); return nil },
	}
	t3 := Node{
		Name:   "T3",
		Access: query.AccessSet{Writes: []table.RowKey{sKey}},
		Run:    func(a TaskArgs) error { record("T3"); return nil },
	}

	g, err := Build([]Node{t1, t2, t3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.nodes[0].successors) != 1 || g.nodes[0].successors[0] != 1 {
		t.Fatalf("expected T1->T2 edge, got successors %v", g.nodes[0].successors)
	}
	if len(g.nodes[2].successors) != 0 {
		t.Fatalf("T3 should have no outgoing edges, got %v", g.nodes[2].successors)
	}

	s := New(4, nil)
	if err := s.Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}

	posT1, posT2 := -1, -1
	for i, name := range order {
		if name == "T1" {
			posT1 = i
		}
		if name == "T2" {
			posT2 = i
		}
	}
	if posT1 == -1 || posT2 == -1 || posT1 > posT2 {
		t.Fatalf("expected T1 before T2 in execution order, got %v", order)
	}
}

func TestReadsDoNotInferEdges(t *testing.T) {
	key := table.DenseKey[rowR]()
	t1 := Node{Name: "A", Access: query.AccessSet{Reads: []table.RowKey{key}}, Run: func(TaskArgs) error { return nil }}
	t2 := Node{Name: "B", Access: query.AccessSet{Reads: []table.RowKey{key}}, Run: func(TaskArgs) error { return nil }}

	g, err := Build([]Node{t1, t2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.nodes[0].successors) != 0 {
		t.Fatalf("two pure reads should not produce an edge, got %v", g.nodes[0].successors)
	}
}

func TestTransitiveReductionDropsRedundantEdge(t *testing.T) {
	a := table.DenseKey[rowR]()
	b := table.DenseKey[rowS]()

	// T1 writes a; T2 reads a and writes b; T3 reads a and b.
	// Raw edges: T1->T2, T1->T3, T2->T3. T1->T3 is redundant given
	// T1->T2->T3.
	t1 := Node{Name: "T1", Access: query.AccessSet{Writes: []table.RowKey{a}}, Run: func(TaskArgs) error { return nil }}
	t2 := Node{Name: "T2", Access: query.AccessSet{Reads: []table.RowKey{a}, Writes: []table.RowKey{b}}, Run: func(TaskArgs) error { return nil }}
	t3 := Node{Name: "T3", Access: query.AccessSet{Reads: []table.RowKey{a, b}}, Run: func(TaskArgs) error { return nil }}

	g, err := Build([]Node{t1, t2, t3})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.nodes[0].successors) != 1 || g.nodes[0].successors[0] != 1 {
		t.Fatalf("expected only T1->T2 to survive reduction, got %v", g.nodes[0].successors)
	}
}

func TestPartitionedDispatch(t *testing.T) {
	var seen int32
	n := Node{
		Name:   "parallel",
		Config: &query.Config{WorkItemCount: 100, BatchSize: 10},
		Run: func(a TaskArgs) error {
			atomic.AddInt32(&seen, int32(a.End-a.Begin))
			return nil
		},
	}
	g, err := Build([]Node{n})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(4, nil)
	if err := s.Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != 100 {
		t.Fatalf("expected all 100 work items covered, got %d", seen)
	}
}

// TestPartitionedDispatchExclusiveSlots guards against two concurrently
// running partitions being handed the same ThreadLocal: each partition
// claims busy[a.ThreadID] with a CAS, yields, then releases it, so any
// aliasing between concurrently-running partitions is caught regardless
// of how the goroutines happen to interleave.
func TestPartitionedDispatchExclusiveSlots(t *testing.T) {
	const workers = 4
	busy := make([]int32, workers+1)
	var aliased int32

	n := Node{
		Name:   "parallel",
		Config: &query.Config{WorkItemCount: 100, BatchSize: 1},
		Run: func(a TaskArgs) error {
			if !atomic.CompareAndSwapInt32(&busy[a.ThreadID], 0, 1) {
				atomic.StoreInt32(&aliased, 1)
				return nil
			}
			runtime.Gosched()
			if !atomic.CompareAndSwapInt32(&busy[a.ThreadID], 1, 0) {
				atomic.StoreInt32(&aliased, 1)
			}
			return nil
		},
	}
	g, err := Build([]Node{n})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(workers, nil)
	if err := s.Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if atomic.LoadInt32(&aliased) != 0 {
		t.Fatalf("two partitions were concurrently handed the same ThreadLocal slot")
	}
}

func TestMainThreadPinning(t *testing.T) {
	var gotThread int32 = -1
	n := Node{
		Name: "pinned",
		Pin:  query.PinSpec{Mode: query.PinMainThread},
		Run: func(a TaskArgs) error {
			atomic.StoreInt32(&gotThread, int32(a.ThreadID))
			return nil
		},
	}
	g, err := Build([]Node{n})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(4, nil)
	if err := s.Run(g); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotThread != 0 {
		t.Fatalf("expected main-thread-pinned task to run on thread 0, got %d", gotThread)
	}
}

func TestTaskErrorPropagates(t *testing.T) {
	n := Node{Name: "fails", Run: func(TaskArgs) error { return errBoom }}
	g, err := Build([]Node{n})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(2, nil)
	if err := s.Run(g); err == nil {
		t.Fatalf("expected Run to surface the task error")
	}
}

var errBoom = &taskError{"boom"}

type taskError struct{ msg string }

func (e *taskError) Error() string { return e.msg }

func TestZeroNodesCompletesImmediately(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s := New(2, nil)
	if err := s.Run(g); err != nil {
		t.Fatalf("Run on empty graph: %v", err)
	}
}
