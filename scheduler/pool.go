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
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/dofsim/engine/query"
	"github.com/dofsim/engine/table"
)

// ThreadLocal is the per-worker scratch space passed through TaskArgs:
// a random source and a thread-local database that accumulates
// allocations made while the tick is in flight. Per spec.md 5, new
// element allocations happen in these local databases; the caller is
// responsible for merging them into the main Database during the next
// tick's preProcessEvents phase. No package in this module performs
// that merge; package physics does not allocate in them.
type ThreadLocal struct {
	ThreadID int
	Rand     *rand.Rand
	Local    *table.Database

	// pad keeps adjacent ThreadLocal entries in Scheduler.locals on
	// separate cache lines, since every worker writes to its own entry
	// every tick and false sharing between neighbours would otherwise
	// show up directly in tick latency.
	_ cpu.CacheLinePad
}

// Scheduler owns a bounded worker pool (size W) plus the conceptual
// main thread (ID 0) and drives built Graphs to completion.
type Scheduler struct {
	workers int
	locals  []*ThreadLocal
}

// New returns a Scheduler with the given worker count. A count <= 0
// defaults to runtime.NumCPU(), matching plan.Tree.exec's parallelism
// default. If resolver is non-nil, each worker is given its own
// thread-local Database sharing resolver's Resolver.
func New(workers int, resolver *table.Database) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Scheduler{workers: workers}
	s.locals = make([]*ThreadLocal, workers+1)
	for i := range s.locals {
		s.locals[i] = &ThreadLocal{
			ThreadID: i,
			Rand:     rand.New(rand.NewSource(int64(i) + 1)),
		}
		if resolver != nil {
			s.locals[i].Local = table.NewDatabase(resolver.Resolver())
		}
	}
	return s
}

// Workers returns the configured worker count (not counting the main
// thread).
func (s *Scheduler) Workers() int { return s.workers }

// Local returns the ThreadLocal for threadID (0 is the main thread,
// 1..Workers() are the pool workers).
func (s *Scheduler) Local(threadID int) *ThreadLocal { return s.locals[threadID] }

type runState struct {
	mu        sync.Mutex
	cond      *sync.Cond
	ready     []int
	remaining []int32
	done      int
	total     int
	firstErr  error
}

func (rs *runState) recordErr(err error) {
	rs.mu.Lock()
	if rs.firstErr == nil {
		rs.firstErr = err
	}
	rs.mu.Unlock()
}

func allowed(pin query.PinSpec, threadID int) bool {
	switch pin.Mode {
	case query.PinMainThread:
		return threadID == 0
	case query.PinThreadID:
		return threadID == pin.ThreadID
	default: // PinNone, PinSynchronous
		return true
	}
}

func pickReady(rs *runState, g *Graph, threadID int) (idx, pos int, found bool) {
	for pos, idx = range rs.ready {
		if allowed(g.nodes[idx].Pin, threadID) {
			return idx, pos, true
		}
	}
	return 0, 0, false
}

func partitionsFor(c *query.Config) [][2]int {
	if c == nil {
		return [][2]int{{0, 0}}
	}
	p := c.Partitions()
	if len(p) == 0 {
		return [][2]int{{0, 0}}
	}
	return p
}

// Run executes every node of g to completion. It blocks the calling
// goroutine, which acts as the conceptual main thread (ID 0): it both
// participates in running ready, unpinned/main-pinned nodes and waits
// for the pool workers to finish. Edge order is honoured as
// happens-before: per spec.md 4.4, a node does not begin until every
// sub-partition of its predecessors has returned.
func (s *Scheduler) Run(g *Graph) error {
	rs := &runState{
		remaining: make([]int32, len(g.nodes)),
		total:     len(g.nodes),
	}
	rs.cond = sync.NewCond(&rs.mu)
	for i, n := range g.nodes {
		rs.remaining[i] = int32(n.predecessors)
		if n.predecessors == 0 {
			rs.ready = append(rs.ready, i)
		}
	}

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for w := 1; w <= s.workers; w++ {
		go func(id int) {
			defer wg.Done()
			s.runWorker(id, g, rs)
		}(w)
	}
	s.runWorker(0, g, rs)
	wg.Wait()

	return rs.firstErr
}

func (s *Scheduler) runWorker(id int, g *Graph, rs *runState) {
	for {
		rs.mu.Lock()
		if rs.done >= rs.total {
			rs.mu.Unlock()
			return
		}
		idx, pos, found := pickReady(rs, g, id)
		if !found {
			rs.cond.Wait()
			rs.mu.Unlock()
			continue
		}
		rs.ready = append(rs.ready[:pos], rs.ready[pos+1:]...)
		rs.mu.Unlock()

		s.execNode(id, g.nodes[idx], rs)

		rs.mu.Lock()
		rs.done++
		for _, succ := range g.nodes[idx].successors {
			rs.remaining[succ]--
			if rs.remaining[succ] == 0 {
				rs.ready = append(rs.ready, succ)
			}
		}
		rs.cond.Broadcast()
		rs.mu.Unlock()
	}
}

func (s *Scheduler) execNode(callerID int, n *graphNode, rs *runState) {
	partitions := partitionsFor(n.Config)

	if len(partitions) <= 1 || n.Pin.Mode == query.PinSynchronous {
		for _, p := range partitions {
			args := TaskArgs{ThreadID: callerID, Begin: p[0], End: p[1], Local: s.locals[callerID]}
			if err := n.Run(args); err != nil {
				rs.recordErr(fmt.Errorf("scheduler: task %q: %w", n.Name, err))
			}
		}
		return
	}

	// idPool leases thread-local slots to concurrently-running
	// partitions: every worker ID is a candidate, plus the caller's own
	// ID when the caller is a pool worker (it is blocked in wg.Wait()
	// below for the duration of this call, so its slot is genuinely
	// idle). Main thread ID 0 is never leased out when some other
	// worker is the caller, since thread 0 may be busy elsewhere in the
	// graph. A slot is returned to the pool only once its partition has
	// finished, so two partitions can never be handed the same
	// ThreadLocal concurrently, unlike a plain counting semaphore keyed
	// on the static partition index.
	idPool := make(chan int, s.workers+1)
	for w := 1; w <= s.workers; w++ {
		idPool <- w
	}
	if callerID == 0 {
		idPool <- 0
	}

	var wg sync.WaitGroup
	for _, p := range partitions {
		tid := <-idPool
		wg.Add(1)
		go func(p [2]int, tid int) {
			defer wg.Done()
			defer func() { idPool <- tid }()
			args := TaskArgs{ThreadID: tid, Begin: p[0], End: p[1], Local: s.locals[tid]}
			if err := n.Run(args); err != nil {
				rs.recordErr(fmt.Errorf("scheduler: task %q (partition [%d,%d)): %w", n.Name, p[0], p[1], err))
			}
		}(p, tid)
	}
	wg.Wait()
}
