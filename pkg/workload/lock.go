// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/perfprobe/linuxbench/internal/affinity"
	"golang.org/x/sync/errgroup"
)

// LockKind selects the synchronization primitive LockContention exercises.
type LockKind int

const (
	BusyWaitLock LockKind = iota
	MutexLock
	AtomicAddLock
)

// busySpinlock is a trivial test-and-set spinlock, grounding the
// "busy-wait lock" variant distinct from the runtime-scheduled sync.Mutex.
type busySpinlock struct{ state int32 }

func (s *busySpinlock) Lock() {
	for !atomic.CompareAndSwapInt32(&s.state, 0, 1) {
		runtime.Gosched()
	}
}

func (s *busySpinlock) Unlock() { atomic.StoreInt32(&s.state, 0) }

// LockContention runs threadCount goroutines, each locked to a CPU
// round-robin over the provided cpus, incrementing a shared counter
// iterationsPerThread times under the given lock kind. Returns the final
// counter value, which must equal threadCount*iterationsPerThread when the
// chosen primitive provides correct mutual exclusion (AtomicAddLock
// verifies this without any lock at all).
func LockContention(kind LockKind, threadCount int, iterationsPerThread uint64, cpus []int) (uint64, error) {
	var counter uint64
	var spin busySpinlock
	var mu sync.Mutex

	g := new(errgroup.Group)
	for t := 0; t < threadCount; t++ {
		t := t
		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if len(cpus) > 0 {
				cpu := cpus[t%len(cpus)]
				if unlock, err := affinity.LockToCPU(cpu); err == nil {
					defer unlock()
				}
			}

			switch kind {
			case BusyWaitLock:
				for i := uint64(0); i < iterationsPerThread; i++ {
					spin.Lock()
					counter++
					spin.Unlock()
				}
			case MutexLock:
				for i := uint64(0); i < iterationsPerThread; i++ {
					mu.Lock()
					counter++
					mu.Unlock()
				}
			case AtomicAddLock:
				for i := uint64(0); i < iterationsPerThread; i++ {
					atomic.AddUint64(&counter, 1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return atomic.LoadUint64(&counter), nil
}
