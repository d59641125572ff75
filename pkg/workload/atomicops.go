// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// NonAtomicIncrement increments a plain uint64 iterations times with no
// synchronization at all — a single-threaded baseline; calling it
// concurrently would race by design, so it is only ever exercised with
// threadCount=1 by the scenario driver.
func NonAtomicIncrement(iterations uint64) uint64 {
	var v uint64
	for i := uint64(0); i < iterations; i++ {
		v++
	}
	return v
}

// RelaxedAtomicAdd performs iterations atomic adds to a shared counter and
// returns its final value. Go's atomic package offers no weaker-than-
// sequentially-consistent ordering, so this and AtomicAddContended share an
// implementation; they are named separately because the scenario varies
// thread count, not memory order, between them.
func RelaxedAtomicAdd(iterations uint64) uint64 {
	var v uint64
	for i := uint64(0); i < iterations; i++ {
		atomic.AddUint64(&v, 1)
	}
	return v
}

// AtomicCAS performs iterations compare-and-swap loops incrementing a
// shared counter by 1 each time, retrying on contention.
func AtomicCAS(iterations uint64) uint64 {
	var v uint64
	for i := uint64(0); i < iterations; i++ {
		for {
			old := atomic.LoadUint64(&v)
			if atomic.CompareAndSwapUint64(&v, old, old+1) {
				break
			}
		}
	}
	return v
}

// AtomicAddContended runs threadCount goroutines each performing
// iterationsPerThread atomic adds to one shared counter, and returns its
// final value.
func AtomicAddContended(threadCount int, iterationsPerThread uint64) (uint64, error) {
	var v uint64
	g := new(errgroup.Group)
	for t := 0; t < threadCount; t++ {
		g.Go(func() error {
			for i := uint64(0); i < iterationsPerThread; i++ {
				atomic.AddUint64(&v, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return atomic.LoadUint64(&v), nil
}
