// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"golang.org/x/sync/errgroup"
)

// paddedCounter occupies one full cache line so that no two goroutines'
// counters can share a line; its companion "packed" layout is a plain
// []uint64 slice where adjacent slots do share a line.
type paddedCounter struct {
	value uint64
	_     [CacheLineSize - 8]byte
}

// FalseSharingPacked runs threadCount goroutines, each incrementing its own
// slot of a single tightly-packed []uint64 (adjacent counters on the same
// cache line, inducing cross-core invalidation traffic), iterations times
// each. Returns the sum of all final counter values.
func FalseSharingPacked(threadCount int, iterations uint64) (uint64, error) {
	counters := make([]uint64, threadCount)
	g := new(errgroup.Group)
	for t := 0; t < threadCount; t++ {
		t := t
		g.Go(func() error {
			for i := uint64(0); i < iterations; i++ {
				counters[t]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var sum uint64
	for _, c := range counters {
		sum += c
	}
	return sum, nil
}

// FalseSharingPadded is identical to FalseSharingPacked except each
// goroutine's counter is cache-line-padded so no invalidation traffic
// crosses threads.
func FalseSharingPadded(threadCount int, iterations uint64) (uint64, error) {
	counters := make([]paddedCounter, threadCount)
	g := new(errgroup.Group)
	for t := 0; t < threadCount; t++ {
		t := t
		g.Go(func() error {
			for i := uint64(0); i < iterations; i++ {
				counters[t].value++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var sum uint64
	for i := range counters {
		sum += counters[i].value
	}
	return sum, nil
}
