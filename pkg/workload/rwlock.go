// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// RWLockScaling runs threadCount goroutines against a shared sync.RWMutex
// and counter for iterationsPerThread operations each; each operation is a
// write (lock/mutate) with probability writerPercent/100, otherwise a read
// (read-lock/read). Returns the number of write operations performed,
// which must equal the mutated counter's growth.
func RWLockScaling(threadCount int, iterationsPerThread uint64, writerPercent int, seed int64) (uint64, error) {
	var mu sync.RWMutex
	var counter uint64
	var writes uint64

	g := new(errgroup.Group)
	for t := 0; t < threadCount; t++ {
		t := t
		g.Go(func() error {
			r := rand.New(rand.NewSource(seed + int64(t)))
			var localRead uint64
			for i := uint64(0); i < iterationsPerThread; i++ {
				if r.Intn(100) < writerPercent {
					mu.Lock()
					counter++
					mu.Unlock()
					atomic.AddUint64(&writes, 1)
				} else {
					mu.RLock()
					localRead += counter
					mu.RUnlock()
				}
			}
			atomic.AddUint64(&Sink, localRead)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return atomic.LoadUint64(&writes), nil
}
