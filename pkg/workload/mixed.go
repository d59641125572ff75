// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

// Mixed interleaves a memory access (within a working-set-sized index list)
// with computeOpsPerAccess compute operations, for iterations total
// accesses, and returns the accumulator.
func Mixed(buf []byte, indices []int, computeOpsPerAccess int, iterations uint64) uint64 {
	var acc uint64
	n := len(indices)
	for i := uint64(0); i < iterations; i++ {
		idx := indices[int(i)%n]
		acc += uint64(buf[idx])
		for c := 0; c < computeOpsPerAccess; c++ {
			acc = acc*2654435761 + 1
		}
	}
	return acc
}

// MixedPhased grows the working set across phases phases, using a growing
// prefix of indices in each phase (phase p uses the first
// len(indices)*(p+1)/phases entries), simulating a workload whose
// footprint expands over time.
func MixedPhased(buf []byte, indices []int, computeOpsPerAccess int, iterationsPerPhase uint64, phases int) uint64 {
	var acc uint64
	total := len(indices)
	for p := 0; p < phases; p++ {
		width := total * (p + 1) / phases
		if width < 1 {
			width = 1
		}
		acc += Mixed(buf, indices[:width], computeOpsPerAccess, iterationsPerPhase)
	}
	return acc
}

// MixedBursty alternates compute-heavy and memory-heavy windows every 1000
// iterations: even windows favor compute, odd windows favor the memory
// access, both windows touching the index list so the pattern stays
// representative across the whole run.
func MixedBursty(buf []byte, indices []int, iterations uint64) uint64 {
	const windowSize = 1000
	var acc uint64
	n := len(indices)
	for i := uint64(0); i < iterations; i++ {
		idx := indices[int(i)%n]
		window := (i / windowSize) % 2
		if window == 0 {
			for c := 0; c < 32; c++ {
				acc = acc*2654435761 + 1
			}
			acc += uint64(buf[idx])
		} else {
			acc += uint64(buf[idx])
			acc = acc*2654435761 + 1
		}
	}
	return acc
}
