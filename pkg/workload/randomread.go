// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import "math/rand"

// BuildRandomIndices pre-generates count indices uniformly distributed over
// [0, bufLen), with no dependency between successive indices (unlike
// BuildChasePermutation's chain, any index can be computed independent of
// the read at the prior index), seeded for reproducibility.
func BuildRandomIndices(count, bufLen int, seed int64) []int {
	r := rand.New(rand.NewSource(seed))
	indices := make([]int, count)
	for i := range indices {
		indices[i] = r.Intn(bufLen)
	}
	return indices
}

// RandomRead reads buf at each of indices in order and returns the
// accumulated sum — pure random bandwidth, no load-to-use dependency chain.
func RandomRead(buf []byte, indices []int) uint64 {
	var acc uint64
	for _, idx := range indices {
		acc += uint64(buf[idx])
	}
	return acc
}
