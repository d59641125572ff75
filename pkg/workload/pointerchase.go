// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import "math/rand"

// BuildChasePermutation builds a permutation-based pointer chain over n
// slots: chain[i] holds the index of i's successor in a single cycle
// covering all n slots, so a chase of n dependent reads visits every slot
// exactly once before repeating. Seeded for reproducibility, and must be
// called before the measured region since it allocates and shuffles.
func BuildChasePermutation(n int, seed int64) []int {
	chain := make([]int, n)
	order := rand.New(rand.NewSource(seed)).Perm(n)
	for i := 0; i < n; i++ {
		chain[order[i]] = order[(i+1)%n]
	}
	return chain
}

// RandomChase performs iterations dependent reads following chain, each
// read's address depending on the prior read's value — this data
// dependency is what makes the kernel measure load-to-use latency rather
// than bandwidth.
func RandomChase(chain []int, iterations uint64) uint64 {
	idx := 0
	for i := uint64(0); i < iterations; i++ {
		idx = chain[idx]
	}
	return uint64(idx)
}
