// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"math/rand"
	"sort"
)

// BuildBranchInput generates n int32 values uniformly distributed over
// [0, 256), sorted if sorted is true (high branch-prediction accuracy when
// later tested against a fixed threshold) or left in random order
// (low accuracy).
func BuildBranchInput(n int, sorted bool, seed int64) []int32 {
	r := rand.New(rand.NewSource(seed))
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(r.Intn(256))
	}
	if sorted {
		sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })
	}
	return data
}

// BranchSumBranching computes a conditional sum over data using a real
// branch: values at or above the threshold are added, others skipped. Its
// prediction accuracy depends entirely on whether data is sorted.
func BranchSumBranching(data []int32, threshold int32) int64 {
	var sum int64
	for _, v := range data {
		if v >= threshold {
			sum += int64(v)
		}
	}
	return sum
}

// BranchSumBranchless computes the same conditional sum as
// BranchSumBranching but replaces the branch with bit-mask arithmetic, so
// prediction accuracy is irrelevant to its runtime.
func BranchSumBranchless(data []int32, threshold int32) int64 {
	var sum int64
	for _, v := range data {
		// mask is all-ones when v >= threshold, all-zeros otherwise,
		// computed without a conditional branch.
		diff := v - threshold
		mask := int64(^(diff >> 31))
		sum += int64(v) & mask
	}
	return sum
}
