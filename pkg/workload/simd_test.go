// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload_test

import (
	"testing"

	"github.com/perfprobe/linuxbench/pkg/workload"
	"github.com/stretchr/testify/assert"
)

func makeFloats(n int, base float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = base + float32(i)
	}
	return out
}

func TestSIMDAdd_AllVariantsAgree(t *testing.T) {
	a := makeFloats(19, 1)
	b := makeFloats(19, 100)

	scalar := make([]float32, 19)
	hinted := make([]float32, 19)
	v128 := make([]float32, 19)
	v256 := make([]float32, 19)

	workload.SIMDAddScalar(scalar, a, b)
	workload.SIMDAddAutoVecHinted(hinted, a, b)
	workload.SIMDAdd128(v128, a, b)
	workload.SIMDAdd256(v256, a, b)

	assert.Equal(t, scalar, hinted)
	assert.Equal(t, scalar, v128)
	assert.Equal(t, scalar, v256)
}

func TestDotProduct_ScalarMatchesVector(t *testing.T) {
	a := makeFloats(17, 1)
	b := makeFloats(17, 2)

	scalar := workload.DotProductScalar(a, b)
	vector := workload.DotProductVector(a, b, 4)
	assert.InDelta(t, scalar, vector, 0.01)
}
