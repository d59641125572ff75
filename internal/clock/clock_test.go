// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package clock_test

import (
	"testing"

	"github.com/perfprobe/linuxbench/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_Monotonic(t *testing.T) {
	a, err := clock.Now()
	require.NoError(t, err)

	b, err := clock.Now()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, b, a)
	assert.Greater(t, a, uint64(0))
}

func TestNow_SmallOverhead(t *testing.T) {
	start, err := clock.Now()
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		_, err := clock.Now()
		require.NoError(t, err)
	}

	end, err := clock.Now()
	require.NoError(t, err)

	// 1000 calls shouldn't take more than a few milliseconds even on a
	// loaded CI box; this is a sanity bound, not a precision benchmark.
	assert.Less(t, end-start, uint64(50_000_000))
}
