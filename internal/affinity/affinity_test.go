// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package affinity_test

import (
	"runtime"
	"testing"

	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineCPUCount(t *testing.T) {
	n, err := affinity.OnlineCPUCount()
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestPin_CurrentCPU(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer affinity.Reset()

	require.NoError(t, affinity.Pin(0))
	assert.Equal(t, 0, affinity.CurrentCPU())
}

func TestPin_InvalidCPU(t *testing.T) {
	n, err := affinity.OnlineCPUCount()
	require.NoError(t, err)

	err = affinity.Pin(n + 1000)
	assert.Error(t, err)
}

func TestSetNice_OutOfRange(t *testing.T) {
	assert.Error(t, affinity.SetNice(20))
	assert.Error(t, affinity.SetNice(-21))
}

func TestYield(t *testing.T) {
	assert.NoError(t, affinity.Yield())
}
