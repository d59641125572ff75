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
	"github.com/stretchr/testify/require"
)

func TestLockContention_BusyWait_Correct(t *testing.T) {
	total, err := workload.LockContention(workload.BusyWaitLock, 4, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), total)
}

func TestLockContention_Mutex_Correct(t *testing.T) {
	total, err := workload.LockContention(workload.MutexLock, 4, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), total)
}

func TestLockContention_AtomicAdd_Correct(t *testing.T) {
	total, err := workload.LockContention(workload.AtomicAddLock, 4, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), total)
}

func TestLockContention_WithCPUPinning(t *testing.T) {
	total, err := workload.LockContention(workload.AtomicAddLock, 2, 100, []int{0})
	require.NoError(t, err)
	assert.Equal(t, uint64(200), total)
}
