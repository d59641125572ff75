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

func TestProcessCreate_PosixSpawnLike(t *testing.T) {
	code, err := workload.ProcessCreate(workload.PosixSpawnCreate)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestProcessCreate_Fork(t *testing.T) {
	if _, err := workload.ProcessCreate(workload.ForkCreate); err != nil {
		t.Skipf("fork-exec unavailable in this sandbox: %v", err)
	}
}
