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

func TestFalseSharingPacked_CorrectTotal(t *testing.T) {
	sum, err := workload.FalseSharingPacked(4, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), sum)
}

func TestFalseSharingPadded_CorrectTotal(t *testing.T) {
	sum, err := workload.FalseSharingPadded(4, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), sum)
}
