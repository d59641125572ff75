// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"testing"

	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Structural checks over the whole catalog: every registered scenario must
// declare a schema whose condition-parameter columns line up with the
// parameters each condition actually carries, in order — the emitter
// rejects any record whose column count drifts from the header, so a
// mismatch here would zero out a whole scenario at runtime.
func TestCatalog_SchemaMatchesConditionParams(t *testing.T) {
	names := scenario.Names()
	require.NotEmpty(t, names)

	for _, name := range names {
		factory, ok := scenario.Lookup(name)
		require.True(t, ok)
		s := factory()

		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, s.Name())

			cols := s.Schema()
			require.GreaterOrEqual(t, len(cols), 10)
			assert.Equal(t, "run_index", cols[0])
			assert.Equal(t, "condition", cols[1])

			seen := map[string]bool{}
			for _, c := range cols {
				assert.False(t, seen[c], "duplicate column %q", c)
				seen[c] = true
			}
			assert.True(t, seen["runtime_ns"])
			assert.True(t, seen["start_cpu"])

			conds := s.Conditions()
			require.NotEmpty(t, conds)
			for _, cond := range conds {
				require.NotEmpty(t, cond.Label)
				require.Len(t, cond.Params, countParamColumns(cols))
				for i, p := range cond.Params {
					assert.Equal(t, cols[2+i], p.Name,
						"condition %q param %d out of schema order", cond.Label, i)
				}
			}

			assert.Greater(t, s.RunsPerCondition(), 0)
			assert.NoError(t, s.Close())
		})
	}
}

// countParamColumns returns how many schema columns sit between the
// run/condition identity pair and the snapshot block.
func countParamColumns(cols []string) int {
	for i := 2; i < len(cols); i++ {
		if cols[i] == "timestamp_ns" {
			return i - 2
		}
	}
	return 0
}

func TestCatalog_AllScenariosRegistered(t *testing.T) {
	expected := []string{
		"atomics", "branchprediction", "cachehierarchy", "falsesharing",
		"fileio", "hugepages", "lockscaling", "memaccess", "memstream",
		"mixed", "nicelevels", "nullbaseline", "numalocality", "pinned", "processcreate",
		"rwlockscaling", "simd", "tlbpressure",
	}
	names := scenario.Names()
	for _, name := range expected {
		assert.Contains(t, names, name)
	}
}
