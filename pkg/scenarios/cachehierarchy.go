// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("cachehierarchy", func() scenario.Scenario { return newCacheHierarchy(logr.Discard()) })
}

// cacheHierarchy reads buffers sized to land in L1, L2, LLC, and main
// memory sequentially, 10 runs each. Median per-byte runtime must be
// non-decreasing in buffer size.
type cacheHierarchy struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

func newCacheHierarchy(logger logr.Logger) *cacheHierarchy {
	b, hw := newBracket(logger)
	return &cacheHierarchy{bracket: b, hw: hw}
}

func (s *cacheHierarchy) Name() string { return "cachehierarchy" }

func (s *cacheHierarchy) Schema() []string {
	return schema([]string{"buffer_size"}, true, "ns_per_element")
}

func (s *cacheHierarchy) Preconditions(ctx context.Context) error { return nil }

func (s *cacheHierarchy) Conditions() []scenario.Condition {
	sizes := []int{8 << 10, 128 << 10, 4 << 20, 64 << 20}
	conds := make([]scenario.Condition, 0, len(sizes))
	for _, sz := range sizes {
		conds = append(conds, scenario.Condition{
			Label:  humanSize(sz),
			Params: []scenario.Param{{Name: "buffer_size", Value: sz}},
		})
	}
	return conds
}

func (s *cacheHierarchy) RunsPerCondition() int { return 10 }

func (s *cacheHierarchy) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	size := cond.Params[0].Value.(int)
	buf := make([]byte, size)
	// Warmup write faults every page in before the first measured read.
	workload.Sink += workload.StreamSequentialWrite(buf)
	return buf, nil
}

func (s *cacheHierarchy) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	buf := handle.([]byte)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.StreamSequentialRead(buf)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("ns_per_element", emit.Rate6(nsPer(snap.RuntimeNS, len(buf))))
	return nil
}

func (s *cacheHierarchy) ReleaseCondition(handle any) error { return nil }

func (s *cacheHierarchy) Close() error {
	closeHW(s.hw)
	return nil
}
