// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("memaccess", func() scenario.Scenario { return newMemAccess(logr.Discard()) })
}

const (
	memAccessIterations = 64_000_000
	memAccessSeed       = 1234
)

// memAccess contrasts dependent pointer chasing (load-to-use latency) with
// independent random reads (random bandwidth) over working sets spanning
// the cache hierarchy. Slot counts are chosen so the chase chain itself is
// the working set: 8 bytes per slot on 64-bit.
type memAccess struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type memAccessCondition struct {
	pattern string
	chain   []int
	buf     []byte
	indices []int
}

func newMemAccess(logger logr.Logger) *memAccess {
	b, hw := newBracket(logger)
	return &memAccess{bracket: b, hw: hw}
}

func (s *memAccess) Name() string { return "memaccess" }

func (s *memAccess) Schema() []string {
	return schema([]string{"pattern", "buffer_size"}, true, "ns_per_access")
}

func (s *memAccess) Preconditions(ctx context.Context) error { return nil }

func (s *memAccess) Conditions() []scenario.Condition {
	sizes := []int{32 << 10, 512 << 10, 8 << 20, 128 << 20}
	var conds []scenario.Condition
	for _, sz := range sizes {
		for _, pattern := range []string{"chase", "random"} {
			conds = append(conds, scenario.Condition{
				Label: fmt.Sprintf("%s_%s", pattern, humanSize(sz)),
				Params: []scenario.Param{
					{Name: "pattern", Value: pattern},
					{Name: "buffer_size", Value: sz},
				},
			})
		}
	}
	return conds
}

func (s *memAccess) RunsPerCondition() int { return 10 }

func (s *memAccess) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	mc := &memAccessCondition{pattern: cond.Params[0].Value.(string)}
	size := cond.Params[1].Value.(int)
	if mc.pattern == "chase" {
		mc.chain = workload.BuildChasePermutation(size/8, memAccessSeed)
	} else {
		mc.buf = make([]byte, size)
		workload.Sink += workload.StreamSequentialWrite(mc.buf)
		mc.indices = workload.BuildRandomIndices(memAccessIterations, size, memAccessSeed)
	}
	return mc, nil
}

func (s *memAccess) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	mc := handle.(*memAccessCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var r uint64
	var accesses int
	if mc.pattern == "chase" {
		r = workload.RandomChase(mc.chain, memAccessIterations)
		accesses = memAccessIterations
	} else {
		r = workload.RandomRead(mc.buf, mc.indices)
		accesses = len(mc.indices)
	}
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("ns_per_access", emit.Rate6(nsPer(snap.RuntimeNS, accesses)))
	return nil
}

func (s *memAccess) ReleaseCondition(handle any) error { return nil }

func (s *memAccess) Close() error {
	closeHW(s.hw)
	return nil
}
