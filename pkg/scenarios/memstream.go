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
	scenario.Register("memstream", func() scenario.Scenario { return newMemStream(logr.Discard()) })
}

const memStreamBufferSize = 256 << 20

// memStream measures sequential read, sequential write, copy, and strided
// read bandwidth over one main-memory-sized buffer. Strided reads touch one
// byte per stride-many cache lines, so their effective bandwidth falls as
// stride grows while per-line latency climbs.
type memStream struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type memStreamCondition struct {
	pattern string
	stride  int
	buf     []byte
	dst     []byte
}

func newMemStream(logger logr.Logger) *memStream {
	b, hw := newBracket(logger)
	return &memStream{bracket: b, hw: hw}
}

func (s *memStream) Name() string { return "memstream" }

func (s *memStream) Schema() []string {
	return schema([]string{"access_pattern", "buffer_size"}, true, "bandwidth_gbs")
}

func (s *memStream) Preconditions(ctx context.Context) error { return nil }

func (s *memStream) Conditions() []scenario.Condition {
	patterns := []string{"seq_read", "seq_write", "copy", "stride2", "stride4", "stride8", "stride16"}
	var conds []scenario.Condition
	for _, pattern := range patterns {
		conds = append(conds, scenario.Condition{
			Label: pattern,
			Params: []scenario.Param{
				{Name: "access_pattern", Value: pattern},
				{Name: "buffer_size", Value: memStreamBufferSize},
			},
		})
	}
	return conds
}

func (s *memStream) RunsPerCondition() int { return 10 }

func (s *memStream) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	mc := &memStreamCondition{pattern: cond.Params[0].Value.(string)}
	mc.buf = make([]byte, memStreamBufferSize)
	workload.Sink += workload.StreamSequentialWrite(mc.buf)
	if mc.pattern == "copy" {
		mc.dst = make([]byte, memStreamBufferSize)
	}
	fmt.Sscanf(mc.pattern, "stride%d", &mc.stride)
	return mc, nil
}

func (s *memStream) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	mc := handle.(*memStreamCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var r uint64
	switch {
	case mc.pattern == "seq_read":
		r = workload.StreamSequentialRead(mc.buf)
	case mc.pattern == "seq_write":
		r = workload.StreamSequentialWrite(mc.buf)
	case mc.pattern == "copy":
		r = workload.StreamCopy(mc.dst, mc.buf)
	default:
		r = workload.StreamStrideRead(mc.buf, mc.stride)
	}
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r

	// Bytes that crossed the memory interface: the full buffer for the
	// sequential patterns (twice for copy), one cache line per touch for
	// the strided reads.
	bytes := float64(memStreamBufferSize)
	switch {
	case mc.pattern == "copy":
		bytes *= 2
	case mc.stride > 1:
		touches := memStreamBufferSize / (mc.stride * workload.CacheLineSize)
		bytes = float64(touches * workload.CacheLineSize)
	}
	var gbs float64
	if snap.RuntimeNS > 0 {
		gbs = bytes / float64(snap.RuntimeNS)
	}
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("bandwidth_gbs", emit.Rate6(gbs))
	return nil
}

func (s *memStream) ReleaseCondition(handle any) error { return nil }

func (s *memStream) Close() error {
	closeHW(s.hw)
	return nil
}
