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
	scenario.Register("tlbpressure", func() scenario.Scenario { return newTLBPressure(logr.Discard()) })
}

// tlbPressure touches one byte per page at strides {1,2,4,8,16} pages over
// buffers from 16 KiB to 16 MiB — below to far above TLB reach. For a
// fixed stride, ns-per-access must not decrease as the buffer grows past
// TLB reach; for a fixed size past reach, it must not decrease in stride.
type tlbPressure struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type tlbCondition struct {
	buf    []byte
	stride int
}

func newTLBPressure(logger logr.Logger) *tlbPressure {
	b, hw := newBracket(logger)
	return &tlbPressure{bracket: b, hw: hw}
}

func (s *tlbPressure) Name() string { return "tlbpressure" }

func (s *tlbPressure) Schema() []string {
	return schema([]string{"buffer_size", "pattern"}, true, "ns_per_access")
}

func (s *tlbPressure) Preconditions(ctx context.Context) error { return nil }

func (s *tlbPressure) Conditions() []scenario.Condition {
	sizes := []int{16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20}
	strides := []int{1, 2, 4, 8, 16}
	var conds []scenario.Condition
	for _, sz := range sizes {
		for _, stride := range strides {
			conds = append(conds, scenario.Condition{
				Label: fmt.Sprintf("%s_stride%d", humanSize(sz), stride),
				Params: []scenario.Param{
					{Name: "buffer_size", Value: sz},
					{Name: "pattern", Value: fmt.Sprintf("stride%d", stride)},
				},
			})
		}
	}
	return conds
}

func (s *tlbPressure) RunsPerCondition() int { return 10 }

func (s *tlbPressure) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	size := cond.Params[0].Value.(int)
	buf := make([]byte, size)
	workload.Sink += workload.StreamSequentialWrite(buf)
	stride := 1
	fmt.Sscanf(cond.Params[1].Value.(string), "stride%d", &stride)
	return &tlbCondition{buf: buf, stride: stride}, nil
}

func (s *tlbPressure) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	tc := handle.(*tlbCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.TLBPressure(tc.buf, tc.stride)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	accesses := len(tc.buf) / (tc.stride * workload.PageSize4K)
	if accesses < 1 {
		accesses = 1
	}
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("ns_per_access", emit.Rate6(nsPer(snap.RuntimeNS, accesses)))
	return nil
}

func (s *tlbPressure) ReleaseCondition(handle any) error { return nil }

func (s *tlbPressure) Close() error {
	closeHW(s.hw)
	return nil
}
