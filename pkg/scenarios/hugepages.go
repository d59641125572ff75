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
	scenario.Register("hugepages", func() scenario.Scenario { return newHugePages(logr.Discard()) })
}

const (
	hugePageBufferSize = 256 << 20
	hugePageStride     = 1
)

// hugePages runs one page-strided access pattern over a buffer backed by
// ordinary pages, transparent-huge-page-hinted pages, and explicit
// MAP_HUGETLB pages. A system with no configured huge-page pool skips the
// explicit condition; the THP hint is advisory, so its records carry a
// degraded flag when the madvise itself failed.
type hugePages struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type hugePageCondition struct {
	buf      *workload.HugePageBuffer
	degraded bool
}

func newHugePages(logger logr.Logger) *hugePages {
	b, hw := newBracket(logger)
	return &hugePages{bracket: b, hw: hw}
}

func (s *hugePages) Name() string { return "hugepages" }

func (s *hugePages) Schema() []string {
	return schema([]string{"pattern", "buffer_size"}, false, "ns_per_access", "degraded")
}

func (s *hugePages) Preconditions(ctx context.Context) error { return nil }

var pageKindNames = []struct {
	kind workload.PageKind
	name string
}{
	{workload.OrdinaryPages, "ordinary"},
	{workload.TransparentHugePages, "thp"},
	{workload.ExplicitHugePages, "hugetlb"},
}

func (s *hugePages) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, pk := range pageKindNames {
		conds = append(conds, scenario.Condition{
			Label: pk.name,
			Params: []scenario.Param{
				{Name: "pattern", Value: pk.name},
				{Name: "buffer_size", Value: hugePageBufferSize},
			},
		})
	}
	return conds
}

func (s *hugePages) RunsPerCondition() int { return 10 }

func (s *hugePages) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	var kind workload.PageKind
	for _, pk := range pageKindNames {
		if pk.name == cond.Params[0].Value.(string) {
			kind = pk.kind
		}
	}
	buf, err := workload.NewHugePageBuffer(hugePageBufferSize, kind)
	if err != nil {
		return nil, scenario.NewSkipCondition(cond.Label, err)
	}
	workload.Sink += workload.StreamSequentialWrite(buf.Bytes())
	return &hugePageCondition{buf: buf, degraded: buf.HintFailed()}, nil
}

func (s *hugePages) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	h := handle.(*hugePageCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.HugePageAccess(h.buf.Bytes(), hugePageStride)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	accesses := hugePageBufferSize / (hugePageStride * workload.PageSize4K)
	rec.AppendSnapshot(&snap).
		Append("ns_per_access", emit.Rate6(nsPer(snap.RuntimeNS, accesses))).
		Append("degraded", h.degraded)
	return nil
}

func (s *hugePages) ReleaseCondition(handle any) error {
	return handle.(*hugePageCondition).buf.Close()
}

func (s *hugePages) Close() error {
	closeHW(s.hw)
	return nil
}
