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
	scenario.Register("processcreate", func() scenario.Scenario { return newProcessCreate(logr.Discard()) })
}

// processCreate measures the full create-exec-exit-reap cycle for each
// creation primitive; one iteration is one child. The voluntary context
// switch column is expected to be nonzero here — the reap blocks — unlike
// every pure-compute scenario.
type processCreate struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

func newProcessCreate(logger logr.Logger) *processCreate {
	b, hw := newBracket(logger)
	return &processCreate{bracket: b, hw: hw}
}

func (s *processCreate) Name() string { return "processcreate" }

func (s *processCreate) Schema() []string {
	return schema([]string{"syscall_type"}, false, "time_microseconds")
}

func (s *processCreate) Preconditions(ctx context.Context) error { return nil }

var processKindNames = []struct {
	kind workload.ProcessCreateKind
	name string
}{
	{workload.ForkCreate, "fork"},
	{workload.VforkCreate, "vfork"},
	{workload.CloneCreate, "clone"},
	{workload.PosixSpawnCreate, "posix_spawn"},
}

func (s *processCreate) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, pk := range processKindNames {
		conds = append(conds, scenario.Condition{
			Label:  pk.name,
			Params: []scenario.Param{{Name: "syscall_type", Value: pk.name}},
		})
	}
	return conds
}

func (s *processCreate) RunsPerCondition() int { return 10 }

func (s *processCreate) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	for _, pk := range processKindNames {
		if pk.name == cond.Params[0].Value.(string) {
			return pk.kind, nil
		}
	}
	return nil, scenario.NewSkipCondition(cond.Label, fmt.Errorf("unknown creation kind"))
}

func (s *processCreate) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	kind := handle.(workload.ProcessCreateKind)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	code, err := workload.ProcessCreate(kind)
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += uint64(code)
	rec.AppendSnapshot(&snap).
		Append("time_microseconds", emit.Rate6(float64(snap.RuntimeNS)/1e3))
	return nil
}

func (s *processCreate) ReleaseCondition(handle any) error { return nil }

func (s *processCreate) Close() error {
	closeHW(s.hw)
	return nil
}
