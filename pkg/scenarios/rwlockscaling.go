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
	scenario.Register("rwlockscaling", func() scenario.Scenario { return newRWLockScaling(logr.Discard()) })
}

const (
	rwlockIterationsPerThread = 1_000_000
	rwlockSeed                = 7
)

// rwLockScaling runs reader/writer mixes over a shared RWMutex across
// thread counts {1,2,4,8} and writer percentages {10,50}. Read-mostly
// mixes should scale with threads until writer serialization dominates.
type rwLockScaling struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type rwlockCondition struct {
	threads       int
	writerPercent int
}

func newRWLockScaling(logger logr.Logger) *rwLockScaling {
	b, hw := newBracket(logger)
	return &rwLockScaling{bracket: b, hw: hw}
}

func (s *rwLockScaling) Name() string { return "rwlockscaling" }

func (s *rwLockScaling) Schema() []string {
	return schema([]string{"threads", "pattern"}, false, "ops_per_second")
}

func (s *rwLockScaling) Preconditions(ctx context.Context) error { return nil }

func (s *rwLockScaling) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, threads := range []int{1, 2, 4, 8} {
		for _, pct := range []int{10, 50} {
			conds = append(conds, scenario.Condition{
				Label: fmt.Sprintf("write%d_t%d", pct, threads),
				Params: []scenario.Param{
					{Name: "threads", Value: threads},
					{Name: "pattern", Value: fmt.Sprintf("write%d", pct)},
				},
			})
		}
	}
	return conds
}

func (s *rwLockScaling) RunsPerCondition() int { return 5 }

func (s *rwLockScaling) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	pct := 0
	fmt.Sscanf(cond.Params[1].Value.(string), "write%d", &pct)
	return &rwlockCondition{threads: cond.Params[0].Value.(int), writerPercent: pct}, nil
}

func (s *rwLockScaling) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	rc := handle.(*rwlockCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	writes, err := workload.RWLockScaling(rc.threads, rwlockIterationsPerThread, rc.writerPercent, rwlockSeed+int64(runIndex))
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += writes
	ops := float64(rc.threads) * rwlockIterationsPerThread
	var opsPerSec float64
	if snap.RuntimeNS > 0 {
		opsPerSec = ops / (float64(snap.RuntimeNS) / 1e9)
	}
	rec.AppendSnapshot(&snap).Append("ops_per_second", emit.Rate6(opsPerSec))
	return nil
}

func (s *rwLockScaling) ReleaseCondition(handle any) error { return nil }

func (s *rwLockScaling) Close() error {
	closeHW(s.hw)
	return nil
}
