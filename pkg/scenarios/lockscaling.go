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
	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("lockscaling", func() scenario.Scenario { return newLockScaling(logr.Discard()) })
}

const lockIterationsPerThread = 1_000_000

// lockScaling contends thread counts {1,2,4,8} over a shared counter under
// a busy-wait spinlock, a sleeping mutex, and a lone atomic add, 5 runs per
// cell. Reported runtime is the wall clock of the orchestrating thread
// around the full fan-out and join.
type lockScaling struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
	cpus    []int
}

type lockCondition struct {
	kind    workload.LockKind
	threads int
}

func newLockScaling(logger logr.Logger) *lockScaling {
	b, hw := newBracket(logger)
	return &lockScaling{bracket: b, hw: hw}
}

func (s *lockScaling) Name() string { return "lockscaling" }

func (s *lockScaling) Schema() []string {
	return schema([]string{"threads", "lock_type"}, false, "ops_per_second")
}

func (s *lockScaling) Preconditions(ctx context.Context) error {
	n, err := affinity.OnlineCPUCount()
	if err != nil {
		return err
	}
	for cpu := 0; cpu < n; cpu++ {
		s.cpus = append(s.cpus, cpu)
	}
	if n < 8 {
		return fmt.Errorf("%d CPUs online; 8-thread conditions will oversubscribe", n)
	}
	return nil
}

var lockKindNames = map[workload.LockKind]string{
	workload.BusyWaitLock:  "busywait",
	workload.MutexLock:     "mutex",
	workload.AtomicAddLock: "atomic",
}

func (s *lockScaling) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, threads := range []int{1, 2, 4, 8} {
		for _, kind := range []workload.LockKind{workload.BusyWaitLock, workload.MutexLock, workload.AtomicAddLock} {
			name := lockKindNames[kind]
			conds = append(conds, scenario.Condition{
				Label: fmt.Sprintf("%s_t%d", name, threads),
				Params: []scenario.Param{
					{Name: "threads", Value: threads},
					{Name: "lock_type", Value: name},
				},
			})
		}
	}
	return conds
}

func (s *lockScaling) RunsPerCondition() int { return 5 }

func (s *lockScaling) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	kind := workload.MutexLock
	for k, name := range lockKindNames {
		if name == cond.Params[1].Value.(string) {
			kind = k
		}
	}
	return &lockCondition{kind: kind, threads: cond.Params[0].Value.(int)}, nil
}

func (s *lockScaling) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	lc := handle.(*lockCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	total, err := workload.LockContention(lc.kind, lc.threads, lockIterationsPerThread, s.cpus)
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += total
	ops := float64(lc.threads) * lockIterationsPerThread
	var opsPerSec float64
	if snap.RuntimeNS > 0 {
		opsPerSec = ops / (float64(snap.RuntimeNS) / 1e9)
	}
	rec.AppendSnapshot(&snap).Append("ops_per_second", emit.Rate6(opsPerSec))
	return nil
}

func (s *lockScaling) ReleaseCondition(handle any) error { return nil }

func (s *lockScaling) Close() error {
	closeHW(s.hw)
	return nil
}
