// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/affinity"
	"github.com/perfprobe/linuxbench/internal/numa"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("numalocality", func() scenario.Scenario { return newNUMALocality(logr.Discard()) })
}

const numaBufferSize = 64 << 20

// numaLocality reads a buffer bound to the local node, a remote node, and
// interleaved across all nodes, with the measuring thread pinned to a node-0
// CPU throughout. On a single-node system every condition degrades to plain
// heap allocation; records carry a degraded flag so downstream analysis can
// separate truly-bound runs from best-effort fallbacks.
type numaLocality struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
	ctrl    *numa.Controller
	logger  logr.Logger
}

type numaCondition struct {
	region   *numa.Region
	degraded bool
	locked   bool
}

func newNUMALocality(logger logr.Logger) *numaLocality {
	b, hw := newBracket(logger)
	return &numaLocality{
		bracket: b,
		hw:      hw,
		ctrl:    numa.New(logger, ""),
		logger:  logger.WithName("numalocality"),
	}
}

func (s *numaLocality) Name() string { return "numalocality" }

func (s *numaLocality) Schema() []string {
	return schema([]string{"locality", "buffer_size"}, false, "ns_per_element", "degraded")
}

func (s *numaLocality) Preconditions(ctx context.Context) error {
	if !s.ctrl.Available() {
		return fmt.Errorf("single NUMA node; all conditions degrade to unbound allocation")
	}
	return nil
}

func (s *numaLocality) Conditions() []scenario.Condition {
	var conds []scenario.Condition
	for _, locality := range []string{"local", "remote", "interleave"} {
		conds = append(conds, scenario.Condition{
			Label: locality,
			Params: []scenario.Param{
				{Name: "locality", Value: locality},
				{Name: "buffer_size", Value: numaBufferSize},
			},
		})
	}
	return conds
}

func (s *numaLocality) RunsPerCondition() int { return 10 }

func (s *numaLocality) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	h := &numaCondition{}
	locality := cond.Params[0].Value.(string)

	// Keep the measuring thread on node 0 so "local" and "remote" mean
	// what they say. Pin failure skips the condition; it cannot degrade.
	if s.ctrl.Available() {
		cpus, err := s.ctrl.NodeCPUs(0)
		if err != nil || len(cpus) == 0 {
			return nil, scenario.NewSkipCondition(cond.Label, fmt.Errorf("node0 cpulist: %v", err))
		}
		runtime.LockOSThread()
		if err := affinity.Pin(cpus[0]); err != nil {
			runtime.UnlockOSThread()
			return nil, scenario.NewSkipCondition(cond.Label, err)
		}
		h.locked = true
	}

	node := 0
	if locality == "remote" {
		node = s.ctrl.NodeCount() - 1
	}

	var region *numa.Region
	var err error
	if locality == "interleave" {
		region, err = s.ctrl.AllocInterleaved(numaBufferSize)
	} else {
		region, err = s.ctrl.AllocOnNode(numaBufferSize, node)
	}
	if region == nil {
		if h.locked {
			_ = affinity.Reset()
			runtime.UnlockOSThread()
		}
		return nil, scenario.NewSkipCondition(cond.Label, err)
	}
	if err != nil {
		s.logger.Info("memory-policy binding failed; continuing unbound", "condition", cond.Label, "error", err)
		h.degraded = true
	}
	if !s.ctrl.Available() {
		h.degraded = true
	}
	h.region = region
	workload.Sink += workload.StreamSequentialWrite(region.Bytes())
	return h, nil
}

func (s *numaLocality) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	h := handle.(*numaCondition)
	buf := h.region.Bytes()
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	r := workload.StreamSequentialRead(buf)
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.Sink += r
	rec.AppendSnapshot(&snap).
		Append("ns_per_element", emit.Rate6(nsPer(snap.RuntimeNS, len(buf)))).
		Append("degraded", h.degraded)
	return nil
}

func (s *numaLocality) ReleaseCondition(handle any) error {
	h := handle.(*numaCondition)
	err := numa.Free(h.region)
	if h.locked {
		if resetErr := affinity.Reset(); err == nil {
			err = resetErr
		}
		runtime.UnlockOSThread()
	}
	return err
}

func (s *numaLocality) Close() error {
	closeHW(s.hw)
	return nil
}
