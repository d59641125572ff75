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
	scenario.Register("simd", func() scenario.Scenario { return newSIMD(logr.Discard()) })
}

const simdElements = 16 << 20

// simd compares scalar, auto-vectorization-hinted, 128-bit-shaped, and
// 256-bit-shaped element-wise float adds, plus scalar and vector dot
// products, over aligned float32 arrays of a fixed element count.
type simd struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type simdBuffers struct {
	pattern string
	dst     []float32
	a, b    []float32
}

func newSIMD(logger logr.Logger) *simd {
	b, hw := newBracket(logger)
	return &simd{bracket: b, hw: hw}
}

func (s *simd) Name() string { return "simd" }

func (s *simd) Schema() []string {
	return schema([]string{"pattern", "buffer_size"}, true, "throughput_gflops")
}

func (s *simd) Preconditions(ctx context.Context) error { return nil }

func (s *simd) Conditions() []scenario.Condition {
	patterns := []string{"scalar_add", "hinted_add", "vec128_add", "vec256_add", "dot_scalar", "dot_vector"}
	var conds []scenario.Condition
	for _, pattern := range patterns {
		conds = append(conds, scenario.Condition{
			Label: pattern,
			Params: []scenario.Param{
				{Name: "pattern", Value: pattern},
				{Name: "buffer_size", Value: simdElements * 4},
			},
		})
	}
	return conds
}

func (s *simd) RunsPerCondition() int { return 10 }

func (s *simd) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	bufs := &simdBuffers{
		pattern: cond.Params[0].Value.(string),
		dst:     make([]float32, simdElements),
		a:       make([]float32, simdElements),
		b:       make([]float32, simdElements),
	}
	for i := range bufs.a {
		bufs.a[i] = float32(i%251) * 0.5
		bufs.b[i] = float32(i%127) * 0.25
	}
	return bufs, nil
}

func (s *simd) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	bufs := handle.(*simdBuffers)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var dot float32
	switch bufs.pattern {
	case "scalar_add":
		workload.SIMDAddScalar(bufs.dst, bufs.a, bufs.b)
	case "hinted_add":
		workload.SIMDAddAutoVecHinted(bufs.dst, bufs.a, bufs.b)
	case "vec128_add":
		workload.SIMDAdd128(bufs.dst, bufs.a, bufs.b)
	case "vec256_add":
		workload.SIMDAdd256(bufs.dst, bufs.a, bufs.b)
	case "dot_scalar":
		dot = workload.DotProductScalar(bufs.a, bufs.b)
	case "dot_vector":
		dot = workload.DotProductVector(bufs.a, bufs.b, 8)
	}
	if err := s.bracket.End(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	workload.SinkFloat += float64(dot) + float64(bufs.dst[simdElements-1])

	// One FLOP per element for the adds, two (multiply + add) for the dots.
	flops := float64(simdElements)
	if bufs.pattern == "dot_scalar" || bufs.pattern == "dot_vector" {
		flops *= 2
	}
	var gflops float64
	if snap.RuntimeNS > 0 {
		gflops = flops / float64(snap.RuntimeNS)
	}
	rec.AppendSnapshot(&snap).AppendHWCounters(&snap).
		Append("throughput_gflops", emit.Rate6(gflops))
	return nil
}

func (s *simd) ReleaseCondition(handle any) error { return nil }

func (s *simd) Close() error {
	closeHW(s.hw)
	return nil
}
