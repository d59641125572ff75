// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenarios

import (
	"context"
	"os"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/internal/perfevent"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
	"github.com/perfprobe/linuxbench/pkg/scenario"
	"github.com/perfprobe/linuxbench/pkg/workload"
)

func init() {
	scenario.Register("fileio", func() scenario.Scenario { return newFileIO(logr.Discard()) })
}

const (
	fileIOSize      = 64 << 20
	fileIOChunk     = 64 << 10
	fileIOReadCount = 4096
	fileIOSeed      = 99
)

// fileIO drives the six file access patterns over a test file created in
// the OS temporary directory before each condition and unlinked after. The
// direct-read condition skips on filesystems that reject O_DIRECT (tmpfs
// being the usual case for /tmp).
type fileIO struct {
	bracket *metric.Bracket
	hw      *perfevent.Group
}

type fileIOCondition struct {
	pattern string
	path    string
}

func newFileIO(logger logr.Logger) *fileIO {
	b, hw := newBracket(logger)
	return &fileIO{bracket: b, hw: hw}
}

func (s *fileIO) Name() string { return "fileio" }

func (s *fileIO) Schema() []string {
	return schema([]string{"access_pattern", "buffer_size"}, false, "throughput_mbs")
}

func (s *fileIO) Preconditions(ctx context.Context) error { return nil }

func (s *fileIO) Conditions() []scenario.Condition {
	patterns := []string{"seq_read", "seq_write", "random_read", "direct_read", "mmap_seq", "mmap_random"}
	var conds []scenario.Condition
	for _, pattern := range patterns {
		conds = append(conds, scenario.Condition{
			Label: pattern,
			Params: []scenario.Param{
				{Name: "access_pattern", Value: pattern},
				{Name: "buffer_size", Value: fileIOSize},
			},
		})
	}
	return conds
}

func (s *fileIO) RunsPerCondition() int { return 10 }

func (s *fileIO) PrepareCondition(ctx context.Context, cond scenario.Condition) (any, error) {
	pattern := cond.Params[0].Value.(string)
	path, err := workload.NewTestFile(os.TempDir(), fileIOSize)
	if err != nil {
		return nil, scenario.NewSkipCondition(cond.Label, err)
	}
	if pattern == "direct_read" {
		// Probe O_DIRECT support once up front so an unsupporting
		// filesystem skips the condition instead of zeroing ten records.
		if _, err := workload.FileDirectRead(path, fileIOChunk); err != nil {
			_ = os.Remove(path)
			return nil, scenario.NewSkipCondition(cond.Label, err)
		}
	}
	return &fileIOCondition{pattern: pattern, path: path}, nil
}

func (s *fileIO) Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error {
	fc := handle.(*fileIOCondition)
	var snap metric.Snapshot
	if err := s.bracket.Begin(&snap); err != nil {
		return scenario.NewFatal(err)
	}
	var moved uint64
	var err error
	switch fc.pattern {
	case "seq_read":
		moved, err = workload.FileSequentialRead(fc.path, fileIOChunk)
	case "seq_write":
		moved, err = workload.FileSequentialWrite(fc.path, fileIOSize, fileIOChunk)
	case "random_read":
		moved, err = workload.FileRandomSeekRead(fc.path, fileIOSize, fileIOChunk, fileIOReadCount, fileIOSeed+int64(runIndex))
	case "direct_read":
		moved, err = workload.FileDirectRead(fc.path, fileIOChunk)
	case "mmap_seq":
		var sum uint64
		sum, err = workload.FileMmapSequentialRead(fc.path)
		workload.Sink += sum
		moved = fileIOSize
	case "mmap_random":
		var sum uint64
		sum, err = workload.FileMmapRandomAccess(fc.path, fileIOReadCount, fileIOSeed+int64(runIndex))
		workload.Sink += sum
		moved = fileIOReadCount
	}
	if endErr := s.bracket.End(&snap); endErr != nil {
		return scenario.NewFatal(endErr)
	}
	if err != nil {
		return err
	}
	workload.Sink += moved
	var mbs float64
	if snap.RuntimeNS > 0 {
		mbs = float64(moved) / (1 << 20) / (float64(snap.RuntimeNS) / 1e9)
	}
	rec.AppendSnapshot(&snap).Append("throughput_mbs", emit.Rate6(mbs))
	return nil
}

func (s *fileIO) ReleaseCondition(handle any) error {
	return os.Remove(handle.(*fileIOCondition).path)
}

func (s *fileIO) Close() error {
	closeHW(s.hw)
	return nil
}
