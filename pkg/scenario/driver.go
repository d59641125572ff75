// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/perfprobe/linuxbench/pkg/emit"
	"github.com/perfprobe/linuxbench/pkg/metric"
)

// Driver runs a single Scenario to completion, writing its output through
// pkg/emit and reporting degraded or skipped conditions via logr rather
// than failing the whole run.
type Driver struct {
	logger logr.Logger
}

// NewDriver constructs a Driver. logger receives one warning per Degrading
// or Skipped-condition event; it is never used for per-iteration records.
func NewDriver(logger logr.Logger) *Driver {
	return &Driver{logger: logger.WithName("driver")}
}

// Stats summarizes one Run call's outcome for the caller's exit-code and
// reporting purposes.
type Stats struct {
	ConditionsTotal     int
	ConditionsSkipped   int
	ConditionsAttempted int
	RecordsEmitted      int
	Interrupted         bool
}

// Run drives s end to end: Preconditions, then for each condition in
// s.Conditions(), PrepareCondition followed by s.RunsPerCondition()
// measured iterations via Execute, emitting one record per iteration to w.
// ctx cancellation is observed only at iteration boundaries; it never
// aborts mid-iteration.
func (d *Driver) Run(ctx context.Context, s Scenario, w *emit.Writer) (Stats, error) {
	var stats Stats
	defer func() {
		if err := s.Close(); err != nil {
			d.logger.Info("scenario close failed", "scenario", s.Name(), "error", err)
		}
	}()

	if err := s.Preconditions(ctx); err != nil {
		d.logger.Info("scenario preconditions degraded", "scenario", s.Name(), "reason", err)
	}

	if err := w.WriteHeader(s.Schema()); err != nil {
		return stats, NewFatal(fmt.Errorf("write header: %w", err))
	}

	conditions := s.Conditions()
	stats.ConditionsTotal = len(conditions)
	runIndex := 0

	for _, cond := range conditions {
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}

		handle, err := s.PrepareCondition(ctx, cond)
		var skip *SkipCondition
		if errors.As(err, &skip) {
			d.logger.Info("condition skipped", "scenario", s.Name(), "condition", cond.Label, "reason", skip.Reason)
			stats.ConditionsSkipped++
			continue
		}
		if err != nil {
			return stats, NewFatal(fmt.Errorf("prepare condition %q: %w", cond.Label, err))
		}

		stats.ConditionsAttempted++
		if err := d.runCondition(ctx, s, cond, handle, w, &runIndex, &stats); err != nil {
			_ = s.ReleaseCondition(handle)
			return stats, err
		}
		if err := s.ReleaseCondition(handle); err != nil {
			d.logger.Info("release condition failed", "scenario", s.Name(), "condition", cond.Label, "error", err)
		}
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}
	}

	return stats, nil
}

func (d *Driver) runCondition(ctx context.Context, s Scenario, cond Condition, handle any, w *emit.Writer, runIndex *int, stats *Stats) error {
	for i := 0; i < s.RunsPerCondition(); i++ {
		if ctx.Err() != nil {
			stats.Interrupted = true
			return nil
		}

		rec := metric.NewRecord(*runIndex, cond.Label)
		for _, p := range cond.Params {
			rec.Append(p.Name, p.Value)
		}
		*runIndex++

		if err := s.Execute(ctx, handle, i, rec); err != nil {
			var fatal *Fatal
			if errors.As(err, &fatal) {
				return err
			}
			d.logger.Info("iteration degraded", "scenario", s.Name(), "condition", cond.Label, "run", i, "error", err)
			continue
		}

		if err := w.WriteRecord(rec.Values()); err != nil {
			return NewFatal(fmt.Errorf("write record: %w", err))
		}
		stats.RecordsEmitted++
	}
	return nil
}
