// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package scenario is the end-to-end driver: precondition validation,
// schema declaration, condition-matrix enumeration, and the per-condition,
// per-run begin/execute/end/emit loop.
package scenario

import (
	"context"
	"fmt"

	"github.com/perfprobe/linuxbench/pkg/metric"
)

// Param is one controlled-variable column of a condition. Params are a
// slice, not a map, because they become record columns and column order
// must match the declared schema exactly.
type Param struct {
	Name  string
	Value any
}

// Condition is one point in a scenario's condition matrix: a human-readable
// label plus the controlled-variable values that produced it.
type Condition struct {
	Label  string
	Params []Param
}

// Scenario is the contract every concrete benchmark in pkg/scenarios
// implements. A Scenario owns no resources between calls except what
// PrepareCondition acquires and ReleaseCondition frees, and the
// scenario-lifetime resources that Close releases.
type Scenario interface {
	// Name identifies the scenario for the registry and the output file
	// name (<name>.csv).
	Name() string

	// Schema returns the column header, in emission order, this scenario
	// always writes — independent of which conditions get skipped.
	Schema() []string

	// Preconditions checks environment requirements (e.g. multi-node NUMA)
	// before any condition runs. A non-nil error here is Degrading, not
	// Fatal: the driver logs a warning and proceeds; the scenario itself
	// decides per-condition whether to skip.
	Preconditions(ctx context.Context) error

	// Conditions enumerates the Cartesian product of this scenario's
	// controlled variables, in the fixed order the scenario documents.
	Conditions() []Condition

	// RunsPerCondition returns the fixed number of iterations each
	// condition repeats (typically 10; null-baseline uses ~100).
	RunsPerCondition() int

	// PrepareCondition applies context for cond (pin, allocate, seed) and
	// returns a per-condition handle passed to Execute, plus any warmup.
	// Returning a SkipCondition error causes the driver to warn and skip
	// every run of this condition.
	PrepareCondition(ctx context.Context, cond Condition) (any, error)

	// Execute runs exactly one measured iteration: begin, the workload
	// kernel, end, using the handle PrepareCondition returned, and
	// appends its columns onto rec (which already carries run_index and
	// condition columns from the driver).
	Execute(ctx context.Context, handle any, runIndex int, rec *metric.Record) error

	// ReleaseCondition frees whatever PrepareCondition acquired.
	ReleaseCondition(handle any) error

	// Close releases scenario-lifetime resources — chiefly the
	// hardware-counter group, which stays open across every condition.
	// Called once by the driver after the last condition, and on every
	// exit path including interrupt.
	Close() error
}

// SkipCondition marks a condition-level failure: context application
// (affinity, priority, allocation) denied for this condition specifically.
// The driver warns once and skips every run of it.
type SkipCondition struct {
	Condition string
	Reason    error
}

func (e *SkipCondition) Error() string {
	return fmt.Sprintf("condition %q skipped: %v", e.Condition, e.Reason)
}

func (e *SkipCondition) Unwrap() error { return e.Reason }

// NewSkipCondition wraps reason as a SkipCondition for the named condition.
func NewSkipCondition(condition string, reason error) error {
	return &SkipCondition{Condition: condition, Reason: reason}
}

// Fatal marks a failure the scenario cannot proceed past at all (clock
// unavailable, output unwritable, a resource the scenario exists to
// allocate cannot be allocated). The driver aborts and the process exits
// non-zero.
type Fatal struct {
	Reason error
}

func (e *Fatal) Error() string { return fmt.Sprintf("fatal: %v", e.Reason) }
func (e *Fatal) Unwrap() error { return e.Reason }

// NewFatal wraps reason as a Fatal error.
func NewFatal(reason error) error { return &Fatal{Reason: reason} }
