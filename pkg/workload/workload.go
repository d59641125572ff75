// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package workload is the kernel catalog: pure, deterministic compute and
// memory-access patterns that scenarios bracket with a metric.Bracket. No
// kernel in this package reads the clock or performs I/O outside the few
// kernels whose entire purpose is I/O, and setup (buffer/index generation,
// file creation) happens before the call the scenario measures. Some kernels
// do allocate inside that call: the file I/O kernels open the file and
// allocate their chunk buffer, DotProductVector allocates its lane array,
// the multithreaded kernels allocate their goroutines and counters, and
// ProcessCreate creates a child process.
package workload

// CacheLineSize is the assumed cache-line width used by stride-expressed
// kernels (memory streaming, false sharing).
const CacheLineSize = 64

// Sink accumulates kernel results so the compiler cannot prove the
// computed value unused and eliminate the loop around it. Scenarios read
// the final value only for this escape-optimization purpose; it carries no
// measurement meaning itself.
var Sink uint64

// SinkFloat is the floating-point counterpart used by the SIMD kernels.
var SinkFloat float64
