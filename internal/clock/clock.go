// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package clock provides the monotonic-raw timing primitive used to bracket
// every measured region in the framework.
package clock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Now returns the current time in nanoseconds from CLOCK_MONOTONIC_RAW, the
// hardware-derived monotonic clock source unaffected by NTP slew or step
// adjustments. Unlike CLOCK_MONOTONIC, it is never subject to frequency
// adjustments applied by the kernel's NTP discipline, which matters for
// runtime deltas on the order of microseconds.
//
// Now does not fall back to another clock source on failure. A measurement
// framework cannot silently trade a noisier clock for availability: callers
// must treat an error here as fatal to the current scenario.
func Now() (uint64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return 0, fmt.Errorf("clock_gettime(CLOCK_MONOTONIC_RAW): %w", err)
	}
	return uint64(ts.Sec)*1_000_000_000 + uint64(ts.Nsec), nil
}
