// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package affinity is the scheduler controller: CPU affinity, priority, and
// current-CPU queries for the calling thread.
package affinity

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// OnlineCPUCount returns the number of CPUs the calling process is currently
// permitted to run on.
func OnlineCPUCount() (int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, fmt.Errorf("sched_getaffinity: %w", err)
	}
	return set.Count(), nil
}

// Pin restricts the calling OS thread to a single CPU index. The caller must
// have called runtime.LockOSThread beforehand, or the goroutine may migrate
// to an unpinned OS thread before the restriction takes effect in the
// goroutine's intended context.
//
// Pin fails if cpu is outside the online set or a policy (e.g. cgroup
// cpuset) denies it; both are reported identically since the kernel does not
// distinguish them in errno.
func Pin(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}

// PinThread applies the same restriction as Pin to another OS thread
// identified by its Linux TID (not a goroutine ID — Go has no public handle
// for an arbitrary goroutine's OS thread, so callers that need this must
// have captured the TID themselves, e.g. via unix.Gettid from inside the
// target goroutine after LockOSThread).
func PinThread(tid int, cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(tid, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(tid=%d, cpu=%d): %w", tid, cpu, err)
	}
	return nil
}

// Reset removes any CPU restriction previously applied with Pin, restoring
// the thread to the full online set.
func Reset() error {
	n := runtime.NumCPU()
	var set unix.CPUSet
	set.Zero()
	for cpu := 0; cpu < n; cpu++ {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(reset): %w", err)
	}
	return nil
}

// SetNice adjusts the calling process's scheduling priority. Values below 0
// typically require CAP_SYS_NICE; callers must treat that failure as
// non-fatal and skip the affected condition rather than aborting the
// scenario, per the degrading-error taxonomy.
func SetNice(n int) error {
	if n < -20 || n > 19 {
		return fmt.Errorf("nice value %d out of range [-20, 19]", n)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, n); err != nil {
		return fmt.Errorf("setpriority(%d): %w", n, err)
	}
	return nil
}

// CurrentCPU returns the CPU index currently executing the caller, or -1 if
// it cannot be determined.
func CurrentCPU() int {
	var cpu uint32
	_, _, err := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), 0, 0)
	if err != 0 {
		return -1
	}
	return int(cpu)
}

// Yield voluntarily relinquishes the CPU, exposed for scenarios that measure
// reschedule latency and behavior.
func Yield() error {
	_, _, err := unix.Syscall(unix.SYS_SCHED_YIELD, 0, 0, 0)
	if err != 0 {
		return err
	}
	return nil
}

// LockToCPU locks the calling goroutine's OS thread and pins it to cpu in one
// step, returning an unlock function that must be deferred. This is the
// shape every workload driver uses to guarantee the goroutine doesn't hop
// CPUs mid-measurement via Go's scheduler.
func LockToCPU(cpu int) (unlock func(), err error) {
	runtime.LockOSThread()
	if err := Pin(cpu); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return runtime.UnlockOSThread, nil
}
