// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// ProcessCreateKind selects the creation primitive ProcessCreate exercises.
// Go's runtime does not expose a safe raw fork() (the multi-threaded
// runtime makes a bare fork with goroutines still running unsafe), so the
// fork, vfork and clone variants each call syscall.ForkExec with different
// Cloneflags. On Linux, ForkExec itself adds CLONE_VFORK|CLONE_VM to those
// flags (unless CLONE_NEWUSER is requested), so the three variants issue
// the same clone(2) call and none of them copies the parent's address space.
type ProcessCreateKind int

const (
	// ForkCreate calls syscall.ForkExec with no extra clone flags; the child
	// does not get a copy-on-write copy of the parent's address space (see
	// ProcessCreateKind).
	ForkCreate ProcessCreateKind = iota
	// VforkCreate passes CLONE_VFORK, suspending the parent until the
	// child execs or exits, avoiding the address-space copy entirely.
	VforkCreate
	// CloneCreate shares more of the parent's execution context
	// (CLONE_VM|CLONE_VFORK) before the immediate exec, standing in for a
	// thread-like clone that still must exec to run a child program.
	CloneCreate
	// PosixSpawnCreate uses os/exec's ordinary Start, which on Linux is
	// itself a clone+exec sequence tuned by the runtime — the baseline
	// every other variant is compared against.
	PosixSpawnCreate
)

// childProgram is the trivial child every variant execs: "true" exits
// immediately with no output, minimizing work outside the creation and
// reap itself.
const childProgram = "/bin/true"

// ProcessCreate creates one child process using kind, waits for it to
// exit, and returns its exit code (0 on success). The whole create-exec-
// exit-reap cycle is what the caller's metric.Bracket should measure:
// this kernel's per-iteration runtime is that entire cycle, not just the
// creation syscall.
func ProcessCreate(kind ProcessCreateKind) (int, error) {
	if kind == PosixSpawnCreate {
		cmd := exec.Command(childProgram)
		if err := cmd.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return exitErr.ExitCode(), nil
			}
			return -1, fmt.Errorf("posix_spawn-like create: %w", err)
		}
		return 0, nil
	}

	var cloneFlags uintptr
	switch kind {
	case VforkCreate:
		cloneFlags = uintptr(unix.CLONE_VFORK)
	case CloneCreate:
		cloneFlags = uintptr(unix.CLONE_VFORK | unix.CLONE_VM)
	}

	attr := &syscall.ProcAttr{
		Files: []uintptr{0, 1, 2},
		Sys:   &syscall.SysProcAttr{Cloneflags: cloneFlags},
	}
	pid, err := syscall.ForkExec(childProgram, []string{childProgram}, attr)
	if err != nil {
		return -1, fmt.Errorf("fork/clone create kind=%d: %w", kind, err)
	}

	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return -1, fmt.Errorf("reap pid=%d: %w", pid, err)
	}
	return ws.ExitStatus(), nil
}
