// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package numa

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// memory-policy modes from <linux/mempolicy.h>. x/sys/unix does not expose
// these as named constants since mbind(2) has no high-level wrapper.
const (
	mpolDefault    = 0
	mpolPreferred  = 1
	mpolBind       = 2
	mpolInterleave = 3

	mpolMFStrict = 1 << 0
	mpolMFMove   = 1 << 1
)

// Region is a page-mapped anonymous memory region returned by AllocOnNode or
// AllocInterleaved. It must be released with Free, not a generic
// deallocator, since the allocation path taken (NUMA-bound mmap vs. plain
// heap fallback) determines how it must be released.
type Region struct {
	data   []byte
	mapped bool // true if backed by mmap (must munmap); false if heap fallback
}

// Bytes returns the region's backing slice.
func (r *Region) Bytes() []byte { return r.data }

// AllocOnNode allocates size bytes of page-aligned anonymous memory and
// binds it strictly to the given NUMA node via mbind(2). On a single-node
// system this transparently falls back to ordinary heap allocation. On
// binding failure, the memory is still returned unbound and a warning is
// the caller's responsibility to log — this non-fatal behavior is
// deliberate: scenarios still run on a best-effort basis.
func (c *Controller) AllocOnNode(size int, node int) (*Region, error) {
	if !c.Available() {
		return &Region{data: make([]byte, size)}, nil
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap(%d bytes): %w", size, err)
	}

	mask := nodeMask(node)
	if err := mbind(data, mpolBind, mask, mpolMFStrict|mpolMFMove); err != nil {
		// Binding failed; memory is still usable, just not pinned to the
		// requested node. Caller logs the degraded condition.
		return &Region{data: data, mapped: true}, fmt.Errorf("mbind node=%d: %w", node, err)
	}

	return &Region{data: data, mapped: true}, nil
}

// AllocInterleaved allocates size bytes with pages round-robin distributed
// across all NUMA nodes.
func (c *Controller) AllocInterleaved(size int) (*Region, error) {
	if !c.Available() {
		return &Region{data: make([]byte, size)}, nil
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap(%d bytes): %w", size, err)
	}

	mask := allNodesMask(c.NodeCount())
	if err := mbind(data, mpolInterleave, mask, mpolMFStrict|mpolMFMove); err != nil {
		return &Region{data: data, mapped: true}, fmt.Errorf("mbind interleave: %w", err)
	}

	return &Region{data: data, mapped: true}, nil
}

// Free releases a region returned by AllocOnNode or AllocInterleaved.
func Free(r *Region) error {
	if r == nil {
		return nil
	}
	if r.mapped {
		if err := unix.Munmap(r.data); err != nil {
			return fmt.Errorf("munmap: %w", err)
		}
	}
	r.data = nil
	return nil
}

func nodeMask(node int) []uint64 {
	mask := make([]uint64, node/64+1)
	mask[node/64] |= 1 << (uint(node) % 64)
	return mask
}

func allNodesMask(nodeCount int) []uint64 {
	if nodeCount <= 0 {
		nodeCount = 1
	}
	mask := make([]uint64, (nodeCount-1)/64+1)
	for node := 0; node < nodeCount; node++ {
		mask[node/64] |= 1 << (uint(node) % 64)
	}
	return mask
}

// mbind wraps the mbind(2) syscall, which golang.org/x/sys/unix exposes only
// as a syscall number (unix.SYS_MBIND), not a typed wrapper.
func mbind(region []byte, mode int, nodemask []uint64, flags int) error {
	addr := uintptr(unsafe.Pointer(&region[0]))
	maxnode := uintptr(len(nodemask) * 64)
	var nodemaskPtr uintptr
	if len(nodemask) > 0 {
		nodemaskPtr = uintptr(unsafe.Pointer(&nodemask[0]))
	}
	_, _, errno := unix.Syscall6(unix.SYS_MBIND, addr, uintptr(len(region)),
		uintptr(mode), nodemaskPtr, maxnode, uintptr(flags))
	if errno != 0 {
		return errno
	}
	return nil
}
