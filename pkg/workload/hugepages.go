// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageKind selects how HugePageBuffer backs its allocation.
type PageKind int

const (
	OrdinaryPages PageKind = iota
	TransparentHugePages
	ExplicitHugePages
)

// HugePageBuffer is a mapped region backing the huge-pages kernel; it must
// be released with Close since the unmap size must match the map size.
type HugePageBuffer struct {
	data       []byte
	kind       PageKind
	hintFailed bool
}

// NewHugePageBuffer maps size bytes according to kind. TransparentHugePages
// issues an MADV_HUGEPAGE hint after an ordinary mapping — the kernel may
// or may not honor it. ExplicitHugePages requests MAP_HUGETLB, which fails
// outright on systems without a configured huge-page pool; that failure is
// returned to the caller, who is expected to skip the condition rather
// than treat it as fatal.
func NewHugePageBuffer(size int, kind PageKind) (*HugePageBuffer, error) {
	flags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	if kind == ExplicitHugePages {
		flags |= unix.MAP_HUGETLB
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, fmt.Errorf("mmap huge pages kind=%d: %w", kind, err)
	}
	buf := &HugePageBuffer{data: data, kind: kind}
	if kind == TransparentHugePages {
		if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
			buf.hintFailed = true
		}
	}
	return buf, nil
}

// HintFailed reports whether the transparent-huge-page madvise hint was
// rejected, leaving the mapping on ordinary pages despite the request.
func (h *HugePageBuffer) HintFailed() bool { return h.hintFailed }

// Bytes returns the backing slice.
func (h *HugePageBuffer) Bytes() []byte { return h.data }

// Close unmaps the region.
func (h *HugePageBuffer) Close() error {
	if h.data == nil {
		return nil
	}
	err := unix.Munmap(h.data)
	h.data = nil
	return err
}

// HugePageAccess runs a fixed page-strided access pattern over buf and
// returns the accumulated sum, identical in shape to TLBPressure but kept
// distinct since the two kernels measure different effects (TLB reach vs.
// page-table/fault overhead) even though their access pattern coincides.
func HugePageAccess(buf []byte, pageStride int) uint64 {
	return TLBPressure(buf, pageStride)
}
