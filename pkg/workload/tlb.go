// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

// PageSize4K is the standard page size assumed by the TLB-pressure kernel
// and by the scenarios that count its page touches. It is a fixed
// constant; the running system's page size is not read.
const PageSize4K = 4096

// TLBPressure touches one byte per page across buf at the given
// page-stride (in pages), for a buffer that may range from well below to
// far above TLB reach depending on its size. Returns the accumulated sum of
// touched bytes.
func TLBPressure(buf []byte, pageStride int) uint64 {
	if pageStride < 1 {
		pageStride = 1
	}
	step := pageStride * PageSize4K
	var acc uint64
	for i := 0; i < len(buf); i += step {
		acc += uint64(buf[i])
	}
	return acc
}
