// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package workload

import (
	"fmt"
	"math/rand"
	"os"

	"golang.org/x/sys/unix"
)

// NewTestFile creates a file of size bytes filled with a deterministic
// pattern in dir, returning its path. The caller unlinks it after the
// scenario's measured region.
func NewTestFile(dir string, size int) (string, error) {
	f, err := os.CreateTemp(dir, "linuxbench-fileio-*")
	if err != nil {
		return "", fmt.Errorf("create test file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}
	if _, err := f.Write(buf); err != nil {
		return "", fmt.Errorf("write test file: %w", err)
	}
	return f.Name(), nil
}

// FileSequentialRead reads path from start to end in chunkSize chunks and
// returns the total bytes read.
func FileSequentialRead(path string, chunkSize int) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	var total uint64
	for {
		n, err := f.Read(buf)
		total += uint64(n)
		if err != nil {
			break
		}
	}
	return total, nil
}

// FileSequentialWrite writes totalSize bytes to path in chunkSize chunks,
// overwriting any existing content, and returns the bytes written.
func FileSequentialWrite(path string, totalSize, chunkSize int) (uint64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	chunk := make([]byte, chunkSize)
	var total uint64
	for int(total) < totalSize {
		n, err := f.Write(chunk)
		total += uint64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// FileRandomSeekRead performs readCount reads of chunkSize bytes at random
// offsets within a file of the given size, returning total bytes read.
func FileRandomSeekRead(path string, fileSize, chunkSize, readCount int, seed int64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, chunkSize)
	var total uint64
	maxOffset := fileSize - chunkSize
	if maxOffset < 0 {
		maxOffset = 0
	}
	for i := 0; i < readCount; i++ {
		offset := int64(r.Intn(maxOffset + 1))
		n, err := f.ReadAt(buf, offset)
		total += uint64(n)
		if err != nil {
			break
		}
	}
	return total, nil
}

// FileDirectRead reads path with O_DIRECT, bypassing the page cache, in
// chunkSize chunks (which must be block-aligned on most filesystems).
// Returns an error on filesystems that reject O_DIRECT (e.g. tmpfs),
// which a scenario treats as a skip condition rather than a failure.
func FileDirectRead(path string, chunkSize int) (uint64, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECT, 0)
	if err != nil {
		return 0, fmt.Errorf("open O_DIRECT: %w", err)
	}
	defer unix.Close(fd)

	buf := make([]byte, chunkSize)
	var total uint64
	for {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			total += uint64(n)
		}
		if n <= 0 || err != nil {
			break
		}
	}
	return total, nil
}

// FileMmapSequentialRead maps path and reads it sequentially, returning the
// accumulated byte sum.
func FileMmapSequentialRead(path string) (uint64, error) {
	data, closeFn, err := mmapFile(path)
	if err != nil {
		return 0, err
	}
	defer closeFn()
	return StreamSequentialRead(data), nil
}

// FileMmapRandomAccess maps path and reads readCount single bytes at random
// offsets, returning their sum.
func FileMmapRandomAccess(path string, readCount int, seed int64) (uint64, error) {
	data, closeFn, err := mmapFile(path)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	r := rand.New(rand.NewSource(seed))
	var acc uint64
	for i := 0; i < readCount; i++ {
		acc += uint64(data[r.Intn(len(data))])
	}
	return acc, nil
}

func mmapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return data, func() { _ = unix.Munmap(data) }, nil
}
