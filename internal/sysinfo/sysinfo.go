// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package sysinfo reads the hardware context a record stream was produced
// under: CPU model, cache hierarchy, NUMA layout, huge-page pool, and the
// frequency governor. None of it feeds the measured region — it exists so
// a results file can be interpreted against the machine that produced it.
package sysinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Cache describes one level of the CPU cache hierarchy as cpu0 sees it.
type Cache struct {
	Level     int
	Type      string // "Data", "Instruction", "Unified"
	SizeBytes int
}

// Info is a point-in-time description of the host. Fields that could not
// be read hold their zero value; collection never fails outright since a
// partial description is still worth recording.
type Info struct {
	ModelName   string
	VendorID    string
	LogicalCPUs int
	CPUMHz      float64
	Governor    string

	Caches []Cache

	NUMANodes int

	HugePageSizeKB int
	HugePagesTotal int
	THPEnabled     string
}

// Collector reads Info from the /proc and /sys trees. Paths are injectable
// for tests; empty strings select the real filesystems.
type Collector struct {
	procPath string
	sysPath  string
}

// New builds a Collector over the given /proc and /sys roots ("" for the
// real ones).
func New(procPath, sysPath string) *Collector {
	if procPath == "" {
		procPath = "/proc"
	}
	if sysPath == "" {
		sysPath = "/sys"
	}
	return &Collector{procPath: procPath, sysPath: sysPath}
}

// Collect gathers everything it can and returns the result. Missing files
// leave zero values; /proc/cpuinfo and /proc/meminfo formats vary by
// architecture, so unknown keys are skipped rather than treated as errors.
func (c *Collector) Collect() *Info {
	info := &Info{}
	c.readCPUInfo(info)
	c.readGovernor(info)
	c.readCaches(info)
	c.countNUMANodes(info)
	c.readHugePages(info)
	return info
}

func (c *Collector) readCPUInfo(info *Info) {
	f, err := os.Open(filepath.Join(c.procPath, "cpuinfo"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), ":", 2)
		if len(fields) != 2 {
			continue
		}
		key := strings.TrimSpace(fields[0])
		value := strings.TrimSpace(fields[1])
		switch key {
		case "processor":
			info.LogicalCPUs++
		case "vendor_id":
			if info.VendorID == "" {
				info.VendorID = value
			}
		case "model name":
			if info.ModelName == "" {
				info.ModelName = value
			}
		case "cpu MHz":
			if info.CPUMHz == 0 {
				if mhz, err := strconv.ParseFloat(value, 64); err == nil {
					info.CPUMHz = mhz
				}
			}
		}
	}
}

func (c *Collector) readGovernor(info *Info) {
	path := filepath.Join(c.sysPath, "devices", "system", "cpu", "cpu0", "cpufreq", "scaling_governor")
	if data, err := os.ReadFile(path); err == nil {
		info.Governor = strings.TrimSpace(string(data))
	}
}

func (c *Collector) readCaches(info *Info) {
	cacheDir := filepath.Join(c.sysPath, "devices", "system", "cpu", "cpu0", "cache")
	for i := 0; ; i++ {
		indexDir := filepath.Join(cacheDir, fmt.Sprintf("index%d", i))
		levelData, err := os.ReadFile(filepath.Join(indexDir, "level"))
		if err != nil {
			break
		}
		level, err := strconv.Atoi(strings.TrimSpace(string(levelData)))
		if err != nil {
			continue
		}
		cache := Cache{Level: level}
		if data, err := os.ReadFile(filepath.Join(indexDir, "type")); err == nil {
			cache.Type = strings.TrimSpace(string(data))
		}
		if data, err := os.ReadFile(filepath.Join(indexDir, "size")); err == nil {
			cache.SizeBytes = parseCacheSize(strings.TrimSpace(string(data)))
		}
		info.Caches = append(info.Caches, cache)
	}
}

// parseCacheSize decodes the sysfs "size" format ("32K", "8M", raw bytes).
func parseCacheSize(s string) int {
	multiplier := 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
		s = strings.TrimSuffix(s, "M")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n * multiplier
}

func (c *Collector) countNUMANodes(info *Info) {
	matches, err := filepath.Glob(filepath.Join(c.sysPath, "devices", "system", "node", "node[0-9]*"))
	if err == nil && len(matches) > 0 {
		info.NUMANodes = len(matches)
	} else {
		info.NUMANodes = 1
	}
}

func (c *Collector) readHugePages(info *Info) {
	f, err := os.Open(filepath.Join(c.procPath, "meminfo"))
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) < 2 {
				continue
			}
			switch strings.TrimSuffix(fields[0], ":") {
			case "Hugepagesize":
				info.HugePageSizeKB, _ = strconv.Atoi(fields[1])
			case "HugePages_Total":
				info.HugePagesTotal, _ = strconv.Atoi(fields[1])
			}
		}
		f.Close()
	}

	thpPath := filepath.Join(c.sysPath, "kernel", "mm", "transparent_hugepage", "enabled")
	if data, err := os.ReadFile(thpPath); err == nil {
		// The active setting is bracketed: "always [madvise] never".
		s := string(data)
		if start := strings.Index(s, "["); start >= 0 {
			if end := strings.Index(s, "]"); end > start {
				info.THPEnabled = s[start+1 : end]
			}
		}
	}
}
