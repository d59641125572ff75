// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package numa is the NUMA controller: topology discovery and node-bound or
// interleaved page allocation.
package numa

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

const defaultSysNodePath = "/sys/devices/system/node"

// nodeCountUncached distinguishes "not yet queried" from a real count of
// zero nodes (which cannot happen on a real kernel, but the sentinel keeps
// the zero value of the cache meaningful either way).
const nodeCountUncached = -1

// Controller discovers NUMA topology and performs node-bound allocation. The
// node count is cached for the controller's lifetime, matching how the
// kernel's topology cannot change without a reboot (hotplug aside, which
// this framework does not attempt to track).
type Controller struct {
	sysNodePath string
	logger      logr.Logger

	mu        sync.Mutex
	nodeCount int
}

// New creates a NUMA controller rooted at the given /sys path, overridable
// for container and test environments.
func New(logger logr.Logger, sysPath string) *Controller {
	if sysPath == "" {
		sysPath = "/sys"
	}
	return &Controller{
		sysNodePath: filepath.Join(sysPath, "devices", "system", "node"),
		logger:      logger.WithName("numa"),
		nodeCount:   nodeCountUncached,
	}
}

// NodeCount returns the number of NUMA nodes, discovered by enumerating
// nodeN directories until the next index is missing. The result is cached
// after the first call.
func (c *Controller) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nodeCount != nodeCountUncached {
		return c.nodeCount
	}

	n := 0
	for {
		path := filepath.Join(c.sysNodePath, fmt.Sprintf("node%d", n))
		if _, err := os.Stat(path); err != nil {
			break
		}
		n++
	}
	if n == 0 {
		n = 1 // treat an unreadable/absent node tree as a single UMA node
	}
	c.nodeCount = n
	return n
}

// Available reports whether the system has more than one NUMA node.
func (c *Controller) Available() bool {
	return c.NodeCount() > 1
}

// NodeCPUs parses the given node's cpulist file and returns the CPU indices
// that belong to it, handling the full comma-separated-range grammar
// ("0-3,8-11"), not just the leading range.
func (c *Controller) NodeCPUs(node int) ([]int, error) {
	path := filepath.Join(c.sysNodePath, fmt.Sprintf("node%d", node), "cpulist")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseCPUList(string(data))
}

// ParseCPUList parses a kernel cpulist-format string ("0-3,8-11", "5",
// "0,1,2") into a sorted, deduplicated slice of CPU indices.
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	var cpus []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.IndexByte(part, '-'); idx >= 0 {
			start, err := strconv.Atoi(part[:idx])
			if err != nil {
				return nil, fmt.Errorf("parse range start %q: %w", part, err)
			}
			end, err := strconv.Atoi(part[idx+1:])
			if err != nil {
				return nil, fmt.Errorf("parse range end %q: %w", part, err)
			}
			for cpu := start; cpu <= end; cpu++ {
				if !seen[cpu] {
					seen[cpu] = true
					cpus = append(cpus, cpu)
				}
			}
			continue
		}
		cpu, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse cpu %q: %w", part, err)
		}
		if !seen[cpu] {
			seen[cpu] = true
			cpus = append(cpus, cpu)
		}
	}
	sort.Ints(cpus)
	return cpus, nil
}
