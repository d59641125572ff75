// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package scenario

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh Scenario instance. The registry holds
// constructors, not instances, so each run starts from clean state.
type Factory func() Scenario

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a scenario factory under name. Called from each
// pkg/scenarios file's init(), matching the self-registration idiom
// observed across the collector catalog this driver generalizes.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("scenario: duplicate registration for %q", name))
	}
	registry[name] = factory
}

// Lookup returns the factory registered under name, or false if none.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered scenario name, sorted, for `list`.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
