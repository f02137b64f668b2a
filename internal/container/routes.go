//*****************************************************************************
// Copyright 2024-2025 The SiteForge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//*****************************************************************************

package container

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/siteforge/siteforge/sdk"
)

// RouteEntry is one dynamic route owned by a plugin component.
type RouteEntry struct {
	Method    string
	Path      string
	PluginID  string
	Component string
	Handler   sdk.HTTPHandler
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// RouteTable is the versioned dynamic route registry. Routes for a plugin
// are applied and reverted as atomic batches, so a request dispatched
// mid-swap sees either all of a plugin's routes or none of them.
type RouteTable struct {
	mu       sync.RWMutex
	version  uint64
	routes   map[string]RouteEntry
	byPlugin map[string][]string
}

func NewRouteTable() *RouteTable {
	return &RouteTable{
		routes:   make(map[string]RouteEntry),
		byPlugin: make(map[string][]string),
	}
}

// ApplyBatch installs all entries for one plugin as a single table mutation.
// If any entry collides with a route owned by another plugin, or the batch
// collides with itself, nothing is applied.
func (rt *RouteTable) ApplyBatch(pluginID string, entries []RouteEntry) error {
	if pluginID == "" {
		return fmt.Errorf("plugin id is required")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Method == "" || e.Path == "" || !strings.HasPrefix(e.Path, "/") {
			return fmt.Errorf("route %s %s of plugin %s is malformed", e.Method, e.Path, pluginID)
		}
		if e.Handler == nil {
			return fmt.Errorf("route %s %s of plugin %s has no handler", e.Method, e.Path, pluginID)
		}
		key := routeKey(e.Method, e.Path)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("route %s %s appears twice in the batch for plugin %s", e.Method, e.Path, pluginID)
		}
		seen[key] = struct{}{}
		if existing, ok := rt.routes[key]; ok && existing.PluginID != pluginID {
			return fmt.Errorf("route %s %s is already owned by plugin %s", e.Method, e.Path, existing.PluginID)
		}
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		e.Method = strings.ToUpper(e.Method)
		e.PluginID = pluginID
		key := routeKey(e.Method, e.Path)
		rt.routes[key] = e
		keys = append(keys, key)
	}
	rt.byPlugin[pluginID] = append(rt.byPlugin[pluginID], keys...)
	rt.version++
	return nil
}

// RevertPlugin removes every route owned by the plugin in one table
// mutation and returns how many were removed.
func (rt *RouteTable) RevertPlugin(pluginID string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	keys := rt.byPlugin[pluginID]
	if len(keys) == 0 {
		return 0
	}
	removed := 0
	for _, key := range keys {
		if entry, ok := rt.routes[key]; ok && entry.PluginID == pluginID {
			delete(rt.routes, key)
			removed++
		}
	}
	delete(rt.byPlugin, pluginID)
	if removed > 0 {
		rt.version++
	}
	return removed
}

// Lookup resolves a route by method and exact path.
func (rt *RouteTable) Lookup(method, path string) (RouteEntry, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	entry, ok := rt.routes[routeKey(method, path)]
	return entry, ok
}

// Routes returns a snapshot of all routes, sorted by method and path.
func (rt *RouteTable) Routes() []RouteEntry {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	entries := make([]RouteEntry, 0, len(rt.routes))
	for _, e := range rt.routes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Path != entries[j].Path {
			return entries[i].Path < entries[j].Path
		}
		return entries[i].Method < entries[j].Method
	})
	return entries
}

// Version returns the current table generation. It increments on every
// applied or reverted batch.
func (rt *RouteTable) Version() uint64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.version
}
