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

// Package catalog tracks the visual editor components contributed by
// activated plugins. The site editor frontend reads this to populate its
// component palette.
package catalog

import (
	"sort"
	"sync"

	"github.com/siteforge/siteforge/sdk"
)

// Entry is one catalog row: a UI component spec plus its owning plugin.
type Entry struct {
	PluginID string              `json:"plugin_id"`
	Spec     sdk.UIComponentSpec `json:"spec"`
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string][]sdk.UIComponentSpec
}

func New() *Catalog {
	return &Catalog{entries: make(map[string][]sdk.UIComponentSpec)}
}

// RegisterPlugin replaces the catalog entries for a plugin.
func (c *Catalog) RegisterPlugin(pluginID string, specs []sdk.UIComponentSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(specs) == 0 {
		delete(c.entries, pluginID)
		return
	}
	copied := make([]sdk.UIComponentSpec, len(specs))
	copy(copied, specs)
	c.entries[pluginID] = copied
}

// UnregisterPlugin drops all entries for a plugin. Unknown ids are a no-op.
func (c *Catalog) UnregisterPlugin(pluginID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pluginID)
}

// List returns all entries sorted by plugin id then component name.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0)
	for pluginID, specs := range c.entries {
		for _, spec := range specs {
			out = append(out, Entry{PluginID: pluginID, Spec: spec})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PluginID != out[j].PluginID {
			return out[i].PluginID < out[j].PluginID
		}
		return out[i].Spec.Name < out[j].Spec.Name
	})
	return out
}

// ListPlugin returns the entries for one plugin.
func (c *Catalog) ListPlugin(pluginID string) []sdk.UIComponentSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	specs := c.entries[pluginID]
	out := make([]sdk.UIComponentSpec, len(specs))
	copy(out, specs)
	return out
}
