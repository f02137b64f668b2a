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

package registrar

import (
	"sync"

	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/sdk"
	"gorm.io/gorm"
)

// SupportsDynamicSchema gates live schema mutation during activation. The
// embedded sqlite deployment keeps it off: entity declarations are tracked
// and cross-checked against the migrated schema, never applied to it.
const SupportsDynamicSchema = false

// EntityRegistrar tracks the persistence entities activated plugins declare.
type EntityRegistrar struct {
	mu     sync.Mutex
	db     *gorm.DB
	tables map[string][]string
}

func NewEntityRegistrar(db *gorm.DB) *EntityRegistrar {
	return &EntityRegistrar{db: db, tables: make(map[string][]string)}
}

// Register records the plugin's declared entities. When the schema is
// static, declared tables missing from the database are reported but do not
// fail activation.
func (r *EntityRegistrar) Register(manifest *sdk.Manifest, infos []sdk.ComponentInfo) error {
	pluginID := manifest.ID
	log := logger.PluginLogger(pluginID)
	entities := declaredEntityTables(manifest, infos)

	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(entities))
	for _, entity := range entities {
		if entity.Table == "" {
			log.Warn("entity declares no table, tracking by name only", "entity", entity.Name)
			names = append(names, entity.Name)
			continue
		}
		if !SupportsDynamicSchema && r.db != nil {
			if !r.db.Migrator().HasTable(entity.Table) {
				log.Warn("declared entity table does not exist in the schema",
					"entity", entity.Name, "table", entity.Table)
			}
		}
		names = append(names, entity.Name)
	}
	r.tables[pluginID] = names
	return nil
}

// Unregister drops the tracking for a plugin. The schema is never touched.
func (r *EntityRegistrar) Unregister(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, pluginID)
}

// Entities returns the tracked entity names for a plugin.
func (r *EntityRegistrar) Entities(pluginID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := r.tables[pluginID]
	out := make([]string, len(names))
	copy(out, names)
	return out
}
