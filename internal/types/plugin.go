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

package types

import "time"

// PluginRecord is the persisted installation state of one plugin.
type PluginRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PluginID    string    `json:"plugin_id" gorm:"column:plugin_id;uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"column:name"`
	Version     string    `json:"version" gorm:"column:version"`
	Author      string    `json:"author" gorm:"column:author"`
	Description string    `json:"description" gorm:"column:description"`
	Kind        string    `json:"kind" gorm:"column:kind"`
	Status      string    `json:"status" gorm:"column:status;index"`
	Bundled     bool      `json:"bundled" gorm:"column:bundled"`
	ArchivePath string    `json:"archive_path" gorm:"column:archive_path"`
	Config      string    `json:"config" gorm:"column:config"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PluginRecord) SetCreateTime(time time.Time) {
	p.CreatedAt = time
}

func (p *PluginRecord) SetUpdateTime(time time.Time) {
	p.UpdatedAt = time
}

func (p *PluginRecord) PrimaryKey() string {
	return "plugin_id"
}

func (p *PluginRecord) TableName() string {
	return "sf_plugin"
}

// Index identifies the record by plugin id only. Status is mutable and is
// filtered through list options instead.
func (p *PluginRecord) Index() map[string]interface{} {
	index := make(map[string]interface{})
	if p.PluginID != "" {
		index["plugin_id"] = p.PluginID
	}
	return index
}
