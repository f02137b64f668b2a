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

package dto

import (
	"time"

	"github.com/siteforge/siteforge/internal/utils/bcode"
)

// Plugin is the wire form of a persisted plugin record.
type Plugin struct {
	PluginID    string    `json:"plugin_id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Bundled     bool      `json:"bundled"`
	ArchivePath string    `json:"archive_path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InstallPluginRequest struct {
	ArchivePath string `json:"archive_path" validate:"required,archive_ext"`
}

type InstallPluginResponse struct {
	bcode.Bcode
	Data Plugin `json:"data"`
}

type UpgradePluginRequest struct {
	ArchivePath string `json:"archive_path" validate:"required,archive_ext"`
}

type UpgradePluginResponse struct {
	bcode.Bcode
	Data Plugin `json:"data"`
}

type ActivatePluginRequest struct {
	PluginID string `json:"plugin_id" validate:"required,plugin_id"`
}

type ActivatePluginResponse struct {
	bcode.Bcode
}

type DeactivatePluginRequest struct {
	PluginID string `json:"plugin_id" validate:"required,plugin_id"`
}

type DeactivatePluginResponse struct {
	bcode.Bcode
}

type UninstallPluginRequest struct {
	PluginID string `json:"plugin_id" validate:"required,plugin_id"`
}

type UninstallPluginResponse struct {
	bcode.Bcode
}

type GetPluginInfoRequest struct {
	PluginID string `form:"plugin_id" json:"plugin_id" validate:"required,plugin_id"`
}

type GetPluginInfoResponse struct {
	bcode.Bcode
	Data Plugin `json:"data"`
}

type GetPluginListResponse struct {
	bcode.Bcode
	Data []Plugin `json:"data"`
}

// Route is one row of the dynamic route table.
type Route struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	PluginID  string `json:"plugin_id"`
	Component string `json:"component"`
}

type GetRoutesResponse struct {
	bcode.Bcode
	Version uint64  `json:"version"`
	Data    []Route `json:"data"`
}
