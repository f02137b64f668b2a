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

package constants

const (
	// Plugin lifecycle statuses persisted in the plugin record.
	PluginStatusInstalled   = "installed"
	PluginStatusActivated   = "activated"
	PluginStatusDeactivated = "deactivated"
	PluginStatusError       = "error"

	// PluginManifestName is the fixed-name descriptor entry at the archive root.
	PluginManifestName = "plugin.yaml"

	// Plugin archive extensions accepted by install.
	PluginArchiveExt    = ".sfp"
	PluginArchiveExtZip = ".zip"

	// Per-plugin private directory names under the plugin data root.
	PluginDataDirName   = "data"
	PluginConfigDirName = "config"

	// Archive copy retry policy. Some platforms keep an exclusive lock on an
	// open archive until its loader is closed; the copy is retried with a
	// fixed delay before giving up.
	PluginCopyRetries    = 3
	PluginCopyRetryDelay = 500 // milliseconds
)
