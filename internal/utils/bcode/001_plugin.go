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

package bcode

// Plugin runtime errors, category 110.
var (
	ErrPluginNotFound = NewBcode(HTTPStatusNotFound, 11001, "plugin is not installed")

	ErrPluginArchiveInvalid = NewBcode(HTTPStatusBadRequest, 11002, "plugin archive is invalid")

	ErrPluginManifestInvalid = NewBcode(HTTPStatusBadRequest, 11003, "plugin manifest is invalid")

	ErrPluginAlreadyActive = NewBcode(HTTPStatusConflict, 11004, "plugin is already activated")

	ErrPluginNotActive = NewBcode(HTTPStatusConflict, 11005, "plugin is not activated")

	ErrPluginDependencyMissing = NewBcode(HTTPStatusConflict, 11006, "plugin dependency is not installed")

	ErrPluginDependencyInactive = NewBcode(HTTPStatusConflict, 11007, "plugin dependency is not activated")

	ErrPluginActivateFailed = NewBcode(HTTPStatusInternalServerError, 11008, "failed to activate plugin")

	ErrPluginDeactivateFailed = NewBcode(HTTPStatusInternalServerError, 11009, "failed to deactivate plugin")

	ErrPluginInstallFailed = NewBcode(HTTPStatusInternalServerError, 11010, "failed to install plugin")

	ErrPluginUninstallFailed = NewBcode(HTTPStatusInternalServerError, 11011, "failed to uninstall plugin")

	ErrPluginRegistrationFailed = NewBcode(HTTPStatusInternalServerError, 11012, "failed to register plugin components")

	ErrPluginEntryPointInvalid = NewBcode(HTTPStatusBadRequest, 11013, "plugin entry point is invalid")

	ErrPluginBusy = NewBcode(HTTPStatusConflict, 11014, "another operation on this plugin is in progress")
)
