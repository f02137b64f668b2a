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

package plugin

import (
	"fmt"

	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/version"
	"github.com/spf13/cobra"
)

// apiPath builds the admin API path for a plugin operation.
func apiPath(op string) string {
	if op == "" {
		return fmt.Sprintf("/%s/%s/plugin", constants.AppName, version.SpecVersion)
	}
	return fmt.Sprintf("/%s/%s/plugin/%s", constants.AppName, version.SpecVersion, op)
}

// NewPluginCommand creates the plugin management command group
func NewPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage " + constants.AppName + " plugins",
		Long:  "Install, activate, deactivate, upgrade and uninstall plugins on a running server.",
	}

	cmd.AddCommand(
		NewInstallPluginCommand(),
		NewUpgradePluginCommand(),
		NewActivatePluginCommand(),
		NewDeactivatePluginCommand(),
		NewUninstallPluginCommand(),
		NewListPluginsCommand(),
		NewPluginInfoCommand(),
	)

	return cmd
}
