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

package cli

import (
	"github.com/siteforge/siteforge/cmd/cli/core/common"
	"github.com/siteforge/siteforge/cmd/cli/core/plugin"
	"github.com/siteforge/siteforge/cmd/cli/core/server"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/spf13/cobra"
)

// NewCommand creates the root SiteForge command with all subcommands
func NewCommand() *cobra.Command {
	cmds := &cobra.Command{
		Use:   constants.AppName,
		Short: "SiteForge - visual site builder with runtime plugins",
		Long: `SiteForge is a visual site-builder platform whose functionality is
extended by plugins loaded at runtime.

Common commands:
  siteforge server start              Start the SiteForge server
  siteforge plugin install <archive>  Install a plugin archive
  siteforge plugin list               List installed plugins

Use 'siteforge <command> --help' for more information about a command.`,
	}

	cmds.AddCommand(
		// Server management
		server.NewApiserverCommand(),

		// Common commands
		common.NewVersionCommand(),

		// Plugin management
		plugin.NewPluginCommand(),
	)

	return cmds
}
