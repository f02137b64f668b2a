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
	"context"
	"fmt"
	"net/http"

	"github.com/siteforge/siteforge/cmd/cli/core/common"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/spf13/cobra"
)

// NewActivatePluginCommand creates a command to activate an installed plugin
func NewActivatePluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "activate <plugin-id>",
		Short:  "Activate an installed plugin",
		Long:   "Activate an installed plugin, wiring its components and routes into the live server.",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return activatePlugin(args[0])
		},
	}

	return cmd
}

func activatePlugin(pluginID string) error {
	c := config.NewSiteForgeClient()

	req := dto.ActivatePluginRequest{PluginID: pluginID}
	resp := dto.ActivatePluginResponse{}

	if err := c.Client.Do(context.Background(), http.MethodPost, apiPath("activate"), req, &resp); err != nil {
		return fmt.Errorf("failed to activate plugin %s: %w", pluginID, err)
	}

	fmt.Printf("Successfully activated plugin: %s\n", pluginID)
	return nil
}

// NewDeactivatePluginCommand creates a command to deactivate an active plugin
func NewDeactivatePluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "deactivate <plugin-id>",
		Short:  "Deactivate an active plugin",
		Long:   "Deactivate an active plugin, removing its components and routes from the live server.",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deactivatePlugin(args[0])
		},
	}

	return cmd
}

func deactivatePlugin(pluginID string) error {
	c := config.NewSiteForgeClient()

	req := dto.DeactivatePluginRequest{PluginID: pluginID}
	resp := dto.DeactivatePluginResponse{}

	if err := c.Client.Do(context.Background(), http.MethodPost, apiPath("deactivate"), req, &resp); err != nil {
		return fmt.Errorf("failed to deactivate plugin %s: %w", pluginID, err)
	}

	fmt.Printf("Successfully deactivated plugin: %s\n", pluginID)
	return nil
}
