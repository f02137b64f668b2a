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

// NewUninstallPluginCommand creates a command to uninstall a plugin
func NewUninstallPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "uninstall <plugin-id>",
		Short:  "Uninstall a plugin",
		Long:   "Deactivate a plugin if needed, then remove its archive, data directory and record.",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return uninstallPlugin(args[0])
		},
	}

	return cmd
}

func uninstallPlugin(pluginID string) error {
	c := config.NewSiteForgeClient()

	req := dto.UninstallPluginRequest{PluginID: pluginID}
	resp := dto.UninstallPluginResponse{}

	if err := c.Client.Do(context.Background(), http.MethodDelete, apiPath(""), req, &resp); err != nil {
		return fmt.Errorf("failed to uninstall plugin %s: %w", pluginID, err)
	}

	fmt.Printf("Successfully uninstalled plugin: %s\n", pluginID)
	return nil
}
